package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/decoders/descriptor"
	"github.com/alexisbeaulieu97/volsource/internal/decoders/raster"
	"github.com/alexisbeaulieu97/volsource/internal/decoders/raw"
	"github.com/alexisbeaulieu97/volsource/internal/logger"
)

// RegisterDecoders installs every built-in decoder into reg.
func RegisterDecoders(reg *decoder.Registry, log *logger.Logger) error {
	for _, d := range []decoder.Decoder{raw.New(), descriptor.New(), raster.New()} {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("register decoder %q: %w", d.Info().Name, err)
		}
		log.WithField("decoder", d.Info().Name).Debug("decoder registered")
	}
	return nil
}

type decoderJSON struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions"`
}

func newDecodersCmd(root *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "decoders",
		Short: "List the registered decoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.Context(), root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			var rows []decoderJSON
			for _, info := range app.Registry.Infos() {
				row := decoderJSON{Name: info.Name, Version: info.Version}
				for _, ext := range info.Extensions {
					row.Extensions = append(row.Extensions, ext.Ext)
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tEXTENSIONS")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Name, row.Version, strings.Join(row.Extensions, ", "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
