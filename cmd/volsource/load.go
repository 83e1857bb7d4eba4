package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/volsource/internal/config"
	"github.com/alexisbeaulieu97/volsource/internal/session"
	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/internal/tui"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

type loadOptions struct {
	Input          inputFlags
	StatePath      string
	StateName      string
	Reload         bool
	FailFast       bool
	MirrorRanges   bool
	JSON           bool
	Diff           bool
	Set            []string
	NonInteractive bool
}

var loadCmdRunner = runLoad

var termIsTerminal = func(fd int) bool {
	return term.IsTerminal(fd)
}

func newLoadCmd(root *rootFlags) *cobra.Command {
	opts := loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a volume sequence file or folder and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputFlags(opts.Input); err != nil {
				return err
			}
			opts.NonInteractive = opts.JSON || !termIsTerminal(int(os.Stdout.Fd()))
			return loadCmdRunner(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input.File, "file", "f", "", "Load a single file")
	cmd.Flags().StringVarP(&opts.Input.Folder, "folder", "d", "", "Load every matching file of a folder")
	cmd.Flags().StringVar(&opts.Input.Filter, "filter", "", "File pattern for --folder, e.g. \"*.raw\"")
	cmd.Flags().StringVar(&opts.StatePath, "state", "", "Session file to restore before and save after loading")
	cmd.Flags().StringVar(&opts.StateName, "state-name", "", "Entry of the session file to use")
	cmd.Flags().BoolVar(&opts.Reload, "reload", false, "Discard metadata overrides and reload from disk")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "Abort a folder load on the first failing file")
	cmd.Flags().BoolVar(&opts.MirrorRanges, "mirror-ranges", false, "Make data and value ranges symmetric about zero")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Show how metadata overrides differ from the derived metadata")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Override a metadata field after loading, e.g. value_unit=HU or data_range=0,100 (repeatable)")

	return cmd
}

func runLoad(cmd *cobra.Command, root *rootFlags, opts loadOptions) error {
	app, err := newAppContext(cmd.Context(), root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	applyInputFlags(cfg, opts.Input)
	if opts.FailFast {
		cfg.Load.FailurePolicy = string(source.AbortOnError)
	}
	if opts.MirrorRanges {
		cfg.Load.MirrorRanges = true
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	policy, err := source.ParseFailurePolicy(cfg.Load.FailurePolicy)
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(opts.Set)
	if err != nil {
		return err
	}

	src, err := source.New(source.Options{
		Registry:     app.Registry,
		Pool:         app.Pool,
		Logger:       app.Log,
		Events:       app.Events,
		Metrics:      app.Metrics,
		Context:      app.Ctx,
		Policy:       policy,
		MirrorRanges: cfg.Load.MirrorRanges,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	store, stateName, err := openSession(cfg, opts)
	if err != nil {
		return err
	}

	if err := armLoad(src, cfg, store, stateName); err != nil {
		return err
	}
	if opts.Reload {
		if err := src.Reload(); err != nil {
			return err
		}
	}

	out, err := waitForOutcome(app, src, cfg, opts, cmd)
	if err != nil {
		return err
	}
	if out.Status == source.StatusPublished {
		if err := applyOverrides(src, overrides); err != nil {
			return err
		}
	} else if len(overrides) > 0 {
		app.Log.WithField("status", string(out.Status)).Warn("metadata overrides ignored: nothing was loaded")
	}

	report, err := buildReport(src, out, opts.Diff)
	if err != nil {
		return err
	}
	if opts.JSON {
		err = writeReportJSON(cmd.OutOrStdout(), report)
	} else {
		err = writeReportText(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}

	if store != nil && out.Status != source.StatusCancelled {
		store.Put(stateName, src.Snapshot())
		if err := store.Save(); err != nil {
			return err
		}
		app.Log.WithFields(map[string]any{"state": store.Path(), "name": stateName}).Debug("session saved")
	}

	switch out.Status {
	case source.StatusFailed:
		return out.Err
	case source.StatusCancelled:
		return volerrors.ErrCancelled
	}
	return nil
}

// openSession opens the configured session file, if any.
func openSession(cfg *config.Config, opts loadOptions) (*session.Store, string, error) {
	path := opts.StatePath
	if path == "" {
		path = cfg.State.Path
	}
	name := opts.StateName
	if name == "" {
		name = cfg.State.Name
	}
	if name == "" {
		name = session.DefaultName
	}
	if path == "" {
		return nil, name, nil
	}

	store, err := session.Open(path)
	if err != nil {
		return nil, name, err
	}
	return store, name, nil
}

// armLoad restores the saved session and applies the configured input on top
// of it. Without a saved session the configured input is required.
func armLoad(src *source.Source, cfg *config.Config, store *session.Store, name string) error {
	var st session.State
	restored := false
	if store != nil {
		st, restored = store.Get(name)
	}

	if cfg.Input.Mode != "" {
		st.Mode = cfg.Input.Mode
		st.File = cfg.Input.File
		st.Folder = cfg.Input.Folder
		st.Filter = cfg.Input.Filter
	}
	if st.Mode == "" {
		if restored {
			return fmt.Errorf("session %q has no input: pass --file or --folder", name)
		}
		return fmt.Errorf("no input: pass --file or --folder, or set input.mode in the config")
	}
	st.MirrorRanges = st.MirrorRanges || cfg.Load.MirrorRanges

	if restored {
		return src.Restore(st)
	}

	mode, err := source.ParseInputMode(st.Mode)
	if err != nil {
		return err
	}
	in, err := source.NewInput(mode, st.File, st.Folder, st.Filter)
	if err != nil {
		return err
	}
	return src.Configure(in)
}

func waitForOutcome(app *AppContext, src *source.Source, cfg *config.Config, opts loadOptions, cmd *cobra.Command) (source.Outcome, error) {
	if opts.NonInteractive {
		out, err := src.Wait(app.Ctx)
		if err != nil && errors.Is(err, context.Canceled) {
			src.Close()
			return source.Outcome{Status: source.StatusCancelled, Err: volerrors.ErrCancelled}, nil
		}
		return out, err
	}

	ctx, cancel := context.WithCancel(app.Ctx)
	defer cancel()

	model := tui.NewModel(ctx, src, inputTitle(cfg))
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(cmd.ErrOrStderr()))
	sub, err := tui.ForwardSkips(app.Events, program.Send)
	if err != nil {
		return source.Outcome{}, err
	}
	defer sub.Unsubscribe()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return source.Outcome{}, err
	}

	if m, ok := final.(tui.Model); ok && m.Outcome() != nil && !m.Cancelled() {
		return *m.Outcome(), nil
	}

	src.Close()
	return source.Outcome{Status: source.StatusCancelled, Err: volerrors.ErrCancelled}, nil
}

func inputTitle(cfg *config.Config) string {
	switch cfg.Input.Mode {
	case "file":
		return filepath.Base(cfg.Input.File)
	case "folder":
		title := filepath.Base(cfg.Input.Folder) + string(filepath.Separator)
		if strings.TrimSpace(cfg.Input.Filter) != "" {
			title += cfg.Input.Filter
		}
		return title
	}
	return ""
}
