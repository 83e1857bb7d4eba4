package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/decoders/raw"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

var fixtureDims = [3]int{2, 2, 1}

func executeCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeRaw(t *testing.T, dir, name string, steps int) string {
	t.Helper()
	data := make([][]float64, steps)
	for s := range data {
		data[s] = []float64{float64(s), 1, 2, 3}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, raw.WriteFile(path, fixtureDims, volume.IdentityBasis(fixtureDims), data))
	return path
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func decodeReport(t *testing.T, stdout string) loadReport {
	t.Helper()
	var report loadReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), stdout)
	return report
}
