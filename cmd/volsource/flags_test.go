package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/config"
)

func newTestConfig() *config.Config {
	return config.DefaultConfig()
}

func TestValidateInputFlags(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in      inputFlags
		wantErr string
	}{
		"empty":             {in: inputFlags{}},
		"file":              {in: inputFlags{File: "a.raw"}},
		"folder and filter": {in: inputFlags{Folder: "d", Filter: "*.raw"}},
		"file and folder":   {in: inputFlags{File: "a.raw", Folder: "d"}, wantErr: "mutually exclusive"},
		"file and filter":   {in: inputFlags{File: "a.raw", Filter: "*.raw"}, wantErr: "--filter only applies"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := validateInputFlags(tc.in)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestApplyInputFlags(t *testing.T) {
	t.Parallel()

	t.Run("file flag selects file mode", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig()
		cfg.Input = config.InputConfig{Mode: "folder", Folder: "d"}
		applyInputFlags(cfg, inputFlags{File: "a.raw"})
		assert.Equal(t, "file", cfg.Input.Mode)
		assert.Equal(t, "a.raw", cfg.Input.File)
	})

	t.Run("folder flag selects folder mode", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig()
		applyInputFlags(cfg, inputFlags{Folder: "d", Filter: "*.vsd"})
		assert.Equal(t, "folder", cfg.Input.Mode)
		assert.Equal(t, "d", cfg.Input.Folder)
		assert.Equal(t, "*.vsd", cfg.Input.Filter)
	})

	t.Run("filter alone keeps configured folder", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig()
		cfg.Input = config.InputConfig{Mode: "folder", Folder: "d", Filter: "*.raw"}
		applyInputFlags(cfg, inputFlags{Filter: "*.png"})
		assert.Equal(t, config.InputConfig{Mode: "folder", Folder: "d", Filter: "*.png"}, cfg.Input)
	})

	t.Run("no flags leave the config alone", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig()
		applyInputFlags(cfg, inputFlags{})
		assert.Equal(t, config.InputConfig{}, cfg.Input)
	})
}
