package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := touch(t, dir, "a.raw")

	tests := []struct {
		name    string
		input   Input
		want    string
		wantErr string
	}{
		{name: "file", input: SingleFile{File: file}, want: file},
		{name: "folder", input: Folder{Dir: dir}, want: dir},
		{name: "nil input", input: nil, wantErr: "no input configured"},
		{name: "empty file", input: SingleFile{}, wantErr: "input.file: path is empty"},
		{name: "blank folder", input: Folder{Dir: "  "}, wantErr: "input.folder: path is empty"},
		{name: "missing file", input: SingleFile{File: filepath.Join(dir, "nope.raw")}, wantErr: "does not exist"},
		{name: "file is dir", input: SingleFile{File: dir}, wantErr: "is a directory"},
		{name: "folder is file", input: Folder{Dir: file}, wantErr: "is not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var cfgErr *volerrors.ConfigurationError
				assert.True(t, errors.As(err, &cfgErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewInputPicksModeField(t *testing.T) {
	t.Parallel()

	in, err := NewInput(ModeFile, "a.raw", "ignored", "*.raw")
	require.NoError(t, err)
	assert.Equal(t, SingleFile{File: "a.raw"}, in)

	in, err = NewInput(ModeFolder, "ignored", "/data", "*.raw")
	require.NoError(t, err)
	assert.Equal(t, Folder{Dir: "/data", Filter: "*.raw"}, in)
	assert.Equal(t, ModeFolder, in.Mode())
	assert.Equal(t, "/data", in.Path())

	_, err = NewInput("tape", "", "", "")
	assert.Error(t, err)
}

func TestParseInputMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseInputMode(" Folder ")
	require.NoError(t, err)
	assert.Equal(t, ModeFolder, mode)

	_, err = ParseInputMode("socket")
	assert.Error(t, err)
}
