package descriptor

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

func writeUint16(t *testing.T, path string, order binary.ByteOrder, values ...uint16) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, order, values))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestDecodeDescriptor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeUint16(t, filepath.Join(dir, "t0.bin"), binary.LittleEndian, 1, 2, 3, 4)
	writeUint16(t, filepath.Join(dir, "t1.bin"), binary.LittleEndian, 5, 6, 7, 800)
	doc := `format: uint16
dimensions: [2, 2, 1]
basis:
  axes: [[2, 0, 0], [0, 2, 0], [0, 0, 3]]
  offset: [0, 0, 0]
value_name: density
value_unit: HU
value_range: {min: 0, max: 1000}
timesteps:
  - t0.bin
  - t1.bin
`
	path := filepath.Join(dir, "scan.vsd")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	var reports []float64
	seq, err := New().Decode(context.Background(), path, func(f float64) { reports = append(reports, f) })
	require.NoError(t, err)

	require.Equal(t, 2, seq.Len())
	assert.Equal(t, "scan.vsd", seq.Source)
	last := seq.Steps[1]
	assert.Equal(t, volume.Range{Min: 5, Max: 800}, last.Information.DataRange)
	assert.Equal(t, volume.Range{Min: 0, Max: 1000}, last.Information.ValueRange)
	assert.Equal(t, "HU", last.Information.ValueUnit)
	assert.Equal(t, "density", last.Information.ValueName)
	assert.Equal(t, 3.0, last.Basis.Axes[2][2])
	assert.Equal(t, volume.DefaultAxes(), last.Information.Axes)
	assert.Equal(t, []float64{0.5, 1}, reports)
}

func TestDecodeBigEndianFloat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []float32{-1.5, 2.5}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), buf.Bytes(), 0o644))
	path := filepath.Join(dir, "a.vsd")
	require.NoError(t, os.WriteFile(path, []byte("format: float32\nbyte_order: big\ndimensions: [2, 1, 1]\ntimesteps: [a.bin]\n"), 0o644))

	seq, err := New().Decode(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.5, 2.5}, seq.Steps[0].Data)
}

func TestDecodeRejectsInvalidDescriptors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          "",
		"unknown format": "format: int128\ndimensions: [1, 1, 1]\ntimesteps: []\n",
		"two dims":       "format: uint8\ndimensions: [1, 1]\ntimesteps: []\n",
		"zero dim":       "format: uint8\ndimensions: [1, 0, 1]\ntimesteps: []\n",
		"unknown key":    "format: uint8\ndimensions: [1, 1, 1]\ntimesteps: []\ncolour: red\n",
		"missing step":   "format: uint8\ndimensions: [1, 1, 1]\ntimesteps: [nope.bin]\n",
		"size mismatch":  "format: uint16\ndimensions: [4, 1, 1]\ntimesteps: [short.bin]\n",
		"flat basis":     "format: uint8\ndimensions: [1, 1, 1]\nbasis: {axes: [[0,0,0],[0,1,0],[0,0,1]], offset: [0,0,0]}\ntimesteps: []\n",
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.bin"), []byte{1, 2}, 0o644))

	for name, body := range cases {
		path := filepath.Join(dir, filepath.Base(name)+".vsd")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := New().Decode(context.Background(), path, nil)
		assert.Error(t, err, name)
	}
}

func TestDecodeWithoutTimeStepsIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "none.vsd")
	require.NoError(t, os.WriteFile(path, []byte("format: uint8\ndimensions: [1, 1, 1]\ntimesteps: []\n"), 0o644))

	seq, err := New().Decode(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, seq.Len())
}
