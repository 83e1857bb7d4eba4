// Package raw decodes the binary volume-sequence container.
//
// Layout (little endian):
//
//	magic   [4]byte  "VSQ1"
//	dims    [4]uint32 x, y, z, time-steps
//	axes    [9]float64 basis vectors, row-major
//	offset  [3]float64
//	voxels  float32 * x*y*z*t, x-fastest, one time-step after another
package raw

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

// Magic identifies the container.
var Magic = [4]byte{'V', 'S', 'Q', '1'}

const headerSize = 4 + 4*4 + 12*8

// maxVoxels bounds a single time-step so a corrupt header cannot force a huge allocation.
const maxVoxels = 1 << 28

type header struct {
	Magic  [4]byte
	Dims   [4]uint32
	Axes   [9]float64
	Offset [3]float64
}

// Decoder implements decoder.Decoder for *.raw files.
type Decoder struct{}

// New returns the raw decoder.
func New() *Decoder {
	return &Decoder{}
}

// Info implements decoder.Decoder.
func (d *Decoder) Info() decoder.Info {
	return decoder.Info{
		Name:    "raw",
		Version: "1.0.0",
		Extensions: []decoder.Extension{
			{Ext: "raw", Description: "Raw volume sequence"},
		},
	}
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(ctx context.Context, path string, progress decoder.ProgressFunc) (*volume.Sequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	r := bufio.NewReader(file)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("bad magic %q", h.Magic[:])
	}

	dims := [3]int{int(h.Dims[0]), int(h.Dims[1]), int(h.Dims[2])}
	steps := int(h.Dims[3])
	voxels := dims[0] * dims[1] * dims[2]
	if voxels <= 0 || voxels > maxVoxels {
		return nil, fmt.Errorf("invalid dimensions %dx%dx%d", dims[0], dims[1], dims[2])
	}
	if want := int64(headerSize) + int64(steps)*int64(voxels)*4; stat.Size() != want {
		return nil, fmt.Errorf("file is %d bytes, header describes %d", stat.Size(), want)
	}

	basis := volume.Basis{Offset: h.Offset}
	for i := 0; i < 9; i++ {
		basis.Axes[i/3][i%3] = h.Axes[i]
	}
	if err := basis.Validate(); err != nil {
		return nil, err
	}

	seq := &volume.Sequence{Source: filepath.Base(path), Steps: make([]*volume.Volume, 0, steps)}
	buf := make([]float32, voxels)
	for t := 0; t < steps; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("read time-step %d: %w", t, err)
		}
		data := make([]float64, voxels)
		for i, v := range buf {
			if math.IsNaN(float64(v)) {
				return nil, fmt.Errorf("time-step %d contains NaN at voxel %d", t, i)
			}
			data[i] = float64(v)
		}
		vol, err := volume.NewVolume(dims, data)
		if err != nil {
			return nil, err
		}
		vol.Basis = basis
		vol.Information.Axes = volume.DefaultAxes()
		seq.Steps = append(seq.Steps, vol.WithMeta(volume.MetaFilename, seq.Source))
		if progress != nil {
			progress(float64(t+1) / float64(steps))
		}
	}
	return seq, nil
}

// Encode writes steps as a raw container. Every step must hold dims voxels.
func Encode(w io.Writer, dims [3]int, basis volume.Basis, steps [][]float64) error {
	voxels := dims[0] * dims[1] * dims[2]
	if voxels <= 0 {
		return errors.New("dimensions must be positive")
	}
	h := header{Magic: Magic, Offset: basis.Offset}
	for i := 0; i < 3; i++ {
		h.Dims[i] = uint32(dims[i])
	}
	h.Dims[3] = uint32(len(steps))
	for i := 0; i < 9; i++ {
		h.Axes[i] = basis.Axes[i/3][i%3]
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}
	buf := make([]float32, voxels)
	for t, step := range steps {
		if len(step) != voxels {
			return fmt.Errorf("time-step %d has %d voxels, want %d", t, len(step), voxels)
		}
		for i, v := range step {
			buf[i] = float32(v)
		}
		if err := binary.Write(bw, binary.LittleEndian, buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile encodes steps into path.
func WriteFile(path string, dims [3]int, basis volume.Basis, steps [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, dims, basis, steps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var _ decoder.Decoder = (*Decoder)(nil)
