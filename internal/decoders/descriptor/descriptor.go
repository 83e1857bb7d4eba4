// Package descriptor decodes *.vsd files: YAML documents that describe a
// time-series of headerless binary volumes stored next to the descriptor.
//
//	format: uint16
//	dimensions: [64, 64, 32]
//	byte_order: little
//	basis:
//	  axes: [[64, 0, 0], [0, 64, 0], [0, 0, 48]]
//	  offset: [-32, -32, -24]
//	value_unit: HU
//	timesteps:
//	  - t000.bin
//	  - t001.bin
package descriptor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Document is the YAML schema of a descriptor.
type Document struct {
	Format     string        `yaml:"format" validate:"required,oneof=uint8 uint16 float32 float64"`
	ByteOrder  string        `yaml:"byte_order,omitempty" validate:"omitempty,oneof=little big"`
	Dimensions []int         `yaml:"dimensions" validate:"required,len=3,dive,min=1"`
	Basis      *volume.Basis `yaml:"basis,omitempty"`
	ValueName  string        `yaml:"value_name,omitempty"`
	ValueUnit  string        `yaml:"value_unit,omitempty"`
	ValueRange *volume.Range `yaml:"value_range,omitempty"`
	Axes       []volume.Axis `yaml:"axes,omitempty" validate:"omitempty,len=3"`
	TimeSteps  []string      `yaml:"timesteps" validate:"dive,required"`
}

// Decoder implements decoder.Decoder for *.vsd descriptors.
type Decoder struct{}

// New returns the descriptor decoder.
func New() *Decoder {
	return &Decoder{}
}

// Info implements decoder.Decoder.
func (d *Decoder) Info() decoder.Info {
	return decoder.Info{
		Name:    "descriptor",
		Version: "1.0.0",
		Extensions: []decoder.Extension{
			{Ext: "vsd", Description: "Volume sequence descriptor"},
		},
	}
}

// Parse reads and validates a descriptor document.
func Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse descriptor: document is empty")
		}
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if err := validatorInstance().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}
	return &doc, nil
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(ctx context.Context, path string, progress decoder.ProgressFunc) (*volume.Sequence, error) {
	doc, err := Parse(path)
	if err != nil {
		return nil, err
	}

	dims := [3]int{doc.Dimensions[0], doc.Dimensions[1], doc.Dimensions[2]}
	basis := volume.IdentityBasis(dims)
	if doc.Basis != nil {
		basis = *doc.Basis
	}
	if err := basis.Validate(); err != nil {
		return nil, err
	}
	axes := doc.Axes
	if len(axes) == 0 {
		axes = volume.DefaultAxes()
	}
	var order binary.ByteOrder = binary.LittleEndian
	if doc.ByteOrder == "big" {
		order = binary.BigEndian
	}

	dir := filepath.Dir(path)
	seq := &volume.Sequence{Source: filepath.Base(path), Steps: make([]*volume.Volume, 0, len(doc.TimeSteps))}
	for t, name := range doc.TimeSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepPath := name
		if !filepath.IsAbs(stepPath) {
			stepPath = filepath.Join(dir, name)
		}
		data, err := readVoxels(stepPath, doc.Format, order, dims[0]*dims[1]*dims[2])
		if err != nil {
			return nil, fmt.Errorf("time-step %d (%s): %w", t, name, err)
		}
		vol, err := volume.NewVolume(dims, data)
		if err != nil {
			return nil, err
		}
		vol.Basis = basis
		vol.Information.ValueName = doc.ValueName
		vol.Information.ValueUnit = doc.ValueUnit
		vol.Information.Axes = append([]volume.Axis(nil), axes...)
		if doc.ValueRange != nil {
			vol.Information.ValueRange = *doc.ValueRange
		}
		seq.Steps = append(seq.Steps, vol.WithMeta(volume.MetaFilename, seq.Source))
		if progress != nil {
			progress(float64(t+1) / float64(len(doc.TimeSteps)))
		}
	}
	return seq, nil
}

func readVoxels(path, format string, order binary.ByteOrder, voxels int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if want := int64(voxels) * int64(bytesPerVoxel(format)); stat.Size() != want {
		return nil, fmt.Errorf("file is %d bytes, expected %d", stat.Size(), want)
	}

	out := make([]float64, voxels)
	switch format {
	case "uint8":
		buf := make([]uint8, voxels)
		if err := binary.Read(f, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case "uint16":
		buf := make([]uint16, voxels)
		if err := binary.Read(f, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case "float32":
		buf := make([]float32, voxels)
		if err := binary.Read(f, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case "float64":
		if err := binary.Read(f, order, out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return out, nil
}

func bytesPerVoxel(format string) int {
	switch format {
	case "uint8":
		return 1
	case "uint16":
		return 2
	case "float32":
		return 4
	default:
		return 8
	}
}

var _ decoder.Decoder = (*Decoder)(nil)
