// Package volume holds the in-memory representation of decoded volumetric data:
// single volumes, time-ordered sequences of volumes, and collections of sequences.
//
// Values produced by a load are immutable. Published collections are shared with
// downstream consumers, so nothing in this package mutates a Volume, Sequence or
// Collection after construction; editing helpers return copies.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// MetaFilename is the metadata key holding the file a volume was decoded from.
const MetaFilename = "filename"

// Volume is one 3D scalar field. Data is stored x-fastest.
type Volume struct {
	Dims        [3]int
	Data        []float64
	Basis       Basis
	Information Information
	Metadata    map[string]string
}

// NewVolume validates dimensions against the data length.
func NewVolume(dims [3]int, data []float64) (*Volume, error) {
	for i, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("dimension %d must be positive, got %d", i, d)
		}
	}
	if want := dims[0] * dims[1] * dims[2]; len(data) != want {
		return nil, fmt.Errorf("volume data has %d voxels, dimensions require %d", len(data), want)
	}
	return &Volume{
		Dims:        dims,
		Data:        data,
		Basis:       IdentityBasis(dims),
		Information: Information{DataRange: ComputeRange(data), ValueRange: ComputeRange(data)},
	}, nil
}

// Voxels returns the number of voxels.
func (v *Volume) Voxels() int {
	return v.Dims[0] * v.Dims[1] * v.Dims[2]
}

// At returns the voxel value at (x, y, z).
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[z*v.Dims[0]*v.Dims[1]+y*v.Dims[0]+x]
}

// WithMetadata returns a shallow copy carrying the supplied basis and information.
// The voxel buffer is shared.
func (v *Volume) WithMetadata(basis Basis, info Information) *Volume {
	clone := *v
	clone.Basis = basis
	clone.Information = info.Clone()
	clone.Metadata = cloneStrings(v.Metadata)
	return &clone
}

// WithMeta returns a shallow copy with an extra metadata entry.
func (v *Volume) WithMeta(key, value string) *Volume {
	clone := *v
	clone.Metadata = cloneStrings(v.Metadata)
	if clone.Metadata == nil {
		clone.Metadata = make(map[string]string, 1)
	}
	clone.Metadata[key] = value
	return &clone
}

// Sequence is an ordered series of time-steps belonging to one subject or session.
type Sequence struct {
	Source string
	Steps  []*Volume
}

// Len returns the number of time-steps.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Steps)
}

// Collection is the published output: one Sequence per discovered dataset,
// in discovery order.
type Collection struct {
	Sequences []*Sequence
}

// Len returns the number of sequences.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Sequences)
}

// Sources lists the source filename of every sequence in order.
func (c *Collection) Sources() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Sequences))
	for _, seq := range c.Sequences {
		out = append(out, seq.Source)
	}
	return out
}

// Stats summarises a collection for display.
type Stats struct {
	Sequences int
	TimeSteps int
	Voxels    int
	Mean      float64
}

// Stats computes sequence/time-step counts and the mean voxel value.
func (c *Collection) Stats() Stats {
	var st Stats
	if c == nil {
		return st
	}
	st.Sequences = len(c.Sequences)
	means := make([]float64, 0)
	weights := make([]float64, 0)
	for _, seq := range c.Sequences {
		st.TimeSteps += seq.Len()
		for _, step := range seq.Steps {
			if len(step.Data) == 0 {
				continue
			}
			st.Voxels += len(step.Data)
			means = append(means, stat.Mean(step.Data, nil))
			weights = append(weights, float64(len(step.Data)))
		}
	}
	if len(means) > 0 {
		st.Mean = stat.Mean(means, weights)
	}
	return st
}

// Apply returns a new collection whose volumes carry md. Voxel buffers are shared
// with c, which is left untouched.
func (c *Collection) Apply(md Metadata) *Collection {
	if c == nil {
		return nil
	}
	out := &Collection{Sequences: make([]*Sequence, 0, len(c.Sequences))}
	for _, seq := range c.Sequences {
		steps := make([]*Volume, 0, len(seq.Steps))
		for _, step := range seq.Steps {
			steps = append(steps, step.WithMetadata(md.Basis, md.Information))
		}
		out.Sequences = append(out.Sequences, &Sequence{Source: seq.Source, Steps: steps})
	}
	return out
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
