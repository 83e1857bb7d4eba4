package volume

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Range is a closed value interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ComputeRange returns the min/max of data, or the zero range for empty input.
func ComputeRange(data []float64) Range {
	if len(data) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(data), Max: floats.Max(data)}
}

// Union returns the smallest range containing both r and other.
func (r Range) Union(other Range) Range {
	return Range{Min: math.Min(r.Min, other.Min), Max: math.Max(r.Max, other.Max)}
}

// Mirrored returns a range symmetric about zero that contains r.
func (r Range) Mirrored() Range {
	m := math.Max(math.Abs(r.Min), math.Abs(r.Max))
	return Range{Min: -m, Max: m}
}

// Axis names one spatial axis and its unit.
type Axis struct {
	Name string `json:"name" yaml:"name"`
	Unit string `json:"unit" yaml:"unit"`
}

// Information holds the data-range and unit metadata of a volume.
type Information struct {
	DataRange  Range  `json:"data_range" yaml:"data_range"`
	ValueRange Range  `json:"value_range" yaml:"value_range"`
	ValueName  string `json:"value_name,omitempty" yaml:"value_name,omitempty"`
	ValueUnit  string `json:"value_unit,omitempty" yaml:"value_unit,omitempty"`
	Axes       []Axis `json:"axes,omitempty" yaml:"axes,omitempty"`
}

// Clone returns a deep copy.
func (i Information) Clone() Information {
	out := i
	if i.Axes != nil {
		out.Axes = append([]Axis(nil), i.Axes...)
	}
	return out
}

// DefaultAxes returns x/y/z axes in millimetres.
func DefaultAxes() []Axis {
	return []Axis{{Name: "x", Unit: "mm"}, {Name: "y", Unit: "mm"}, {Name: "z", Unit: "mm"}}
}

// Metadata is the user-facing, editable description of a loaded collection.
type Metadata struct {
	Basis       Basis       `json:"basis" yaml:"basis"`
	Information Information `json:"information" yaml:"information"`
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	return Metadata{Basis: m.Basis, Information: m.Information.Clone()}
}

// Mirrored returns md with both ranges made symmetric about zero.
func (m Metadata) Mirrored() Metadata {
	out := m.Clone()
	out.Information.DataRange = m.Information.DataRange.Mirrored()
	out.Information.ValueRange = m.Information.ValueRange.Mirrored()
	return out
}

// Derive computes fresh metadata for a collection: the basis, units and axes of
// the first volume, and ranges covering every volume.
func Derive(c *Collection) (Metadata, bool) {
	var md Metadata
	first := true
	if c == nil {
		return md, false
	}
	for _, seq := range c.Sequences {
		for _, step := range seq.Steps {
			if first {
				md.Basis = step.Basis
				md.Information = step.Information.Clone()
				first = false
				continue
			}
			md.Information.DataRange = md.Information.DataRange.Union(step.Information.DataRange)
			md.Information.ValueRange = md.Information.ValueRange.Union(step.Information.ValueRange)
		}
	}
	return md, !first
}
