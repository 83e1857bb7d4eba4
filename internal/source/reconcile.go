package source

import (
	"slices"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

// Field names one user-editable metadata field.
type Field uint8

const (
	FieldBasis Field = 1 << iota
	FieldDataRange
	FieldValueRange
	FieldValueName
	FieldValueUnit
	FieldAxes
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldBasis, "basis"},
	{FieldDataRange, "data_range"},
	{FieldValueRange, "value_range"},
	{FieldValueName, "value_name"},
	{FieldValueUnit, "value_unit"},
	{FieldAxes, "axes"},
}

// AllFields is every editable field.
const AllFields = FieldSet(FieldBasis | FieldDataRange | FieldValueRange | FieldValueName | FieldValueUnit | FieldAxes)

// FieldSet is a bitset of touched fields.
type FieldSet uint8

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&FieldSet(f) != 0 }

// With returns the set plus f.
func (s FieldSet) With(f Field) FieldSet { return s | FieldSet(f) }

// Names lists the fields in declaration order.
func (s FieldSet) Names() []string {
	out := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if s.Has(fn.field) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (s FieldSet) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), ",")
}

// diff returns the fields whose values differ between a and b.
func diff(a, b volume.Metadata) FieldSet {
	var s FieldSet
	if !a.Basis.Equal(b.Basis) {
		s = s.With(FieldBasis)
	}
	if a.Information.DataRange != b.Information.DataRange {
		s = s.With(FieldDataRange)
	}
	if a.Information.ValueRange != b.Information.ValueRange {
		s = s.With(FieldValueRange)
	}
	if a.Information.ValueName != b.Information.ValueName {
		s = s.With(FieldValueName)
	}
	if a.Information.ValueUnit != b.Information.ValueUnit {
		s = s.With(FieldValueUnit)
	}
	if !slices.Equal(a.Information.Axes, b.Information.Axes) {
		s = s.With(FieldAxes)
	}
	return s
}

// overlay copies the fields in s from src onto dst.
func overlay(dst, src volume.Metadata, s FieldSet) volume.Metadata {
	out := dst.Clone()
	if s.Has(FieldBasis) {
		out.Basis = src.Basis
	}
	if s.Has(FieldDataRange) {
		out.Information.DataRange = src.Information.DataRange
	}
	if s.Has(FieldValueRange) {
		out.Information.ValueRange = src.Information.ValueRange
	}
	if s.Has(FieldValueName) {
		out.Information.ValueName = src.Information.ValueName
	}
	if s.Has(FieldValueUnit) {
		out.Information.ValueUnit = src.Information.ValueUnit
	}
	if s.Has(FieldAxes) {
		out.Information.Axes = append([]volume.Axis(nil), src.Information.Axes...)
	}
	return out
}

// Reconciler merges freshly loaded metadata with user edits. A touched field
// keeps the user's value across loads until a forced load clears it.
type Reconciler struct {
	mu        sync.Mutex
	effective volume.Metadata
	baseline  volume.Metadata
	touched   FieldSet
	loaded    bool
}

// Reconcile adopts fresh for every untouched field. With force, fresh wins
// everywhere and the touched markers are cleared.
func (r *Reconciler) Reconcile(fresh volume.Metadata, force bool) volume.Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()

	if force {
		r.touched = 0
	}
	r.effective = overlay(fresh, r.effective, r.touched)
	r.baseline = fresh.Clone()
	r.loaded = true
	return r.effective.Clone()
}

// Edit replaces the effective metadata with md and marks every field that
// changed as touched. It returns the newly touched fields.
func (r *Reconciler) Edit(md volume.Metadata) FieldSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := diff(r.effective, md)
	r.effective = md.Clone()
	r.touched |= changed
	return changed
}

// Restore installs persisted metadata, marking every field touched so the
// next automatic load keeps it.
func (r *Reconciler) Restore(md volume.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.effective = md.Clone()
	r.touched = AllFields
}

// Effective returns the current metadata. ok is false until a load or restore
// produced some.
func (r *Reconciler) Effective() (md volume.Metadata, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.effective.Clone(), r.loaded || r.touched != 0
}

// Baseline returns the metadata of the last load before user edits.
func (r *Reconciler) Baseline() (volume.Metadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.baseline.Clone(), r.loaded
}

// Touched returns the fields currently overridden by the user.
func (r *Reconciler) Touched() FieldSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched
}
