package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

func metadata(min, max float64, unit string) volume.Metadata {
	return volume.Metadata{
		Basis: volume.IdentityBasis([3]int{2, 2, 1}),
		Information: volume.Information{
			DataRange:  volume.Range{Min: min, Max: max},
			ValueRange: volume.Range{Min: min, Max: max},
			ValueUnit:  unit,
			Axes:       volume.DefaultAxes(),
		},
	}
}

func TestReconcileFirstLoadAdoptsFresh(t *testing.T) {
	t.Parallel()

	var r Reconciler
	_, ok := r.Effective()
	assert.False(t, ok)

	fresh := metadata(0, 10, "HU")
	got := r.Reconcile(fresh, false)
	assert.Equal(t, fresh, got)

	baseline, ok := r.Baseline()
	require.True(t, ok)
	assert.Equal(t, fresh, baseline)
	assert.Equal(t, FieldSet(0), r.Touched())
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	var r Reconciler
	fresh := metadata(-1, 1, "")
	first := r.Reconcile(fresh, false)
	second := r.Reconcile(fresh, false)
	assert.Equal(t, first, second)
}

func TestReconcileKeepsTouchedFieldsUnlessForced(t *testing.T) {
	t.Parallel()

	var r Reconciler
	r.Reconcile(metadata(0, 10, "HU"), false)

	edited, _ := r.Effective()
	edited.Information.ValueUnit = "mg/ml"
	changed := r.Edit(edited)
	assert.Equal(t, FieldSet(0).With(FieldValueUnit), changed)

	got := r.Reconcile(metadata(5, 50, "HU"), false)
	assert.Equal(t, "mg/ml", got.Information.ValueUnit, "touched field kept")
	assert.Equal(t, volume.Range{Min: 5, Max: 50}, got.Information.DataRange, "untouched field refreshed")
	assert.True(t, r.Touched().Has(FieldValueUnit))

	got = r.Reconcile(metadata(5, 50, "HU"), true)
	assert.Equal(t, "HU", got.Information.ValueUnit)
	assert.Equal(t, FieldSet(0), r.Touched())
}

func TestEditMarksOnlyChangedFields(t *testing.T) {
	t.Parallel()

	var r Reconciler
	md := r.Reconcile(metadata(0, 1, "HU"), false)

	assert.Equal(t, FieldSet(0), r.Edit(md))

	md.Basis.Offset = [3]float64{1, 2, 3}
	md.Information.Axes = []volume.Axis{{Name: "i"}, {Name: "j"}, {Name: "k"}}
	changed := r.Edit(md)
	assert.Equal(t, []string{"basis", "axes"}, changed.Names())
	assert.Equal(t, "basis,axes", r.Touched().String())
}

func TestRestoreMarksEverythingTouched(t *testing.T) {
	t.Parallel()

	var r Reconciler
	restored := metadata(-3, 3, "T")
	r.Restore(restored)

	md, ok := r.Effective()
	require.True(t, ok)
	assert.Equal(t, restored, md)
	assert.Equal(t, AllFields, r.Touched())

	got := r.Reconcile(metadata(0, 100, "HU"), false)
	assert.Equal(t, restored, got)
}

func TestFieldSetNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", FieldSet(0).String())
	assert.Equal(t, "basis,data_range,value_range,value_name,value_unit,axes", AllFields.String())
	assert.Equal(t, []string{"value_range"}, FieldSet(0).With(FieldValueRange).Names())
}
