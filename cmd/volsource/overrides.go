package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

// metadataOverride is one --set assignment.
type metadataOverride struct {
	Key   string
	Value string
}

var overrideKeys = []string{"value_name", "value_unit", "data_range", "value_range", "offset"}

func parseOverrides(values []string) ([]metadataOverride, error) {
	out := make([]metadataOverride, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, volerrors.NewValidationError("set", fmt.Sprintf("expected field=value, got %q", v), nil)
		}
		if !isOverrideKey(key) {
			return nil, volerrors.NewValidationError("set", fmt.Sprintf("unknown field %q (one of %s)", key, strings.Join(overrideKeys, ", ")), nil)
		}
		out = append(out, metadataOverride{Key: key, Value: strings.TrimSpace(value)})
	}
	return out, nil
}

func isOverrideKey(key string) bool {
	for _, k := range overrideKeys {
		if k == key {
			return true
		}
	}
	return false
}

// applyOverrides edits the metadata of a loaded source. Basis and information
// are each written once so every changed field is marked touched together.
func applyOverrides(src *source.Source, overrides []metadataOverride) error {
	if len(overrides) == 0 {
		return nil
	}
	md, ok := src.Metadata()
	if !ok {
		return volerrors.NewValidationError("set", "no metadata loaded to override", nil)
	}

	info := md.Information.Clone()
	basis := md.Basis
	basisChanged := false
	for _, o := range overrides {
		switch o.Key {
		case "value_name":
			info.ValueName = o.Value
		case "value_unit":
			info.ValueUnit = o.Value
		case "data_range", "value_range":
			vals, err := parseFloats(o.Value, 2)
			if err != nil {
				return volerrors.NewValidationError("set."+o.Key, err.Error(), err)
			}
			r := volume.Range{Min: vals[0], Max: vals[1]}
			if o.Key == "data_range" {
				info.DataRange = r
			} else {
				info.ValueRange = r
			}
		case "offset":
			vals, err := parseFloats(o.Value, 3)
			if err != nil {
				return volerrors.NewValidationError("set.offset", err.Error(), err)
			}
			copy(basis.Offset[:], vals)
			basisChanged = true
		}
	}

	if basisChanged {
		if err := src.SetBasis(basis); err != nil {
			return err
		}
	}
	return src.SetInformation(info)
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}
