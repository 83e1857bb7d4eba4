// Package decoder defines the contract between the volume source and the
// format-specific decoders that turn files into volume sequences, together with
// the registry the source queries for extension capabilities.
package decoder

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

var (
	semverPattern    = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	extensionPattern = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ProgressFunc receives a completion fraction in [0,1].
type ProgressFunc func(fraction float64)

// Decoder parses one on-disk format into a volume sequence.
//
// Decode must honour ctx between time-steps, report progress monotonically when
// it can, and return the decoder's own diagnostic on malformed input. Wrapping
// into the source's error taxonomy is done by the caller.
type Decoder interface {
	Info() Info
	Decode(ctx context.Context, path string, progress ProgressFunc) (*volume.Sequence, error)
}

// Extension is one file extension a decoder understands. Ext is lower-case and
// has no leading dot.
type Extension struct {
	Ext         string
	Description string
}

// Pattern returns the folder filter pattern for the extension.
func (e Extension) Pattern() string {
	return "*." + e.Ext
}

// Info describes decoder identity and capabilities.
type Info struct {
	Name       string
	Version    string
	Extensions []Extension
}

// Validate ensures the info is well-formed.
func (i Info) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("decoder info requires a non-empty Name")
	}
	if !semverPattern.MatchString(i.Version) {
		return fmt.Errorf("decoder '%s' has invalid Version '%s' (expected format: X.Y.Z)", i.Name, i.Version)
	}
	if len(i.Extensions) == 0 {
		return fmt.Errorf("decoder '%s' declares no extensions", i.Name)
	}
	seen := make(map[string]struct{}, len(i.Extensions))
	for _, ext := range i.Extensions {
		if !extensionPattern.MatchString(ext.Ext) {
			return fmt.Errorf("decoder '%s' has invalid extension '%s' (lower-case alphanumerics, no dot)", i.Name, ext.Ext)
		}
		if _, dup := seen[ext.Ext]; dup {
			return fmt.Errorf("decoder '%s' lists extension '%s' more than once", i.Name, ext.Ext)
		}
		seen[ext.Ext] = struct{}{}
	}
	return nil
}

// ExtensionOf returns the normalised extension of a path ("" when none).
func ExtensionOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
