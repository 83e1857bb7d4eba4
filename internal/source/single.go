package source

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

// DecoderLookup resolves the decoder for a file extension.
type DecoderLookup interface {
	ForExtension(ext string) (decoder.Decoder, error)
}

var errNoTimeSteps = errors.New("dataset has no time-steps")

// LoadFile decodes one dataset. Progress is reported at 0 and 1 and in between
// whenever the decoder supports it.
func LoadFile(ctx context.Context, lookup DecoderLookup, path string, progress decoder.ProgressFunc) (*volume.Sequence, error) {
	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}
	report(0)

	if err := ctx.Err(); err != nil {
		return nil, volerrors.ErrCancelled
	}

	ext := decoder.ExtensionOf(path)
	dec, err := lookup.ForExtension(ext)
	if err != nil {
		return nil, volerrors.NewUnsupportedFormatError(path, ext)
	}
	name := dec.Info().Name

	seq, err := dec.Decode(ctx, path, report)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, volerrors.ErrCancelled
		}
		return nil, volerrors.NewDecodeError(path, name, err)
	}
	if seq.Len() == 0 {
		return nil, volerrors.NewDecodeError(path, name, errNoTimeSteps)
	}
	if seq.Source == "" {
		seq.Source = filepath.Base(path)
	}

	report(1)
	return seq, nil
}
