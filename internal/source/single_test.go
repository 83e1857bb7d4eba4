package source

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

func TestLoadFileDecodesAndReportsBounds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeRaw(t, dir, "a.raw", 3, 0)

	var reports []float64
	seq, err := LoadFile(context.Background(), newRegistry(t), path, func(f float64) { reports = append(reports, f) })
	require.NoError(t, err)

	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, "a.raw", seq.Source)
	require.NotEmpty(t, reports)
	assert.Equal(t, 0.0, reports[0])
	assert.Equal(t, 1.0, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := touch(t, t.TempDir(), "c.bad")
	_, err := LoadFile(context.Background(), newRegistry(t), path, nil)

	var unsupported *volerrors.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "bad", unsupported.Extension)
}

func TestLoadFileWrapsDecoderDiagnostic(t *testing.T) {
	t.Parallel()

	path := touch(t, t.TempDir(), "broken.raw")
	_, err := LoadFile(context.Background(), newRegistry(t), path, nil)

	var decodeErr *volerrors.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "raw", decodeErr.Decoder)
	assert.Equal(t, path, decodeErr.Path)
	assert.NotNil(t, decodeErr.Err)
}

func TestLoadFileZeroTimeStepsIsDecodeError(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, t.TempDir(), "empty.raw", 0, 0)
	seq, err := LoadFile(context.Background(), newRegistry(t), path, nil)

	assert.Nil(t, seq)
	var decodeErr *volerrors.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.ErrorIs(t, err, errNoTimeSteps)
}

func TestLoadFileCancelled(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, t.TempDir(), "a.raw", 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadFile(ctx, newRegistry(t), path, nil)
	assert.ErrorIs(t, err, volerrors.ErrCancelled)
}

func TestLoadFileDecoderObservingCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	dec := funcDecoder{name: "slow", ext: "slow", decode: func(ctx context.Context, _ string, _ decoder.ProgressFunc) (*volume.Sequence, error) {
		cancel()
		return nil, ctx.Err()
	}}
	path := touch(t, t.TempDir(), "x.slow")

	_, err := LoadFile(ctx, newRegistry(t, dec), path, nil)
	assert.ErrorIs(t, err, volerrors.ErrCancelled)
	assert.True(t, volerrors.IsCancelled(err))
}

func TestLoadFileFillsMissingSource(t *testing.T) {
	t.Parallel()

	dec := funcDecoder{name: "anon", ext: "anon", decode: func(context.Context, string, decoder.ProgressFunc) (*volume.Sequence, error) {
		seq := oneStep("", 1)
		seq.Source = ""
		return seq, nil
	}}
	path := touch(t, t.TempDir(), "subject.anon")

	seq, err := LoadFile(context.Background(), newRegistry(t, dec), path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(path), seq.Source)
}
