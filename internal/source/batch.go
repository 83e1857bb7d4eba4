package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/logger"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

// FailurePolicy decides what a failing item does to the rest of a batch.
type FailurePolicy string

const (
	// SkipFailed records the failure, skips the item and keeps loading.
	SkipFailed FailurePolicy = "skip"
	// AbortOnError fails the whole batch on the first failing item.
	AbortOnError FailurePolicy = "abort"
)

// ParseFailurePolicy converts a configuration string. Empty selects SkipFailed.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SkipFailed:
		return SkipFailed, nil
	case AbortOnError:
		return AbortOnError, nil
	default:
		return "", volerrors.NewConfigurationError("load.failure_policy", fmt.Sprintf("unknown policy %q", raw), nil)
	}
}

// BatchOptions tunes LoadFolder.
type BatchOptions struct {
	Policy   FailurePolicy
	Progress decoder.ProgressFunc
	// OnSkip is called for every item skipped under SkipFailed.
	OnSkip func(volerrors.ItemFailure)
	Logger *logger.Logger
}

// Candidates lists the regular files of dir matching filter, sorted by name.
func Candidates(dir string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, volerrors.NewConfigurationError("input.folder", fmt.Sprintf("cannot read %s", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !filter.Matches(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LoadFolder loads every candidate of dir in lexicographic order. A cancelled
// ctx stops the batch between items with ErrCancelled and drops the partial
// result. Under SkipFailed the returned warning lists the skipped items.
func LoadFolder(ctx context.Context, lookup DecoderLookup, dir string, filter Filter, opts BatchOptions) (*volume.Collection, *volerrors.BatchWarning, error) {
	report := func(f float64) {
		if opts.Progress != nil {
			opts.Progress(f)
		}
	}
	report(0)

	names, err := Candidates(dir, filter)
	if err != nil {
		return nil, nil, err
	}

	log := opts.Logger.WithFields(map[string]any{"folder": dir, "filter": filter.Pattern, "candidates": len(names)})
	log.Debug("batch candidates listed")

	collection := &volume.Collection{Sequences: make([]*volume.Sequence, 0, len(names))}
	if len(names) == 0 {
		report(1)
		return collection, nil, nil
	}

	var skipped []volerrors.ItemFailure
	total := float64(len(names))
	for i, name := range names {
		if ctx.Err() != nil {
			return nil, nil, volerrors.ErrCancelled
		}

		base := float64(i)
		itemProgress := func(f float64) {
			if f < 0 {
				f = 0
			} else if f > 1 {
				f = 1
			}
			report((base + f) / total)
		}

		path := filepath.Join(dir, name)
		seq, err := LoadFile(ctx, lookup, path, itemProgress)
		switch {
		case volerrors.IsCancelled(err):
			return nil, nil, volerrors.ErrCancelled
		case err != nil && opts.Policy == AbortOnError:
			return nil, nil, err
		case err != nil:
			failure := volerrors.ItemFailure{Path: path, Err: err}
			skipped = append(skipped, failure)
			log.WithField("file", name).WarnErr(err, "skipping dataset")
			if opts.OnSkip != nil {
				opts.OnSkip(failure)
			}
		default:
			collection.Sequences = append(collection.Sequences, seq)
		}

		if ctx.Err() != nil {
			return nil, nil, volerrors.ErrCancelled
		}
		report(float64(i+1) / total)
	}

	if len(skipped) == 0 {
		return collection, nil, nil
	}
	return collection, &volerrors.BatchWarning{Skipped: skipped}, nil
}
