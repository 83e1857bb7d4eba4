// Package source implements the volume sequence source: it resolves the
// configured input, loads one file or a whole folder off the caller's
// goroutine, reconciles the loaded metadata with user edits and publishes the
// resulting collection.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/engine"
	"github.com/alexisbeaulieu97/volsource/internal/logger"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
	"github.com/alexisbeaulieu97/volsource/internal/session"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

// ErrClosed is returned by operations on a closed Source.
var ErrClosed = errors.New("source is closed")

// Status classifies a finished job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPublished Status = "published"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome describes how a job ended.
type Outcome struct {
	JobID     string
	Status    Status
	Forced    bool
	Sequences int
	Warning   *volerrors.BatchWarning
	Err       error
	Duration  time.Duration
}

// Request is the immutable snapshot a job works from. Configuration changes
// made after a job is armed only affect the next one.
type Request struct {
	ID           string
	Input        Input
	Filter       Filter
	Force        bool
	Policy       FailurePolicy
	MirrorRanges bool
}

type job struct {
	req      Request
	gen      uint64
	progress Progress
	cancel   context.CancelFunc
	done     chan struct{}
	outcome  Outcome
	emitted  float64
}

// published is the state readers observe. The collection and the metadata it
// was built from are swapped together.
type published struct {
	coll *volume.Collection
	md   volume.Metadata
	ok   bool
}

// Options configures a Source. Registry is required.
type Options struct {
	Registry *decoder.Registry
	// Pool runs load jobs. A private single-slot pool is created when nil.
	Pool    *engine.Pool
	Logger  *logger.Logger
	Events  ports.EventPublisher
	Metrics ports.MetricsCollector
	// Context is the parent of every job context; it usually carries the
	// correlation ID.
	Context      context.Context
	Policy       FailurePolicy
	MirrorRanges bool
}

// Source owns at most one running load job. Arming a new job cancels the
// previous one and discards whatever it produces.
type Source struct {
	registry *decoder.Registry
	pool     *engine.Pool
	ownsPool bool
	log      *logger.Logger
	events   ports.EventPublisher
	metrics  ports.MetricsCollector

	base context.Context
	stop context.CancelFunc

	generation atomic.Uint64
	output     atomic.Pointer[published]
	reconciler Reconciler

	mu      sync.Mutex
	policy  FailurePolicy
	mirror  bool
	input   Input
	filters []Filter
	active  Filter
	current *job
	raw     *volume.Collection
	last    Outcome
	closed  bool
}

// New creates an idle Source. Nothing is loaded until Configure or Restore.
func New(opts Options) (*Source, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("source: decoder registry is required")
	}
	policy := opts.Policy
	if policy == "" {
		policy = SkipFailed
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Source{
		registry: opts.Registry,
		pool:     opts.Pool,
		log:      log,
		events:   opts.Events,
		metrics:  opts.Metrics,
		policy:   policy,
		mirror:   opts.MirrorRanges,
		last:     Outcome{Status: StatusIdle},
	}
	if s.pool == nil {
		s.pool = engine.NewPool(1, log)
		s.ownsPool = true
	}
	s.base, s.stop = context.WithCancel(parent)
	s.filters = AvailableFilters(s.registry.Extensions())
	s.active, _ = SelectFilter(s.filters, "")
	return s, nil
}

// Configure validates in and arms a load for it. Invalid input returns a
// ConfigurationError and arms nothing; the published output is kept.
func (s *Source) Configure(in Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configureLocked(in)
}

func (s *Source) configureLocked(in Input) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := Resolve(in); err != nil {
		s.log.WarnErr(err, "input rejected")
		return err
	}
	if f, ok := in.(Folder); ok {
		filter, err := s.filterFor(f.Filter)
		if err != nil {
			return err
		}
		s.active = filter
		in = Folder{Dir: f.Dir, Filter: filter.Pattern}
	}
	s.input = in
	s.armLocked(false)
	return nil
}

func (s *Source) filterFor(pattern string) (Filter, error) {
	if pattern == "" {
		if s.active.Pattern == "" {
			return Filter{}, volerrors.NewConfigurationError("input.filter", "no decoders registered", nil)
		}
		return s.active, nil
	}
	f, ok := lookupFilter(s.filters, pattern)
	if !ok {
		return Filter{}, volerrors.NewConfigurationError("input.filter", fmt.Sprintf("filter %q is not available", pattern), nil)
	}
	return f, nil
}

// Reload arms a forced load of the current input: fresh metadata overwrites
// every user edit.
func (s *Source) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.input == nil {
		return volerrors.NewConfigurationError("input", "no input configured", nil)
	}
	if _, err := Resolve(s.input); err != nil {
		s.log.WarnErr(err, "reload rejected")
		return err
	}
	s.armLocked(true)
	return nil
}

func (s *Source) armLocked(force bool) {
	if s.current != nil {
		s.current.cancel()
	}

	gen := s.generation.Add(1)
	s.setGauge(s.base, ports.MetricLoadProgress, 0)
	ctx, cancel := context.WithCancel(s.base)
	j := &job{
		req: Request{
			ID:           ulid.Make().String(),
			Input:        s.input,
			Filter:       s.active,
			Force:        force,
			Policy:       s.policy,
			MirrorRanges: s.mirror,
		},
		gen:    gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = j

	if err := s.pool.Submit(ctx, j.req.ID, func(ctx context.Context) { s.run(ctx, j) }); err != nil {
		cancel()
		j.outcome = Outcome{JobID: j.req.ID, Status: StatusFailed, Forced: force, Err: err}
		s.last = j.outcome
		close(j.done)
	}
}

func (s *Source) run(ctx context.Context, j *job) {
	defer close(j.done)
	defer j.cancel()

	start := time.Now()
	in := j.req.Input
	log := s.log.WithFields(map[string]any{
		"job_id": j.req.ID,
		"mode":   string(in.Mode()),
		"path":   in.Path(),
	})
	log.Info("load started")
	s.publishEvent(ctx, ports.EventLoadStarted, map[string]interface{}{
		"job_id": j.req.ID,
		"mode":   string(in.Mode()),
		"path":   in.Path(),
		"filter": j.req.Filter.Pattern,
		"forced": j.req.Force,
	})

	report := s.reporter(ctx, j)
	var (
		coll    *volume.Collection
		warning *volerrors.BatchWarning
		err     error
	)
	if _, err = Resolve(in); err == nil {
		switch in := in.(type) {
		case SingleFile:
			var seq *volume.Sequence
			seq, err = LoadFile(ctx, s.registry, in.File, report)
			if err == nil {
				coll = &volume.Collection{Sequences: []*volume.Sequence{seq}}
			}
		case Folder:
			coll, warning, err = LoadFolder(ctx, s.registry, in.Dir, j.req.Filter, BatchOptions{
				Policy:   j.req.Policy,
				Progress: report,
				Logger:   log,
				OnSkip: func(item volerrors.ItemFailure) {
					s.incCounter(ctx, ports.MetricLoadItems, map[string]string{"status": "skipped"})
					s.publishEvent(ctx, ports.EventItemSkipped, map[string]interface{}{
						"job_id": j.req.ID,
						"file":   item.Path,
						"error":  item.Err.Error(),
					})
				},
			})
		}
	}

	s.finish(ctx, j, log, coll, warning, err, time.Since(start))
}

// reporter forwards monotonic progress of j. Reports from a superseded job
// are dropped.
func (s *Source) reporter(ctx context.Context, j *job) decoder.ProgressFunc {
	return func(f float64) {
		if !j.progress.Set(f) {
			return
		}
		v := j.progress.Value()

		s.mu.Lock()
		if s.current != j || s.generation.Load() != j.gen {
			s.mu.Unlock()
			return
		}
		s.setGauge(ctx, ports.MetricLoadProgress, v)
		emit := v >= 1 || v-j.emitted >= 0.1
		if emit {
			j.emitted = v
		}
		s.mu.Unlock()

		if !emit {
			return
		}
		s.publishEvent(ctx, ports.EventLoadProgress, map[string]interface{}{
			"job_id":   j.req.ID,
			"progress": v,
		})
	}
}

func (s *Source) finish(ctx context.Context, j *job, log *logger.Logger, coll *volume.Collection, warning *volerrors.BatchWarning, err error, elapsed time.Duration) {
	out := Outcome{JobID: j.req.ID, Forced: j.req.Force, Warning: warning, Duration: elapsed}
	var pub *volume.Collection

	s.mu.Lock()
	stale := s.closed || s.generation.Load() != j.gen || ctx.Err() != nil
	switch {
	case stale || volerrors.IsCancelled(err):
		out.Status = StatusCancelled
		out.Err = volerrors.ErrCancelled
		out.Warning = nil
	case err != nil:
		out.Status = StatusFailed
		out.Err = err
		out.Warning = nil
	default:
		var ok bool
		pub, ok = s.publishLocked(coll, j.req)
		out.Sequences = pub.Len()
		out.Status = StatusPublished
		if !ok {
			out.Status = StatusEmpty
		}
	}
	j.outcome = out
	if !stale {
		s.last = out
	}
	s.mu.Unlock()

	s.observe(ctx, ports.MetricLoadDuration, elapsed.Seconds())
	s.incCounter(ctx, ports.MetricLoadJobs, map[string]string{"status": string(out.Status)})

	switch out.Status {
	case StatusCancelled:
		log.Debug("load cancelled")
		s.publishEvent(ctx, ports.EventLoadCancelled, map[string]interface{}{"job_id": j.req.ID})
	case StatusFailed:
		log.Error(err, "load failed")
		s.publishEvent(ctx, ports.EventLoadFailed, map[string]interface{}{
			"job_id": j.req.ID,
			"error":  err.Error(),
		})
	default:
		for range pub.Sequences {
			s.incCounter(ctx, ports.MetricLoadItems, map[string]string{"status": "loaded"})
		}
		skipped := 0
		if warning != nil {
			skipped = len(warning.Skipped)
		}
		done := log.WithFields(map[string]any{"sequences": out.Sequences, "skipped": skipped, "duration_ms": elapsed.Milliseconds()})
		switch {
		case warning != nil:
			done.WarnErr(warning, "load completed with skipped items")
		case out.Status == StatusEmpty:
			done.Warn("load completed without any dataset")
		default:
			done.Info("load completed")
		}
		s.publishEvent(ctx, ports.EventLoadCompleted, map[string]interface{}{
			"job_id":      j.req.ID,
			"status":      string(out.Status),
			"sequences":   out.Sequences,
			"skipped":     skipped,
			"duration_ms": elapsed.Milliseconds(),
		})
		s.publishEvent(ctx, ports.EventOutputPublished, map[string]interface{}{
			"job_id":  j.req.ID,
			"sources": pub.Sources(),
		})
	}
}

// publishLocked reconciles the metadata of coll and swaps in the result. ok is
// false when coll holds no volume, in which case metadata is left alone.
func (s *Source) publishLocked(coll *volume.Collection, req Request) (*volume.Collection, bool) {
	s.raw = coll
	fresh, ok := volume.Derive(coll)
	if !ok {
		md, hasMD := s.reconciler.Effective()
		s.output.Store(&published{coll: coll, md: md, ok: hasMD})
		return coll, false
	}
	if req.MirrorRanges {
		fresh = fresh.Mirrored()
	}
	md := s.reconciler.Reconcile(fresh, req.Force)
	out := coll.Apply(md)
	s.output.Store(&published{coll: out, md: md, ok: true})
	return out, true
}

// republishLocked swaps in the current effective metadata, rebuilding the
// collection from the last load when there is one. It returns the rebuilt
// collection, or nil when only the metadata changed.
func (s *Source) republishLocked() *volume.Collection {
	md, ok := s.reconciler.Effective()
	var coll, out *volume.Collection
	if prev := s.output.Load(); prev != nil {
		coll = prev.coll
	}
	if s.raw != nil {
		if _, derived := volume.Derive(s.raw); derived {
			out = s.raw.Apply(md)
			coll = out
		}
	}
	s.output.Store(&published{coll: coll, md: md, ok: ok})
	return out
}

// Wait blocks until the most recently armed job has finished and returns its
// outcome. When that job is superseded while waiting, Wait follows the newer
// one. Without any job it returns the idle outcome.
func (s *Source) Wait(ctx context.Context) (Outcome, error) {
	for {
		s.mu.Lock()
		j := s.current
		last := s.last
		s.mu.Unlock()
		if j == nil {
			return last, nil
		}

		select {
		case <-j.done:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}

		s.mu.Lock()
		superseded := s.current != j
		s.mu.Unlock()
		if !superseded {
			return j.outcome, nil
		}
	}
}

// Output returns the published collection, or nil before the first
// successful load. The value must be treated as read-only.
func (s *Source) Output() *volume.Collection {
	p := s.output.Load()
	if p == nil {
		return nil
	}
	return p.coll
}

// Metadata returns the effective metadata of the published output. ok is false
// before anything was loaded, edited or restored.
func (s *Source) Metadata() (volume.Metadata, bool) {
	p := s.output.Load()
	if p == nil {
		return volume.Metadata{}, false
	}
	return p.md.Clone(), p.ok
}

// Published returns the collection together with the metadata it carries,
// read from a single swap.
func (s *Source) Published() (*volume.Collection, volume.Metadata, bool) {
	p := s.output.Load()
	if p == nil {
		return nil, volume.Metadata{}, false
	}
	return p.coll, p.md.Clone(), p.ok
}

// Baseline returns the metadata derived from the last published load, before
// user edits were applied.
func (s *Source) Baseline() (volume.Metadata, bool) {
	return s.reconciler.Baseline()
}

// Touched returns the metadata fields currently held by user edits.
func (s *Source) Touched() FieldSet {
	return s.reconciler.Touched()
}

// Progress returns the progress of the most recently armed job.
func (s *Source) Progress() float64 {
	s.mu.Lock()
	j := s.current
	s.mu.Unlock()
	if j == nil {
		return 0
	}
	return j.progress.Value()
}

// LastOutcome returns the outcome of the last job that was not superseded.
func (s *Source) LastOutcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Input returns the configured input, or nil.
func (s *Source) Input() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Filters returns the selectable filters in registry order.
func (s *Source) Filters() []Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Filter(nil), s.filters...)
}

// ActiveFilter returns the filter folder loads use.
func (s *Source) ActiveFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetBasis overrides the spatial basis and republishes the current output.
func (s *Source) SetBasis(b volume.Basis) error {
	if err := b.Validate(); err != nil {
		return volerrors.NewValidationError("basis", err.Error(), err)
	}
	return s.edit(func(md *volume.Metadata) { md.Basis = b })
}

// SetInformation overrides the information fields and republishes the
// current output.
func (s *Source) SetInformation(info volume.Information) error {
	if info.DataRange.Min > info.DataRange.Max {
		return volerrors.NewValidationError("information.data_range", "min exceeds max", nil)
	}
	if info.ValueRange.Min > info.ValueRange.Max {
		return volerrors.NewValidationError("information.value_range", "min exceeds max", nil)
	}
	if n := len(info.Axes); n != 0 && n != 3 {
		return volerrors.NewValidationError("information.axes", fmt.Sprintf("expected 3 axes, got %d", n), nil)
	}
	return s.edit(func(md *volume.Metadata) { md.Information = info.Clone() })
}

func (s *Source) edit(apply func(*volume.Metadata)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	md, _ := s.reconciler.Effective()
	apply(&md)
	changed := s.reconciler.Edit(md)
	var rebuilt *volume.Collection
	if changed != 0 {
		rebuilt = s.republishLocked()
	}
	s.mu.Unlock()

	if changed != 0 {
		s.log.WithField("fields", changed.String()).Info("metadata edited")
	}
	if rebuilt != nil {
		s.publishEvent(s.base, ports.EventOutputPublished, map[string]interface{}{
			"reason":  "metadata_edit",
			"fields":  changed.Names(),
			"sources": rebuilt.Sources(),
		})
	}
	return nil
}

// RefreshFilters rebuilds the selectable filters from the registry. When the
// active filter is gone it is replaced by the first available one, a
// filter.changed event is published and a folder input is reloaded.
func (s *Source) RefreshFilters() (Filter, bool) {
	s.mu.Lock()
	previous := s.active
	s.filters = AvailableFilters(s.registry.Extensions())
	active, changed := SelectFilter(s.filters, previous.Pattern)
	s.active = active
	reloaded := false
	if changed && !s.closed {
		if f, ok := s.input.(Folder); ok {
			s.input = Folder{Dir: f.Dir, Filter: active.Pattern}
			if _, err := Resolve(s.input); err == nil && active.Pattern != "" {
				s.armLocked(false)
				reloaded = true
			}
		}
	}
	s.mu.Unlock()

	if changed {
		s.log.WithFields(map[string]any{"previous": previous.Pattern, "active": active.Pattern}).Info("active filter substituted")
		s.publishEvent(s.base, ports.EventFilterChanged, map[string]interface{}{
			"previous": previous.Pattern,
			"active":   active.Pattern,
			"reloaded": reloaded,
		})
	}
	return active, changed
}

// Snapshot captures the state needed to restore this source later.
func (s *Source) Snapshot() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := session.State{MirrorRanges: s.mirror}
	switch in := s.input.(type) {
	case SingleFile:
		st.Mode = string(ModeFile)
		st.File = in.File
	case Folder:
		st.Mode = string(ModeFolder)
		st.Folder = in.Dir
		st.Filter = in.Filter
	}
	if md, ok := s.reconciler.Effective(); ok {
		st.Metadata = &md
	}
	return st
}

// Restore reinstates a saved state. Restored metadata counts as user edits, so
// the load armed for the restored input keeps it unless Reload is called.
func (s *Source) Restore(st session.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.mirror = st.MirrorRanges
	if st.Metadata != nil {
		s.reconciler.Restore(*st.Metadata)
		s.republishLocked()
	}
	if st.Mode == "" {
		return nil
	}

	mode, err := ParseInputMode(st.Mode)
	if err != nil {
		return err
	}
	in, err := NewInput(mode, st.File, st.Folder, st.Filter)
	if err != nil {
		return err
	}
	return s.configureLocked(in)
}

// Close cancels the running job, waits for it and releases the private pool.
func (s *Source) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	j := s.current
	s.stop()
	s.mu.Unlock()

	if j != nil {
		<-j.done
	}
	if s.ownsPool {
		s.pool.Close()
	}
}
