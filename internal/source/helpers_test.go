package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/decoders/raw"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

var fixtureDims = [3]int{2, 2, 1}

// writeRaw writes a raw sequence whose time-step t holds base+t+i at voxel i.
func writeRaw(t *testing.T, dir, name string, steps int, base float64) string {
	t.Helper()
	data := make([][]float64, steps)
	for s := range data {
		data[s] = make([]float64, 4)
		for i := range data[s] {
			data[s][i] = base + float64(s+i)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, raw.WriteFile(path, fixtureDims, volume.IdentityBasis(fixtureDims), data))
	return path
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

type funcDecoder struct {
	name   string
	ext    string
	decode func(ctx context.Context, path string, progress decoder.ProgressFunc) (*volume.Sequence, error)
}

func (d funcDecoder) Info() decoder.Info {
	return decoder.Info{
		Name:       d.name,
		Version:    "1.0.0",
		Extensions: []decoder.Extension{{Ext: d.ext, Description: d.name + " test format"}},
	}
}

func (d funcDecoder) Decode(ctx context.Context, path string, progress decoder.ProgressFunc) (*volume.Sequence, error) {
	return d.decode(ctx, path, progress)
}

func oneStep(path string, value float64) *volume.Sequence {
	vol, _ := volume.NewVolume([3]int{1, 1, 1}, []float64{value})
	return &volume.Sequence{Source: filepath.Base(path), Steps: []*volume.Volume{vol}}
}

// gate blocks every decode until released or cancelled.
type gate struct {
	started chan string
	release chan struct{}
	obeyCtx bool
}

func newGate(obeyCtx bool) *gate {
	return &gate{started: make(chan string, 16), release: make(chan struct{}), obeyCtx: obeyCtx}
}

func (g *gate) decoder() funcDecoder {
	return funcDecoder{name: "gate", ext: "gate", decode: func(ctx context.Context, path string, _ decoder.ProgressFunc) (*volume.Sequence, error) {
		g.started <- filepath.Base(path)
		if g.obeyCtx {
			select {
			case <-g.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-g.release
		}
		return oneStep(path, 7), nil
	}}
}

func (g *gate) awaitStart(t *testing.T) string {
	t.Helper()
	select {
	case name := <-g.started:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("decoder never started")
		return ""
	}
}

func newRegistry(t *testing.T, extra ...decoder.Decoder) *decoder.Registry {
	t.Helper()
	reg := decoder.NewRegistry(nil)
	require.NoError(t, reg.Register(raw.New()))
	for _, d := range extra {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type recordedEvent struct {
	eventType string
	payload   map[string]interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(_ context.Context, event ports.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, _ := event.Payload().(map[string]interface{})
	r.events = append(r.events, recordedEvent{eventType: event.EventType(), payload: payload})
	return nil
}

func (r *recorder) Subscribe(string, ports.EventHandler) (ports.Subscription, error) {
	return nil, nil
}

func (r *recorder) ofType(eventType string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeMetrics struct {
	mu       sync.Mutex
	counters map[string]int
	gauges   map[string]float64
	observed map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counters: map[string]int{}, gauges: map[string]float64{}, observed: map[string]int{}}
}

func (m *fakeMetrics) IncCounter(_ context.Context, name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name+"/"+labels["status"]]++
}

func (m *fakeMetrics) SetGauge(_ context.Context, name string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *fakeMetrics) ObserveHistogram(_ context.Context, name string, _ float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed[name]++
}

func (m *fakeMetrics) counter(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func (m *fakeMetrics) gauge(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}
