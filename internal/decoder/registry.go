package decoder

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/volsource/internal/logger"
)

// ErrDecoderNotFound is returned when no decoder handles the requested extension.
type ErrDecoderNotFound struct {
	Extension string
}

func (e ErrDecoderNotFound) Error() string {
	return fmt.Sprintf("no decoder registered for extension '%s'\nHint: register a decoder that declares this extension", e.Extension)
}

// ErrExtensionConflict is returned when two decoders claim the same extension.
type ErrExtensionConflict struct {
	Extension string
	Owner     string
	Incoming  string
}

func (e ErrExtensionConflict) Error() string {
	return fmt.Sprintf("extension '%s' is already handled by decoder '%s' (rejected '%s')", e.Extension, e.Owner, e.Incoming)
}

// Registry maps file extensions to decoders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
	infos    map[string]Info
	byExt    map[string]string
	revision uint64
	logger   *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
		infos:    make(map[string]Info),
		byExt:    make(map[string]string),
		logger:   log,
	}
}

// Register adds a decoder to the registry.
func (r *Registry) Register(d Decoder) error {
	if d == nil {
		return fmt.Errorf("decoder is nil")
	}

	info := d.Info()
	if err := info.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decoders[info.Name]; exists {
		return fmt.Errorf("decoder '%s' already registered", info.Name)
	}
	for _, ext := range info.Extensions {
		if owner, taken := r.byExt[ext.Ext]; taken {
			return ErrExtensionConflict{Extension: ext.Ext, Owner: owner, Incoming: info.Name}
		}
	}

	r.decoders[info.Name] = d
	r.infos[info.Name] = info
	for _, ext := range info.Extensions {
		r.byExt[ext.Ext] = info.Name
	}
	r.revision++

	r.logDebug(fmt.Sprintf("registered decoder '%s' (%d extensions)", info.Name, len(info.Extensions)))
	return nil
}

// Unregister removes a decoder and its extensions.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.infos[name]
	if !ok {
		return false
	}
	for _, ext := range info.Extensions {
		delete(r.byExt, ext.Ext)
	}
	delete(r.decoders, name)
	delete(r.infos, name)
	r.revision++
	return true
}

// ForExtension retrieves the decoder handling ext (case-insensitive, no dot).
func (r *Registry) ForExtension(ext string) (Decoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byExt[ExtensionOf("x."+ext)]
	if !ok {
		return nil, ErrDecoderNotFound{Extension: ext}
	}
	return r.decoders[name], nil
}

// List returns registered decoder names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos returns the Info of every registered decoder in name order.
func (r *Registry) Infos() []Info {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(names))
	for _, name := range names {
		if info, ok := r.infos[name]; ok {
			out = append(out, info)
		}
	}
	return out
}

// Extensions returns every known extension in a stable order: decoders sorted by
// name, then each decoder's extensions in declared order.
func (r *Registry) Extensions() []Extension {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Extension, 0, len(r.byExt))
	for _, name := range names {
		info, ok := r.infos[name]
		if !ok {
			continue
		}
		out = append(out, info.Extensions...)
	}
	return out
}

// Revision increases every time the capability set changes.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

func (r *Registry) logDebug(msg string) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(msg)
}
