package chart

import (
	"sort"
	"sync"

	"shipdash/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Surface is the drawing backend behind the registry. Implementations must not call back
// into the registry: they are invoked while it holds its lock.
type Surface interface {
	Mount(s Snapshot)
	Redraw(s Snapshot)
	Unmount(id, target string)
}

type handle struct {
	spec     ChartSpec
	revision int
}

// Registry owns every live chart. At most one handle exists per chart ID.
type Registry struct {
	mu      sync.RWMutex
	surface Surface
	handles map[string]*handle
}

// NewRegistry creates an empty registry drawing onto surface.
func NewRegistry(surface Surface) *Registry {
	if surface == nil {
		surface = MultiSurface{}
	}
	return &Registry{
		surface: surface,
		handles: make(map[string]*handle),
	}
}

// Upsert creates the chart if absent, otherwise replaces its labels and series in place and
// redraws it. The surface binding of an existing chart is never rebuilt.
// An invalid spec is a programming error and panics.
func (r *Registry) Upsert(spec ChartSpec) {
	if err := spec.Validate(); err != nil {
		panic(err)
	}
	spec = spec.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[spec.ID]
	if !ok {
		h = &handle{spec: spec, revision: 1}
		r.handles[spec.ID] = h
		r.surface.Mount(h.snapshot())
		telemetry.ChartOp("create", len(r.handles))
		log.Debug().Str("chart", spec.ID).Str("target", spec.Target).Msg("Chart created")
		return
	}

	// Identity is fixed at creation.
	spec.Target = h.spec.Target
	spec.Kind = h.spec.Kind
	h.spec.Labels = spec.Labels
	h.spec.Series = spec.Series
	h.spec.Title = spec.Title
	h.spec.XMin = spec.XMin
	h.spec.XMax = spec.XMax
	h.revision++
	r.surface.Redraw(h.snapshot())
	telemetry.ChartOp("update", len(r.handles))
	log.Debug().Str("chart", spec.ID).Int("revision", h.revision).Msg("Chart updated")
}

// Destroy unmounts and forgets the chart. Destroying an absent chart is a no-op.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok {
		return
	}
	delete(r.handles, id)
	r.surface.Unmount(id, h.spec.Target)
	telemetry.ChartOp("destroy", len(r.handles))
	log.Debug().Str("chart", id).Msg("Chart destroyed")
}

// Get returns a copy of the live chart with the given ID.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[id]
	if !ok {
		return Snapshot{}, false
	}
	return h.snapshot(), true
}

// IDs returns the IDs of all live charts in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies every live chart, ordered by ID.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of live charts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Close destroys every live chart.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Destroy(id)
	}
}

func (h *handle) snapshot() Snapshot {
	return Snapshot{ChartSpec: h.spec.Clone(), Revision: h.revision}
}

// MultiSurface fans every call out to each surface in order.
type MultiSurface []Surface

func (m MultiSurface) Mount(s Snapshot) {
	for _, surface := range m {
		surface.Mount(s)
	}
}

func (m MultiSurface) Redraw(s Snapshot) {
	for _, surface := range m {
		surface.Redraw(s)
	}
}

func (m MultiSurface) Unmount(id, target string) {
	for _, surface := range m {
		surface.Unmount(id, target)
	}
}
