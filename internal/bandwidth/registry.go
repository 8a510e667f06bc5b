package bandwidth

import (
	"sort"
	"sync"
)

// Registry owns the Stats of every monitored channel. Channels are registered
// once and live for the process lifetime.
type Registry struct {
	metrics *Metrics

	mtx      sync.RWMutex
	channels map[string]*Stats
}

// NewRegistry creates an empty registry. Metrics may be NopMetrics.
func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		metrics:  metrics,
		channels: make(map[string]*Stats),
	}
}

// Channel returns the stats for the named channel, creating them on first
// use.
func (r *Registry) Channel(name string) *Stats {
	r.mtx.RLock()
	s, ok := r.channels[name]
	r.mtx.RUnlock()
	if ok {
		return s
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if s, ok := r.channels[name]; ok {
		return s
	}
	s = NewStats(name)
	r.channels[name] = s
	return s
}

// Record accounts one message on the named channel and updates the exported
// metrics.
func (r *Registry) Record(name string, numBytes int) {
	r.Channel(name).Record(numBytes)
	r.metrics.BytesReceived.With("channel", name).Add(float64(numBytes))
	r.metrics.MessagesReceived.With("channel", name).Add(1)
}

// List returns all registered stats, sorted by channel name.
func (r *Registry) List() []*Stats {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	list := make([]*Stats, 0, len(r.channels))
	for _, s := range r.channels {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}
