package booking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwangaza-health/booking-gateway/internal/observability/metrics"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// Registry tracks live booking forms by id. Forms live for the duration
// of the modal that opened them; abandoned ones are swept out after the
// configured TTL.
type Registry struct {
	mu      sync.Mutex
	forms   map[string]*Form
	ttl     time.Duration
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewRegistry creates a registry sweeping forms idle longer than ttl.
func NewRegistry(ttl time.Duration, m *metrics.BookingMetrics, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Registry{
		forms:   make(map[string]*Form),
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	if ttl > 0 {
		go r.sweep()
	}
	return r
}

// Add registers a form and returns its id.
func (r *Registry) Add(f *Form) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.forms[id] = f
	r.mu.Unlock()
	r.metrics.FormOpened()
	return id
}

// Get returns the form for id, if it is still live.
func (r *Registry) Get(id string) (*Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[id]
	return f, ok
}

// Remove discards a form (modal closed or booking completed).
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.forms[id]
	delete(r.forms, id)
	r.mu.Unlock()
	if ok {
		r.metrics.FormClosed()
	}
	return ok
}

// Len reports the number of live forms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// sweep evicts idle forms to keep the map from growing unbounded.
func (r *Registry) sweep() {
	for {
		time.Sleep(r.ttl / 2)
		cutoff := r.now().Add(-r.ttl)

		r.mu.Lock()
		var expired []string
		for id, f := range r.forms {
			if f.LastActive().Before(cutoff) {
				expired = append(expired, id)
			}
		}
		for _, id := range expired {
			delete(r.forms, id)
		}
		r.mu.Unlock()

		for range expired {
			r.metrics.FormClosed()
		}
		if len(expired) > 0 {
			r.logger.Info("expired idle booking forms", "count", len(expired))
		}
	}
}
