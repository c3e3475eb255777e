package memory

import (
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Registry is a static, in-memory target list. It holds no lock because
// nothing writes to it after New returns.
type Registry struct {
	targets []domain.Target
	byName  map[string]int
	minIvl  time.Duration
}

var _ repo.TargetRegistry = (*Registry)(nil)

func New(targets ...domain.Target) *Registry {
	r := &Registry{
		targets: make([]domain.Target, 0, len(targets)),
		byName:  make(map[string]int, len(targets)),
	}
	for _, t := range targets {
		if _, dup := r.byName[t.Name]; dup {
			// config validation rejects duplicates; keep the first one if it slips through
			continue
		}
		r.byName[t.Name] = len(r.targets)
		r.targets = append(r.targets, t.Clone())
		if t.Interval > 0 && (r.minIvl == 0 || t.Interval < r.minIvl) {
			r.minIvl = t.Interval
		}
	}
	return r
}

// List returns the targets in configuration order. The slice and its
// endpoints are copies.
func (r *Registry) List() []domain.Target {
	out := make([]domain.Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t.Clone())
	}
	return out
}

// MinInterval is the smallest check interval across all targets. Faster
// targets are therefore never checked more often than the global cycle.
func (r *Registry) MinInterval() time.Duration {
	if r.minIvl == 0 {
		return repo.DefaultInterval
	}
	return r.minIvl
}

func (r *Registry) Lookup(name string) (domain.Target, bool) {
	i, ok := r.byName[name]
	if !ok {
		return domain.Target{}, false
	}
	return r.targets[i].Clone(), true
}
