package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"game-quiz-service/internal/domain"
	"game-quiz-service/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Mode selects the preferred backend.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode maps a config value to a Mode; anything but "remote" is local.
func ParseMode(raw string) Mode {
	if raw == string(ModeRemote) {
		return ModeRemote
	}
	return ModeLocal
}

// Resolver acquires the active backend once and memoizes it for the process
// lifetime. In remote mode the remote factory is tried exactly once; if it fails
// the local backend is used from then on.
type Resolver struct {
	mode   Mode
	remote BackendFactory
	local  BackendFactory
	sf     singleflight.Group

	mu           sync.RWMutex
	backend      Backend
	remoteFailed bool
}

func NewResolver(mode Mode, remote, local BackendFactory) *Resolver {
	return &Resolver{mode: mode, remote: remote, local: local}
}

// Backend returns the memoized backend, acquiring it on first use.
func (r *Resolver) Backend(ctx context.Context) (Backend, error) {
	r.mu.RLock()
	if r.backend != nil {
		b := r.backend
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("backend", func() (interface{}, error) {
		r.mu.RLock()
		if r.backend != nil {
			b := r.backend
			r.mu.RUnlock()
			return b, nil
		}
		tryRemote := r.mode == ModeRemote && !r.remoteFailed && r.remote != nil
		r.mu.RUnlock()

		if tryRemote {
			// The outcome is memoized for every caller, so one caller going away
			// must not decide it. The factory bounds its own connect time.
			b, err := r.remote(context.WithoutCancel(ctx))
			if err == nil {
				r.store(b, false)
				log.Printf("using remote backend")
				return b, nil
			}
			log.Printf("warning: remote backend unavailable, falling back to local storage: %v", err)
			metrics.BackendFallbacks.Inc()
			r.mu.Lock()
			r.remoteFailed = true
			r.mu.Unlock()
		}

		if r.local == nil {
			return nil, domain.ErrBackendUnavailable
		}
		b, err := r.local(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
		}
		r.store(b, true)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Backend), nil
}

// FellBack reports whether the remote backend was tried and abandoned.
func (r *Resolver) FellBack() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.remoteFailed
}

func (r *Resolver) store(b Backend, local bool) {
	r.mu.Lock()
	r.backend = b
	r.mu.Unlock()
	if local {
		log.Printf("using local backend")
	}
}
