// Package hosting runs the per-user view instances. Each live user gets one
// goroutine that owns the view state exclusively: queries and refreshes are
// delivered through a mailbox and processed one at a time, which is the
// single-writer guarantee the view relies on. Instances idle past the
// configured window are evicted and rebuilt from the event log on the next
// request.
package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/view"
)

// Options tunes the instance lifecycle.
type Options struct {
	PollInterval time.Duration // event log catch-up interval
	IdleTimeout  time.Duration // eviction window
	ReapInterval time.Duration // reaper sweep interval
	ReadLimit    int           // events per ReadSince batch
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 360 * time.Second
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = 30 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 500
	}
	return o
}

// Registry owns all live instances for this host's shards.
type Registry struct {
	store eventlog.Store
	log   *slog.Logger
	opts  Options

	mu        sync.Mutex
	instances map[string]*instance

	done     chan struct{}
	reaperWG sync.WaitGroup
}

// NewRegistry creates a registry and starts its eviction reaper.
func NewRegistry(store eventlog.Store, log *slog.Logger, opts Options) *Registry {
	r := &Registry{
		store:     store,
		log:       log,
		opts:      opts.withDefaults(),
		instances: make(map[string]*instance),
		done:      make(chan struct{}),
	}
	r.reaperWG.Add(1)
	go r.reap()
	return r
}

// Close stops the reaper and all live instances.
func (r *Registry) Close() {
	close(r.done)
	r.reaperWG.Wait()

	r.mu.Lock()
	for key, inst := range r.instances {
		inst.requestStop()
		delete(r.instances, key)
	}
	r.mu.Unlock()
}

// ExamplesForSession answers the session-scoped examples query.
func (r *Registry) ExamplesForSession(ctx context.Context, userID, sessionID string) ([]models.Exercise, error) {
	res, err := r.query(ctx, userID, func(s *view.State) (any, error) {
		return s.ExamplesForSession(sessionID)
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.Exercise), nil
}

// Examples answers the free examples query with an optional group filter.
func (r *Registry) Examples(ctx context.Context, userID string, groupKeys []string) ([]models.Exercise, error) {
	res, err := r.query(ctx, userID, func(s *view.State) (any, error) {
		return s.Examples(groupKeys), nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.Exercise), nil
}

// Suggestions returns the user's current suggestion set.
func (r *Registry) Suggestions(ctx context.Context, userID string) (models.SuggestionSet, error) {
	res, err := r.query(ctx, userID, func(s *view.State) (any, error) {
		return s.Suggestions(), nil
	})
	if err != nil {
		return models.SuggestionSet{}, err
	}
	return res.(models.SuggestionSet), nil
}

// LiveInstances returns the number of currently hosted instances.
func (r *Registry) LiveInstances() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

type queryResult struct {
	value any
	err   error
}

type query struct {
	run  func(*view.State) (any, error)
	resp chan queryResult
}

// query delivers fn to the user's instance mailbox, creating the instance if
// needed. A delivery racing an eviction retries against a fresh instance.
func (r *Registry) query(ctx context.Context, userID string, fn func(*view.State) (any, error)) (any, error) {
	q := query{run: fn, resp: make(chan queryResult, 1)}

	for {
		inst := r.getOrCreate(userID)

		select {
		case inst.mailbox <- q:
		case <-inst.stopped:
			// Evicted between lookup and delivery; recreate and retry.
			r.remove(userID, inst)
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		select {
		case res := <-q.resp:
			return res.value, res.err
		case <-inst.stopped:
			return nil, fmt.Errorf("view instance for user %s stopped", userID)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (r *Registry) getOrCreate(userID string) *instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[userID]
	if ok {
		select {
		case <-inst.stopped:
			ok = false
		default:
		}
	}
	if !ok {
		inst = newInstance(userID, r.store, r.log, r.opts)
		r.instances[userID] = inst
	}
	inst.touch()
	return inst
}

// remove drops inst from the map if it is still the registered instance for
// the user. Pointer comparison avoids removing a newer replacement.
func (r *Registry) remove(userID string, inst *instance) {
	r.mu.Lock()
	if cur, ok := r.instances[userID]; ok && cur == inst {
		delete(r.instances, userID)
	}
	r.mu.Unlock()
}

func (r *Registry) reap() {
	defer r.reaperWG.Done()
	ticker := time.NewTicker(r.opts.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *Registry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, inst := range r.instances {
		if now.Sub(inst.lastActive()) >= r.opts.IdleTimeout {
			inst.requestStop()
			delete(r.instances, key)
			r.log.Info("evicted idle view", "user", key)
		}
	}
}
