package hosting

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/view"
)

// instance is one user's live view: a goroutine owning the state, a mailbox
// for queries, and a ticker driving event log catch-up. Only the run loop
// touches the state.
type instance struct {
	userID  string
	store   eventlog.Store
	log     *slog.Logger
	opts    Options
	mailbox chan query

	stop     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}

	active atomic.Int64 // unix nanos of last delivery
}

func newInstance(userID string, store eventlog.Store, log *slog.Logger, opts Options) *instance {
	inst := &instance{
		userID:  userID,
		store:   store,
		log:     log,
		opts:    opts,
		mailbox: make(chan query, 16),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	inst.touch()
	go inst.run()
	return inst
}

func (i *instance) touch() {
	i.active.Store(time.Now().UnixNano())
}

func (i *instance) lastActive() time.Time {
	return time.Unix(0, i.active.Load())
}

func (i *instance) requestStop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

// run rebuilds the state from the full persisted history, then alternates
// between answering queries and folding newly persisted events. A replay
// failure stops the instance; the registry rebuilds it on the next request.
func (i *instance) run() {
	defer close(i.stopped)

	state := view.NewState()
	var offset int64

	if err := i.refresh(state, &offset); err != nil {
		i.log.Error("initial replay failed", "user", i.userID, "error", err)
		return
	}

	ticker := time.NewTicker(i.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.stop:
			return
		case <-ticker.C:
			if err := i.refresh(state, &offset); err != nil {
				i.log.Error("refresh failed", "user", i.userID, "offset", offset, "error", err)
				return
			}
		case q := <-i.mailbox:
			i.touch()
			value, err := q.run(state)
			q.resp <- queryResult{value: value, err: err}
		}
	}
}

// refresh folds all events persisted since the last seen sequence number.
// Folding is idempotent across restarts: replaying from zero or resuming
// from offset yields the same terminal state.
func (i *instance) refresh(state *view.State, offset *int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.opts.PollInterval*5)
	defer cancel()

	for {
		events, err := i.store.ReadSince(ctx, i.userID, *offset, i.opts.ReadLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for _, e := range events {
			state.Apply(e.Envelope)
			*offset = e.Seq
		}
		if len(events) < i.opts.ReadLimit {
			return nil
		}
	}
}
