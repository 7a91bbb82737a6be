package chatclient

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// DefaultPollInterval is how often the badges are refreshed without a
// trigger.
const DefaultPollInterval = 30 * time.Second

// UnreadAPI is the part of *APIClient the aggregator polls.
type UnreadAPI interface {
	Notifications(ctx context.Context) ([]Notification, error)
	Conversations(ctx context.Context) ([]Conversation, error)
}

// Counts is one snapshot of the header badges.
type Counts struct {
	Notifications int
	Conversations int
	Favorites     int
}

// Aggregator keeps the unread badge counts current.
//
// A 401 from either fetch resets that counter to 0. Any other failure keeps
// the previous value of both server counters for that round.
type Aggregator struct {
	api      UnreadAPI
	favs     *Favorites
	interval time.Duration
	refresh  chan struct{}

	mu     sync.Mutex
	counts Counts
	subs   []chan Counts
}

// NewAggregator polls api every interval. favs may be nil.
func NewAggregator(api UnreadAPI, favs *Favorites, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	a := &Aggregator{api: api, favs: favs, interval: interval, refresh: make(chan struct{}, 1)}
	if favs != nil {
		a.counts.Favorites = favs.Count()
	}
	return a
}

// Run polls until ctx is done. It refreshes once on start, on every tick,
// on Refresh and on favorites updates.
func (a *Aggregator) Run(ctx context.Context) {
	t := time.NewTicker(a.interval)
	defer t.Stop()
	var favUpdates <-chan struct{}
	if a.favs != nil {
		favUpdates = a.favs.Updates()
	}
	a.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.Poll(ctx)
		case <-a.refresh:
			a.Poll(ctx)
		case <-favUpdates:
			a.update(func(c *Counts) { c.Favorites = a.favs.Count() })
		}
	}
}

// Refresh asks Run for an immediate poll, e.g. after navigation.
func (a *Aggregator) Refresh() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

// Poll fetches both lists once and applies the results.
func (a *Aggregator) Poll(ctx context.Context) {
	notifs, nErr := a.api.Notifications(ctx)
	convs, cErr := a.api.Conversations(ctx)

	a.update(func(c *Counts) {
		transient := (nErr != nil && !errors.Is(nErr, ErrUnauthorized)) ||
			(cErr != nil && !errors.Is(cErr, ErrUnauthorized))
		switch {
		case errors.Is(nErr, ErrUnauthorized):
			c.Notifications = 0
		case nErr == nil && !transient:
			c.Notifications = countUnreadNotifications(notifs)
		}
		switch {
		case errors.Is(cErr, ErrUnauthorized):
			c.Conversations = 0
		case cErr == nil && !transient:
			c.Conversations = countUnreadConversations(convs)
		}
		if a.favs != nil {
			c.Favorites = a.favs.Count()
		}
	})
	for _, err := range []error{nErr, cErr} {
		if err != nil && !errors.Is(err, ErrUnauthorized) {
			jww.WARN.Printf("unread: poll failed, keeping previous counts: %v", err)
		}
	}
}

func (a *Aggregator) update(fn func(c *Counts)) {
	a.mu.Lock()
	prev := a.counts
	fn(&a.counts)
	cur := a.counts
	subs := append([]chan Counts(nil), a.subs...)
	a.mu.Unlock()
	if cur == prev {
		return
	}
	for _, ch := range subs {
		// keep only the latest snapshot for slow readers
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cur:
		default:
		}
	}
}

func (a *Aggregator) Counts() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}

// Subscribe returns a channel that receives every changed snapshot.
func (a *Aggregator) Subscribe() <-chan Counts {
	ch := make(chan Counts, 1)
	a.mu.Lock()
	a.subs = append(a.subs, ch)
	a.mu.Unlock()
	return ch
}

func countUnreadNotifications(list []Notification) int {
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n
}

func countUnreadConversations(list []Conversation) int {
	n := 0
	for _, x := range list {
		if x.HasUnread {
			n++
		}
	}
	return n
}
