package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

var ErrNoSubscriber = errors.New("no subscriber")

// Local delivers events in-process on a fresh goroutine. Events published
// before Subscribe are dropped.
type Local struct {
	mu      sync.RWMutex
	handler Handler
	wg      sync.WaitGroup
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Subscribe(_ context.Context, h Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
	return nil
}

// Publish does not block on the handler. The request context is not passed
// on, since it ends with the response.
func (l *Local) Publish(_ context.Context, ev MessageCreated) error {
	l.mu.RLock()
	h := l.handler
	l.mu.RUnlock()
	if h == nil {
		return ErrNoSubscriber
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h(ctx, ev); err != nil {
			jww.WARN.Printf("events: handling %s failed: %+v", ev.MessageID, err)
		}
	}()
	return nil
}

// Close waits for in-flight handlers.
func (l *Local) Close() {
	l.wg.Wait()
}
