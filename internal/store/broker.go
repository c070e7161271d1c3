package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dpppa-bjm/pengaduan/internal/models"
)

// Publisher forwards change notices beyond this process.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Broker fans collection-changed notices out to standing subscriptions. Each
// subscription reloads its query in full on every notice; bursts of notices
// coalesce into one reload.
type Broker struct {
	mu        sync.Mutex
	subs      map[*subscription]struct{}
	publisher Publisher
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*subscription]struct{})}
}

func (b *Broker) SetPublisher(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publisher = p
}

// Notify wakes local subscriptions and forwards the notice to the publisher.
func (b *Broker) Notify(ctx context.Context) {
	b.NotifyLocal()

	b.mu.Lock()
	p := b.publisher
	b.mu.Unlock()
	if p != nil {
		if err := p.Publish(ctx); err != nil {
			slog.Warn("change notice publish failed", "error", err)
		}
	}
}

func (b *Broker) NotifyLocal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type loadFunc func(ctx context.Context) ([]models.Report, error)

// Watch registers a subscription, delivers the initial snapshot synchronously
// and starts the reload loop. A failed initial load returns the error and
// leaves nothing registered.
func (b *Broker) Watch(ctx context.Context, load loadFunc, fn func([]models.Report)) (Subscription, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &subscription{
		broker: b,
		wake:   make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	initial, err := load(ctx)
	if err != nil {
		b.remove(s)
		cancel()
		return nil, err
	}
	fn(initial)

	go s.loop(subCtx, load, fn)
	return s, nil
}

func (b *Broker) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

type subscription struct {
	broker *Broker
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) loop(ctx context.Context, load loadFunc, fn func([]models.Report)) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		snapshot, err := load(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("subscription reload failed", "error", err)
			continue
		}
		fn(snapshot)
	}
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		s.cancel()
		<-s.done
	})
}
