package state

import (
	"context"
	"sync"
)

// Stream is the read side of a Subject
type Stream[T any] interface {
	Value() T
	Subscribe() *Subscription[T]
	SubscribeContext(ctx context.Context) *Subscription[T]
}

// Subject holds a current value and pushes every distinct change to its
// subscribers. Publishing never blocks: a slow subscriber only ever sees the
// latest value.
type Subject[T any] struct {
	mu    sync.Mutex
	value T
	equal func(a, b T) bool
	subs  map[*Subscription[T]]struct{}
}

// NewSubject creates a subject holding initial. equal decides whether a new
// value is a change worth emitting; nil means every Set emits.
func NewSubject[T any](initial T, equal func(a, b T) bool) *Subject[T] {
	return &Subject[T]{
		value: initial,
		equal: equal,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Value returns the current value
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set always replaces the current value. Subscribers are notified only when
// the value differs from the previous one under the equality function; Set
// reports whether they were.
func (s *Subject[T]) Set(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.equal == nil || !s.equal(s.value, v)
	s.value = v
	if !changed {
		return false
	}
	for sub := range s.subs {
		sub.offer(v)
	}
	return true
}

// Subscribe returns a subscription that immediately receives the current value
func (s *Subject[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		ch:      make(chan T, 1),
		closed:  make(chan struct{}),
		subject: s,
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	sub.offer(s.value)
	s.mu.Unlock()

	return sub
}

// SubscribeContext is Subscribe bound to ctx: the subscription closes when ctx is done
func (s *Subject[T]) SubscribeContext(ctx context.Context) *Subscription[T] {
	sub := s.Subscribe()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closed:
		}
	}()
	return sub
}

// Subscribers returns the number of open subscriptions
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Subject[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.ch)
	}
}

// Subscription receives the values of a Subject
type Subscription[T any] struct {
	ch      chan T
	subject *Subject[T]

	once   sync.Once
	closed chan struct{}
}

// C returns the channel of values. It is closed by Close.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close stops delivery and closes C. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.subject.remove(s)
		close(s.closed)
	})
}

// offer replaces any undelivered value with v. Called with the subject lock held.
func (s *Subscription[T]) offer(v T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}
