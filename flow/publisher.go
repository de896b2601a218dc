package flow

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/joeycumines/asyncrt/asyncqueue"
	"github.com/joeycumines/asyncrt/cancel"
	"github.com/joeycumines/asyncrt/maybe"
	"github.com/joeycumines/asyncrt/ringbuffer"
)

// Publisher is a restartable source composed with a processor chain (spec
// §4.10 FlowPublisher): it closes over a source generator factory plus a
// Processor, and every terminal call builds a fresh generator instance.
type Publisher[T any] struct {
	source func() Generator[T]
	proc   *Processor[T]
}

// Of builds a Publisher over a fixed, in-memory sequence of items (spec
// §4.10 of(iterableLike)).
func Of[T any](items ...T) *Publisher[T] {
	return &Publisher[T]{
		source: func() Generator[T] { return FromSlice(items) },
		proc:   NewProcessor[T](),
	}
}

// SinglePublisher builds a Publisher yielding exactly one value (spec
// §4.10 single(value)).
func SinglePublisher[T any](v T) *Publisher[T] {
	return Of(v)
}

// ConcatPublishers builds a Publisher draining each of the given publishers
// in order (spec §4.10 concat(...publishers)).
func ConcatPublishers[T any](publishers ...*Publisher[T]) *Publisher[T] {
	return &Publisher[T]{
		source: func() Generator[T] {
			sources := make([]Generator[T], len(publishers))
			for i, p := range publishers {
				sources[i] = p.buildRaw()
			}
			return Concat(sources...)
		},
		proc: NewProcessor[T](),
	}
}

// FromGeneratorFactory builds a Publisher directly from a generator factory
// (spec §4.10 fromGenerator(factory)).
func FromGeneratorFactory[T any](factory func() Generator[T]) *Publisher[T] {
	return &Publisher[T]{source: factory, proc: NewProcessor[T]()}
}

// ObservableBufferOptions configures FromObservablePublisher (spec §4.10
// fromObservable bufferOpts).
type ObservableBufferOptions struct {
	// BufferSize caps the backing AsyncQueue; <= 0 means unbounded.
	BufferSize int
	// BufferStrategy is the overflow policy applied when BufferSize > 0.
	BufferStrategy ringbuffer.Policy
}

// FromObservablePublisher bridges a push-based Observable into a Publisher
// (spec §4.10 fromObservable): an AsyncQueue absorbs next/error/complete
// notifications, and iteration drains that queue until the observable
// disposes or cancellation fires.
func FromObservablePublisher[T any](obs Observable[T], opts ObservableBufferOptions) *Publisher[T] {
	return &Publisher[T]{
		proc: NewProcessor[T](),
		source: func() Generator[T] {
			q := asyncqueue.New[T](opts.BufferSize, opts.BufferStrategy)
			var subscribeErr error
			sub := obs.Subscribe(&funcObserver[T]{
				next: func(v T) {
					if err := q.Enqueue(v); err != nil {
						subscribeErr = err
						q.Close()
					}
				},
				err: func(e error) {
					subscribeErr = e
					q.Close()
				},
				complete: func() {
					q.SetReadOnly()
				},
			})
			return &FuncGenerator[T]{
				NextFunc: func(ctx context.Context) (T, bool, error) {
					v, err := q.Dequeue(ctx)
					if err != nil {
						if subscribeErr != nil {
							var zero T
							return zero, false, subscribeErr
						}
						var zero T
						return zero, false, nil
					}
					return v, true, nil
				},
				ReturnFunc: func(cause error) error {
					sub.Unsubscribe()
					return nil
				},
			}
		},
	}
}

func (p *Publisher[T]) withProcessor(proc *Processor[T]) *Publisher[T] {
	return &Publisher[T]{source: p.source, proc: proc}
}

// Filter appends a filter stage (spec §4.9 filter).
func (p *Publisher[T]) Filter(pred func(T) bool) *Publisher[T] {
	return p.withProcessor(p.proc.Filter(pred))
}

// Peek appends a peek stage (spec §4.9 peek).
func (p *Publisher[T]) Peek(fn func(T)) *Publisher[T] {
	return p.withProcessor(p.proc.Peek(fn))
}

// SkipUntil appends a skipUntil stage (spec §4.9 skipUntil).
func (p *Publisher[T]) SkipUntil(pred func(T) bool) *Publisher[T] {
	return p.withProcessor(p.proc.SkipUntil(pred))
}

// TakeWhile appends a takeWhile stage (spec §4.9 takeWhile).
func (p *Publisher[T]) TakeWhile(pred func(T) bool) *Publisher[T] {
	return p.withProcessor(p.proc.TakeWhile(pred))
}

// ResumeOnError appends a resumeOnError stage (spec §4.9 resumeOnError).
func (p *Publisher[T]) ResumeOnError(onError func(error) bool) *Publisher[T] {
	return p.withProcessor(p.proc.ResumeOnError(onError))
}

// buildRaw composes the processor over a fresh source generator instance,
// without any cancellation wrapping - used internally by terminals and by
// combinators like ConcatPublishers that need to nest a Publisher's output
// inside another Generator.
func (p *Publisher[T]) buildRaw() Generator[T] {
	return p.proc.Apply(p.source())
}

// ToIterable builds a fresh, cancellable generator instance for this
// publisher (spec §4.10 toIterable).
func (p *Publisher[T]) ToIterable(token *cancel.Token, opts cancel.IterableOptions) Generator[T] {
	return Cancellable(p.buildRaw(), token, opts)
}

// ToArray fully drains the stream into a slice (spec §4.10 toArray;
// defaults ThrowOnCancellation to true).
func (p *Publisher[T]) ToArray(ctx context.Context, token *cancel.Token) ([]T, error) {
	g := p.ToIterable(token, cancel.IterableOptions{ThrowOnCancellation: true})
	var out []T
	for {
		v, ok, err := g.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// ForEach drains the stream invoking cb per item (spec §4.10 forEach;
// defaults ThrowOnCancellation to true).
func (p *Publisher[T]) ForEach(ctx context.Context, token *cancel.Token, cb func(T)) error {
	g := p.ToIterable(token, cancel.IterableOptions{ThrowOnCancellation: true})
	for {
		v, ok, err := g.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cb(v)
	}
}

// SelectFirst pulls one value then closes the generator (spec §4.10
// selectFirst). Returns maybe.None if the stream was empty.
func (p *Publisher[T]) SelectFirst(ctx context.Context, token *cancel.Token) (maybe.Maybe[T], error) {
	g := p.ToIterable(token, cancel.IterableOptions{})
	defer func() { _ = g.Return(nil) }()
	v, ok, err := g.Next(ctx)
	if err != nil {
		return maybe.None[T](), err
	}
	if !ok {
		return maybe.None[T](), nil
	}
	return maybe.Of(v), nil
}

// SelectLast drains the stream retaining only the last value (spec §4.10
// selectLast).
func (p *Publisher[T]) SelectLast(ctx context.Context, token *cancel.Token) (maybe.Maybe[T], error) {
	g := p.ToIterable(token, cancel.IterableOptions{})
	last := maybe.None[T]()
	for {
		v, ok, err := g.Next(ctx)
		if err != nil {
			return last, err
		}
		if !ok {
			return last, nil
		}
		last = maybe.Of(v)
	}
}

// ToObservable is a push-based bridge: draining the stream asynchronously,
// emitting next per item and exactly one complete/error (spec §4.10
// toObservable).
func (p *Publisher[T]) ToObservable(token *cancel.Token) Observable[T] {
	return &publisherObservable[T]{pub: p, token: token}
}

type publisherObservable[T any] struct {
	pub   *Publisher[T]
	token *cancel.Token
}

func (o *publisherObservable[T]) Subscribe(observer Observer[T]) Subscription {
	ctx := context.Background()
	g := o.pub.ToIterable(o.token, cancel.IterableOptions{})
	var cancelled atomic.Bool

	go func() {
		for {
			if cancelled.Load() {
				return
			}
			v, ok, err := g.Next(ctx)
			if err != nil {
				if cancelled.Load() {
					return
				}
				observer.OnError(err)
				return
			}
			if !ok {
				observer.OnComplete()
				return
			}
			observer.OnNext(v)
		}
	}()

	return &subscriptionFunc{
		id: uuid.New(),
		unsubscribe: func() {
			cancelled.Store(true)
			_ = g.Return(nil)
		},
	}
}

// subscriptionFunc is the concrete Subscription returned by
// publisherObservable.Subscribe. ID gives each live subscription a stable
// handle for logging/diagnostics, distinct from any value flowing through
// it.
type subscriptionFunc struct {
	id          uuid.UUID
	unsubscribe func()
}

func (s *subscriptionFunc) Unsubscribe() { s.unsubscribe() }

// ID returns this subscription's synthetic identifier.
func (s *subscriptionFunc) ID() uuid.UUID { return s.id }
