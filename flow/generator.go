// Package flow implements the reactive pipeline (spec §4.9/§4.10): Pipeable
// stages over an AsyncGenerator-like contract, FlowProcessor/FlowPublisher,
// and their terminal operators. Adapted from the teacher's
// eventloop/ingress.go "pull driven by a generator function" shape and
// eventloop/eventtarget.go's listener/dispatch idiom (grounding fromEvent),
// generalized with Go generics in place of the original's dynamically
// typed async generators.
package flow

import (
	"context"

	"github.com/joeycumines/asyncrt/cancel"
)

// Generator is this module's poll contract standing in for a JS
// AsyncGenerator: Next pulls the next value (ok=false at end of stream,
// with a possibly-nil error); Return releases upstream resources and is
// idempotent (spec §4.9 "stages call upstream's return(undefined)
// defensively").
type Generator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Return(cause error) error
}

// FuncGenerator adapts a plain next function into a Generator, with Return
// a no-op unless ReturnFunc is set. Most of this package's stages are built
// on FuncGenerator.
type FuncGenerator[T any] struct {
	NextFunc   func(ctx context.Context) (T, bool, error)
	ReturnFunc func(cause error) error
}

func (g *FuncGenerator[T]) Next(ctx context.Context) (T, bool, error) {
	return g.NextFunc(ctx)
}

func (g *FuncGenerator[T]) Return(cause error) error {
	if g.ReturnFunc == nil {
		return nil
	}
	return g.ReturnFunc(cause)
}

// FromSlice builds a Generator that yields each element of items in order.
func FromSlice[T any](items []T) Generator[T] {
	i := 0
	done := false
	return &FuncGenerator[T]{
		NextFunc: func(ctx context.Context) (T, bool, error) {
			var zero T
			if done || i >= len(items) {
				return zero, false, nil
			}
			v := items[i]
			i++
			return v, true, nil
		},
		ReturnFunc: func(cause error) error {
			done = true
			return nil
		},
	}
}

// Single builds a Generator yielding exactly one value.
func Single[T any](v T) Generator[T] {
	return FromSlice([]T{v})
}

// Concat builds a Generator that drains each source in order, calling
// Return on each as it finishes (defensively, per spec §4.9 termination
// semantics).
func Concat[T any](sources ...Generator[T]) Generator[T] {
	i := 0
	return &FuncGenerator[T]{
		NextFunc: func(ctx context.Context) (T, bool, error) {
			var zero T
			for i < len(sources) {
				v, ok, err := sources[i].Next(ctx)
				if err != nil {
					return zero, false, err
				}
				if ok {
					return v, true, nil
				}
				_ = sources[i].Return(nil)
				i++
			}
			return zero, false, nil
		},
		ReturnFunc: func(cause error) error {
			for ; i < len(sources); i++ {
				_ = sources[i].Return(cause)
			}
			return nil
		},
	}
}

// FromGenerator returns factory unchanged, as a source that builds a fresh
// Generator per call (spec: "every terminal builds a fresh pipeline...
// restartable"); FromGeneratorFactory wraps such a factory in a Publisher.
func FromGenerator[T any](factory func() Generator[T]) func() Generator[T] {
	return factory
}

// Cancellable wraps inner with cancellation racing, per spec
// §4.1 cancellableIterable: each Next races the underlying Next against
// token firing; if the token fires, inner.Return is invoked with the
// cancellation error to release resources; silent-vs-throw is controlled exactly as
// cancel.Cancellable already implements for the Iterator[T] contract this
// Generator type mirrors.
func Cancellable[T any](inner Generator[T], token *cancel.Token, opts cancel.IterableOptions) Generator[T] {
	wrapped := cancel.Cancellable[T](adaptToIterator[T]{inner}, token, opts)
	return &FuncGenerator[T]{
		NextFunc: wrapped.Next,
		ReturnFunc: func(cause error) error {
			return wrapped.Return(cause)
		},
	}
}

// adaptToIterator bridges flow.Generator to cancel.Iterator, which share
// an identical method set but are kept as distinct named types so each
// package can evolve its contract independently.
type adaptToIterator[T any] struct {
	g Generator[T]
}

func (a adaptToIterator[T]) Next(ctx context.Context) (T, bool, error) { return a.g.Next(ctx) }
func (a adaptToIterator[T]) Return(cause error) error                  { return a.g.Return(cause) }
