package flow

import (
	"context"

	"github.com/joeycumines/asyncrt/internal/xlog"
)

// Stage is a single Pipeable transform that preserves the element type
// (spec §4.9 Pipeable<T,T>): filter, peek, skipUntil, takeWhile, and
// resumeOnError all fit this shape. Type-changing stages (map, compose,
// chunk) are modeled as free functions over Generator instead, since Go's
// type system (unlike the original's dynamically typed generators) can't
// hold heterogeneously-typed stages in one homogeneous slice.
type Stage[T any] func(Generator[T]) Generator[T]

// Processor is an ordered, immutable sequence of same-type stages (spec
// §4.9/§4.10: "pure data with respect to the input chain"). Builder
// methods return a new Processor with an appended stage so sharing the
// original is always safe.
type Processor[T any] struct {
	stages []Stage[T]
}

// NewProcessor returns an empty Processor.
func NewProcessor[T any]() *Processor[T] {
	return &Processor[T]{}
}

func (p *Processor[T]) appended(s Stage[T]) *Processor[T] {
	next := make([]Stage[T], len(p.stages), len(p.stages)+1)
	copy(next, p.stages)
	next = append(next, s)
	return &Processor[T]{stages: next}
}

// Apply composes every stage, in order, over src.
func (p *Processor[T]) Apply(src Generator[T]) Generator[T] {
	g := src
	for _, s := range p.stages {
		g = s(g)
	}
	return g
}

// Filter emits values for which pred is true, pulling the next upstream
// value otherwise (spec §4.9 filter).
func (p *Processor[T]) Filter(pred func(T) bool) *Processor[T] {
	return p.appended(func(upstream Generator[T]) Generator[T] {
		return &FuncGenerator[T]{
			NextFunc: func(ctx context.Context) (T, bool, error) {
				for {
					v, ok, err := upstream.Next(ctx)
					if !ok || err != nil {
						return v, ok, err
					}
					if pred(v) {
						return v, true, nil
					}
				}
			},
			ReturnFunc: func(cause error) error { return returnDefensively(upstream, cause) },
		}
	})
}

// Peek applies fn as a side effect then emits the value unchanged (spec
// §4.9 peek).
func (p *Processor[T]) Peek(fn func(T)) *Processor[T] {
	return p.appended(func(upstream Generator[T]) Generator[T] {
		return &FuncGenerator[T]{
			NextFunc: func(ctx context.Context) (T, bool, error) {
				v, ok, err := upstream.Next(ctx)
				if ok {
					fn(v)
				}
				return v, ok, err
			},
			ReturnFunc: func(cause error) error { return returnDefensively(upstream, cause) },
		}
	})
}

// SkipUntil swallows values until pred is true, then emits that value and
// every value after (spec §4.9 skipUntil).
func (p *Processor[T]) SkipUntil(pred func(T) bool) *Processor[T] {
	return p.appended(func(upstream Generator[T]) Generator[T] {
		skipping := true
		return &FuncGenerator[T]{
			NextFunc: func(ctx context.Context) (T, bool, error) {
				for {
					v, ok, err := upstream.Next(ctx)
					if !ok || err != nil {
						return v, ok, err
					}
					if skipping {
						if !pred(v) {
							continue
						}
						skipping = false
					}
					return v, true, nil
				}
			},
			ReturnFunc: func(cause error) error { return returnDefensively(upstream, cause) },
		}
	})
}

// TakeWhile emits while pred is true, terminating the stream on the first
// false (spec §4.9 takeWhile).
func (p *Processor[T]) TakeWhile(pred func(T) bool) *Processor[T] {
	return p.appended(func(upstream Generator[T]) Generator[T] {
		stopped := false
		return &FuncGenerator[T]{
			NextFunc: func(ctx context.Context) (T, bool, error) {
				var zero T
				if stopped {
					return zero, false, nil
				}
				v, ok, err := upstream.Next(ctx)
				if !ok || err != nil {
					return v, ok, err
				}
				if !pred(v) {
					stopped = true
					_ = returnDefensively(upstream, nil)
					return zero, false, nil
				}
				return v, true, nil
			},
			ReturnFunc: func(cause error) error { return returnDefensively(upstream, cause) },
		}
	})
}

// ResumeOnError wraps upstream so thrown errors either abort (if onError
// returns false) or are swallowed and the stream treated as ended
// (default: swallow all, per spec §4.9 resumeOnError).
func (p *Processor[T]) ResumeOnError(onError func(error) bool) *Processor[T] {
	if onError == nil {
		onError = func(error) bool { return true }
	}
	return p.appended(func(upstream Generator[T]) Generator[T] {
		return &FuncGenerator[T]{
			NextFunc: func(ctx context.Context) (T, bool, error) {
				v, ok, err := upstream.Next(ctx)
				if err != nil {
					if !onError(err) {
						return v, ok, err
					}
					var zero T
					return zero, false, nil
				}
				return v, ok, nil
			},
			ReturnFunc: func(cause error) error { return returnDefensively(upstream, cause) },
		}
	})
}

// returnDefensively calls upstream.Return, swallowing and logging any error
// it raises (spec §4.9 "stages call upstream's return(undefined)
// defensively, swallowing any error from that call after logging").
func returnDefensively(upstream interface{ Return(error) error }, cause error) error {
	if err := upstream.Return(cause); err != nil {
		xlog.Get().Debug("flow: upstream Return failed", "error", err)
	}
	return nil
}

// Map emits mapper(v, index) for each upstream value (spec §4.9 map). A
// free function rather than a Processor builder method since it changes
// the element type.
func Map[T, R any](src Generator[T], mapper func(T, int) R) Generator[R] {
	index := 0
	return &FuncGenerator[R]{
		NextFunc: func(ctx context.Context) (R, bool, error) {
			var zero R
			v, ok, err := src.Next(ctx)
			if !ok || err != nil {
				return zero, ok, err
			}
			r := mapper(v, index)
			index++
			return r, true, nil
		},
		ReturnFunc: func(cause error) error { return returnDefensively(src, cause) },
	}
}

// Compose flattens a sub-generator of R per input value (spec §4.9
// compose / fromMulti).
func Compose[T, R any](src Generator[T], expand func(T) Generator[R]) Generator[R] {
	var current Generator[R]
	return &FuncGenerator[R]{
		NextFunc: func(ctx context.Context) (R, bool, error) {
			var zero R
			for {
				if current != nil {
					v, ok, err := current.Next(ctx)
					if err != nil {
						return zero, false, err
					}
					if ok {
						return v, true, nil
					}
					_ = returnDefensively(current, nil)
					current = nil
				}
				v, ok, err := src.Next(ctx)
				if err != nil {
					return zero, false, err
				}
				if !ok {
					return zero, false, nil
				}
				current = expand(v)
			}
		},
		ReturnFunc: func(cause error) error {
			if current != nil {
				_ = returnDefensively(current, cause)
			}
			return returnDefensively(src, cause)
		},
	}
}

// Chunk accumulates size items then emits the accumulated slice, flushing
// any remainder once upstream is exhausted (spec §4.9 chunk, a.k.a.
// buffer). Panics if size < 1.
func Chunk[T any](src Generator[T], size int) Generator[[]T] {
	if size < 1 {
		panic("flow: Chunk: size must be >= 1")
	}
	done := false
	return &FuncGenerator[[]T]{
		NextFunc: func(ctx context.Context) ([]T, bool, error) {
			if done {
				return nil, false, nil
			}
			buf := make([]T, 0, size)
			for len(buf) < size {
				v, ok, err := src.Next(ctx)
				if err != nil {
					return nil, false, err
				}
				if !ok {
					done = true
					if len(buf) == 0 {
						return nil, false, nil
					}
					return buf, true, nil
				}
				buf = append(buf, v)
			}
			return buf, true, nil
		},
		ReturnFunc: func(cause error) error {
			done = true
			return returnDefensively(src, cause)
		},
	}
}
