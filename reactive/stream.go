//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

package reactive

import "context"

// Result carries either an emitted value or a terminal error. At most one of
// the two is meaningful; Err is non-nil only for the final item of a failed
// sequence.
type Result[T any] struct {
	Value T
	Err   error
}

// Single is a lazily-executed source that emits exactly one value or a
// terminal error. Nothing runs until Subscribe is called, and every
// subscription executes the underlying request independently.
type Single[T any] struct {
	run func(ctx context.Context) (T, error)
}

func newSingle[T any](run func(ctx context.Context) (T, error)) *Single[T] {
	return &Single[T]{run: run}
}

// Subscribe starts the work and returns an unbuffered channel that delivers
// the single result and is then closed. Cancelling ctx aborts in-flight work
// best-effort and releases the channel without a result.
func (s *Single[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T])
	go func() {
		defer close(out)
		value, err := s.run(ctx)
		select {
		case out <- Result[T]{Value: value, Err: err}:
		case <-ctx.Done():
		}
	}()
	return out
}

// Block subscribes and waits for the result. It is a convenience for callers
// that want blocking semantics at a single call site.
func (s *Single[T]) Block(ctx context.Context) (T, error) {
	for r := range s.Subscribe(ctx) {
		return r.Value, r.Err
	}
	var zero T
	return zero, ctx.Err()
}

// Stream is a lazily-executed source that emits zero or more values followed
// by completion or a terminal error. Demand is consumer-paced: emission blocks
// until the subscriber receives, and cancelling the subscription context stops
// the sequence and aborts in-flight work best-effort. A Stream performs no
// background pagination; it emits only what the bound request returned.
type Stream[T any] struct {
	run func(ctx context.Context, emit func(T) bool) error
}

func newStream[T any](run func(ctx context.Context, emit func(T) bool) error) *Stream[T] {
	return &Stream[T]{run: run}
}

// Subscribe starts the work and returns an unbuffered channel delivering each
// value in order. On failure the terminal error is delivered as the last item;
// in every case the channel is closed afterwards.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T])
	go func() {
		defer close(out)
		emit := func(v T) bool {
			select {
			case out <- Result[T]{Value: v}:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if err := s.run(ctx, emit); err != nil {
			select {
			case out <- Result[T]{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

// Collect subscribes and drains the stream into a slice, returning the
// terminal error if the sequence failed.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var values []T
	for r := range s.Subscribe(ctx) {
		if r.Err != nil {
			return values, r.Err
		}
		values = append(values, r.Value)
	}
	if err := ctx.Err(); err != nil {
		return values, err
	}
	return values, nil
}
