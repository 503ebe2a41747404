/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("poller already started")

// FetchFunc performs one poll. seq is the tick's sequence number.
type FetchFunc[T any] func(ctx context.Context, seq uint64) (T, error)

// Config contains configuration for Poller
type Config[T any] struct {
	Name     string
	Interval time.Duration
	Fetch    FetchFunc[T]
	// OnResult receives results in sequence order; results older than one
	// already delivered are dropped. Callbacks must not call Stop.
	OnResult func(seq uint64, result T)
	OnError  func(seq uint64, err error)
}

// Poller runs Fetch on a fixed interval until its context is cancelled or
// Stop is called. Ticks are not skipped while a fetch is slow, so fetches may
// overlap; each carries a sequence number and stale completions are discarded.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	onResult func(uint64, T)
	onError  func(uint64, error)

	mu        sync.Mutex
	seq       uint64
	delivered uint64
	started   bool
	cancel    context.CancelFunc

	inflight sync.WaitGroup
	pokeChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func New[T any](cfg Config[T]) (*Poller[T], error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", cfg.Interval)
	}
	if cfg.Fetch == nil {
		return nil, fmt.Errorf("fetch function is required")
	}
	return &Poller[T]{
		name:     cfg.Name,
		interval: cfg.Interval,
		fetch:    cfg.Fetch,
		onResult: cfg.OnResult,
		onError:  cfg.OnError,
		pokeChan: make(chan struct{}, 1),
		doneChan: make(chan struct{}),
	}, nil
}

// Start polls once immediately and then on every interval. The poller
// stops when ctx is cancelled.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	go p.pollLoop(ctx)

	zap.L().Info("Poller started",
		zap.String("poller", p.name),
		zap.Duration("interval", p.interval))
	return nil
}

// Stop cancels the loop and any in-flight fetch and waits for them to exit.
// Safe to call more than once and before Start.
func (p *Poller[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		cancel, started := p.cancel, p.started
		p.started = true
		p.mu.Unlock()

		if !started {
			close(p.doneChan)
			return
		}
		cancel()
		<-p.doneChan
		zap.L().Info("Poller stopped", zap.String("poller", p.name))
	})
}

// Done is closed once the poller has fully stopped
func (p *Poller[T]) Done() <-chan struct{} {
	return p.doneChan
}

// Poke requests an extra poll without waiting for the next tick
func (p *Poller[T]) Poke() {
	select {
	case p.pokeChan <- struct{}{}:
	default:
	}
}

func (p *Poller[T]) pollLoop(ctx context.Context) {
	defer close(p.doneChan)
	defer p.inflight.Wait()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-p.pokeChan:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller[T]) tick(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()

		result, err := p.fetch(ctx, seq)
		if ctx.Err() != nil {
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()

		if seq <= p.delivered {
			zap.L().Debug("Discarding stale poll result",
				zap.String("poller", p.name),
				zap.Uint64("seq", seq),
				zap.Uint64("delivered", p.delivered))
			return
		}

		if err != nil {
			zap.L().Warn("Poll failed",
				zap.String("poller", p.name),
				zap.Uint64("seq", seq),
				zap.Error(err))
			if p.onError != nil {
				p.onError(seq, err)
			}
			return
		}

		p.delivered = seq
		if p.onResult != nil {
			p.onResult(seq, result)
		}
	}()
}
