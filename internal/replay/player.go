package replay

import (
	"context"
	"sync"
	"time"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// Player steps through a generated replay with pacing. Pausing stops the
// advance without losing position; a step already being emitted always
// completes before the pause takes effect.
type Player struct {
	mu     sync.Mutex
	states []model.ReplaySnapshot
	cfg    model.ReplayConfig
	next   int
	paused bool
	resume chan struct{}
}

// NewPlayer builds a player positioned before the first snapshot.
func NewPlayer(r model.Replay) *Player {
	return &Player{states: r.States, cfg: r.Config}
}

// Next returns the next snapshot and advances, or false when done.
func (p *Player) Next() (model.ReplaySnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.states) {
		return model.ReplaySnapshot{}, false
	}
	snap := p.states[p.next]
	p.next++
	return snap, true
}

// Position reports the index of the next unplayed snapshot.
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// Pause stops Run from advancing past the step currently in flight.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.resume = make(chan struct{})
}

// Resume continues from the exact next unplayed snapshot.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	close(p.resume)
	p.resume = nil
}

// Reset rewinds to the beginning.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = 0
}

// Run plays the remaining snapshots through emit, honoring the configured
// delay between steps and any Pause/Resume calls. Returns nil when the
// sequence is exhausted, or the context error on cancellation.
func (p *Player) Run(ctx context.Context, emit func(model.ReplaySnapshot)) error {
	delay := time.Duration(p.cfg.DelayMs) * time.Millisecond
	for {
		if err := p.waitWhilePaused(ctx); err != nil {
			return err
		}
		snap, ok := p.Next()
		if !ok {
			return nil
		}
		emit(snap)

		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Player) waitWhilePaused(ctx context.Context) error {
	for {
		p.mu.Lock()
		paused := p.paused
		resume := p.resume
		p.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resume:
		}
	}
}
