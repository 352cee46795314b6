package app

import (
	"sync"
	"time"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

// RateConfig is the per-session message budget.
type RateConfig struct {
	Window    time.Duration
	General   int
	Chat      int
	Reactions int
}

// bucket keeps the send times inside the sliding window.
type bucket struct {
	limit int
	times []time.Time
}

func (b *bucket) prune(cutoff time.Time) {
	recent := b.times[:0]
	for _, t := range b.times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	b.times = recent
}

// RateLimiter enforces sliding-window budgets for one session. Chat
// and reactions each have a tighter budget on top of the general one;
// a frame must fit every bucket it belongs to before any is charged.
// Relays and ping are exempt: throttling mid-handshake would strand
// the peers.
type RateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	general   bucket
	chat      bucket
	reactions bucket
}

func NewRateLimiter(cfg RateConfig) *RateLimiter {
	return &RateLimiter{
		window:    cfg.Window,
		general:   bucket{limit: cfg.General},
		chat:      bucket{limit: cfg.Chat},
		reactions: bucket{limit: cfg.Reactions},
	}
}

// Allow reports whether the frame fits the budget and records it.
func (l *RateLimiter) Allow(kind string, now time.Time) bool {
	switch kind {
	case protocol.KindSendingSignal, protocol.KindReturningSignal, protocol.KindPing:
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	buckets := []*bucket{&l.general}
	switch kind {
	case protocol.KindSendMessage:
		buckets = append(buckets, &l.chat)
	case protocol.KindSendReaction:
		buckets = append(buckets, &l.reactions)
	}

	cutoff := now.Add(-l.window)
	for _, b := range buckets {
		b.prune(cutoff)
		if len(b.times) >= b.limit {
			return false
		}
	}
	for _, b := range buckets {
		b.times = append(b.times, now)
	}
	return true
}
