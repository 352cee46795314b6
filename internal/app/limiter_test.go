package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/protocol"
)

func testRate() RateConfig {
	return RateConfig{Window: 10 * time.Second, General: 30, Chat: 10, Reactions: 20}
}

func TestRateLimiterGeneralBudget(t *testing.T) {
	l := NewRateLimiter(testRate())
	now := time.Unix(1700000000, 0)

	for i := 0; i < 30; i++ {
		assert.True(t, l.Allow(protocol.KindRaiseHand, now), "frame %d", i)
	}
	assert.False(t, l.Allow(protocol.KindRaiseHand, now))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	l := NewRateLimiter(testRate())
	now := time.Unix(1700000000, 0)

	for i := 0; i < 30; i++ {
		l.Allow(protocol.KindRaiseHand, now)
	}
	assert.False(t, l.Allow(protocol.KindRaiseHand, now))
	assert.True(t, l.Allow(protocol.KindRaiseHand, now.Add(11*time.Second)))
}

func TestRateLimiterChatBudgetIsTighter(t *testing.T) {
	l := NewRateLimiter(RateConfig{Window: 10 * time.Second, General: 5, Chat: 2, Reactions: 2})
	now := time.Unix(1700000000, 0)

	assert.True(t, l.Allow(protocol.KindSendMessage, now))
	assert.True(t, l.Allow(protocol.KindSendMessage, now))
	assert.False(t, l.Allow(protocol.KindSendMessage, now))

	// The denied chat frame must not have charged the general bucket:
	// exactly three general slots remain.
	assert.True(t, l.Allow(protocol.KindRaiseHand, now))
	assert.True(t, l.Allow(protocol.KindRaiseHand, now))
	assert.True(t, l.Allow(protocol.KindRaiseHand, now))
	assert.False(t, l.Allow(protocol.KindRaiseHand, now))
}

func TestRateLimiterChatCountsAgainstGeneral(t *testing.T) {
	l := NewRateLimiter(RateConfig{Window: 10 * time.Second, General: 3, Chat: 10, Reactions: 10})
	now := time.Unix(1700000000, 0)

	assert.True(t, l.Allow(protocol.KindSendMessage, now))
	assert.True(t, l.Allow(protocol.KindSendMessage, now))
	assert.True(t, l.Allow(protocol.KindSendMessage, now))
	assert.False(t, l.Allow(protocol.KindSendMessage, now))
}

func TestRateLimiterReactionBudgetIsSeparate(t *testing.T) {
	l := NewRateLimiter(RateConfig{Window: 10 * time.Second, General: 10, Chat: 5, Reactions: 1})
	now := time.Unix(1700000000, 0)

	assert.True(t, l.Allow(protocol.KindSendReaction, now))
	assert.False(t, l.Allow(protocol.KindSendReaction, now))
	assert.True(t, l.Allow(protocol.KindSendMessage, now))
}

func TestRateLimiterExemptKinds(t *testing.T) {
	l := NewRateLimiter(RateConfig{Window: 10 * time.Second, General: 1, Chat: 1, Reactions: 1})
	now := time.Unix(1700000000, 0)

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(protocol.KindSendingSignal, now))
		assert.True(t, l.Allow(protocol.KindReturningSignal, now))
		assert.True(t, l.Allow(protocol.KindPing, now))
	}
}
