package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ladder-quiz-service/internal/domain"
)

func TestFiftyFiftyKeepsCorrectKey(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for level := 0; level < 40; level++ {
		q := testQuestion(level)
		keys := fiftyFifty(q, rnd)
		require.Len(t, keys, 2)
		assert.Contains(t, keys, q.CorrectKey)
		assert.NotEqual(t, keys[0], keys[1])
		for _, k := range keys {
			assert.Contains(t, q.Variants, k)
		}
	}
}

func TestAudienceDistributionCoversAllKeys(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for level := 0; level < 40; level++ {
		q := testQuestion(level)
		dist := audienceDistribution(q, rnd)
		require.Len(t, dist, 4)

		total := 0
		for _, k := range domain.AnswerKeys {
			share, ok := dist[k]
			require.True(t, ok, "key %s missing", k)
			assert.GreaterOrEqual(t, share, 0)
			total += share
		}
		assert.Equal(t, 100, total)
		assert.GreaterOrEqual(t, dist[q.CorrectKey], audienceMinCorrect)
		assert.LessOrEqual(t, dist[q.CorrectKey], audienceMaxCorrect)
	}
}

func TestFriendGuessIsAVariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	q := testQuestion(2)
	hits := 0
	for i := 0; i < 200; i++ {
		guess := friendGuess(q, rnd)
		assert.Contains(t, q.Variants, guess)
		if guess == q.CorrectKey {
			hits++
		}
	}
	assert.Greater(t, hits, 100, "friend should lean toward the right answer")
}

func TestRequestHelpPayloadShapes(t *testing.T) {
	s := newSession(defaultRules())
	q, _ := s.CurrentQuestion()

	fifty, err := s.RequestHelp(domain.HelpFiftyFifty, t0)
	require.NoError(t, err)
	assert.Contains(t, fifty.Keys, q.CorrectKey)
	assert.Nil(t, fifty.Distribution)

	audience, err := s.RequestHelp(domain.HelpAudience, t0)
	require.NoError(t, err)
	assert.Len(t, audience.Distribution, 4)
	assert.Empty(t, audience.Keys)

	friend, err := s.RequestHelp(domain.HelpFriendCall, t0)
	require.NoError(t, err)
	assert.Contains(t, q.Variants, friend.FriendGuess)
}
