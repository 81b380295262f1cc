package game

import (
	"math/rand"
	"sort"

	"ladder-quiz-service/internal/domain"
)

// Random is the source of randomness for help payloads. *rand.Rand
// satisfies it; the zero Rules use the goroutine-safe package source.
type Random interface {
	Intn(n int) int
}

type globalRandom struct{}

func (globalRandom) Intn(n int) int { return rand.Intn(n) }

const (
	audienceMinCorrect = 40
	audienceMaxCorrect = 85
	// friendAccuracy is the chance out of ten that the friend names the right key.
	friendAccuracy = 8
)

func buildHelp(kind domain.HelpKind, q domain.Question, rnd Random) domain.HelpPayload {
	switch kind {
	case domain.HelpFiftyFifty:
		return domain.HelpPayload{Kind: kind, Keys: fiftyFifty(q, rnd)}
	case domain.HelpAudience:
		return domain.HelpPayload{Kind: kind, Distribution: audienceDistribution(q, rnd)}
	default:
		return domain.HelpPayload{Kind: kind, FriendGuess: friendGuess(q, rnd)}
	}
}

func knownHelp(kind domain.HelpKind) bool {
	for _, k := range domain.HelpKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func wrongKeys(q domain.Question) []string {
	keys := make([]string, 0, len(q.Variants))
	for k := range q.Variants {
		if k != q.CorrectKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// fiftyFifty keeps the correct key and one random wrong key.
func fiftyFifty(q domain.Question, rnd Random) []string {
	wrong := wrongKeys(q)
	keys := []string{q.CorrectKey, wrong[rnd.Intn(len(wrong))]}
	sort.Strings(keys)
	return keys
}

// audienceDistribution gives percentages over all keys summing to 100,
// weighted toward the correct key.
func audienceDistribution(q domain.Question, rnd Random) map[string]int {
	correct := audienceMinCorrect + rnd.Intn(audienceMaxCorrect-audienceMinCorrect+1)
	dist := map[string]int{q.CorrectKey: correct}

	wrong := wrongKeys(q)
	rest := 100 - correct
	for i, k := range wrong {
		if i == len(wrong)-1 {
			dist[k] = rest
			break
		}
		share := rnd.Intn(rest + 1)
		dist[k] = share
		rest -= share
	}
	return dist
}

func friendGuess(q domain.Question, rnd Random) string {
	if rnd.Intn(10) < friendAccuracy {
		return q.CorrectKey
	}
	wrong := wrongKeys(q)
	return wrong[rnd.Intn(len(wrong))]
}
