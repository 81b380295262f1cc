package app

import (
	"sync"

	"ladder-quiz-service/internal/domain"
)

// feedHub fans game updates out to subscribers, keyed by game id.
type feedHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.GameView]struct{}
}

func newFeedHub() *feedHub {
	return &feedHub{subscribers: make(map[string]map[chan domain.GameView]struct{})}
}

// subscribe queues initial before the channel becomes visible to publish,
// so the snapshot always comes first.
func (h *feedHub) subscribe(gameID string, initial domain.GameView) (<-chan domain.GameView, func()) {
	ch := make(chan domain.GameView, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.subscribers[gameID]
	if !ok {
		subs = make(map[chan domain.GameView]struct{})
		h.subscribers[gameID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[gameID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, gameID)
		}
	}
	return ch, cancel
}

func (h *feedHub) publish(gameID string, view domain.GameView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[gameID] {
		select {
		case ch <- view:
		default:
			// slow subscriber: drop the oldest update so the latest state wins
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (h *feedHub) count(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[gameID])
}
