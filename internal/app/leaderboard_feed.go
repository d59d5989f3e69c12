package app

import (
	"context"
	"sync"

	"game-quiz-service/internal/domain"
)

// LeaderboardFeed fans out leaderboard snapshots to live subscribers whenever a
// result is recorded in this process.
//
// Boards are computed while the feed lock is held, so every subscriber sees
// boards in the order they were computed and never an older one after a newer.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{subscribers: make(map[chan []domain.LeaderboardEntry]struct{})}
}

// Subscribe registers a subscriber and queues load's board as its first value.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(load func() []domain.LeaderboardEntry) (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- load()
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Refresh computes a new board with load and delivers it to every subscriber.
// Nothing is computed while nobody listens.
func (f *LeaderboardFeed) Refresh(load func() []domain.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscribers) == 0 {
		return
	}
	f.broadcastLocked(load())
}

// broadcastLocked never blocks: a subscriber whose buffer is full loses its
// oldest pending board.
func (f *LeaderboardFeed) broadcastLocked(board []domain.LeaderboardEntry) {
	for ch := range f.subscribers {
		select {
		case ch <- board:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (f *LeaderboardFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// SubscribeLeaderboard streams the leaderboard, starting with the current board.
func (s *DataService) SubscribeLeaderboard(ctx context.Context) (<-chan []domain.LeaderboardEntry, func()) {
	return s.feed.Subscribe(func() []domain.LeaderboardEntry { return s.Leaderboard(ctx) })
}
