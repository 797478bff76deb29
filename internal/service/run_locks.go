package service

import "sync"

// runLocks holds one mutex per platform. Scheduling rewrites the schedule
// stage that publishing writes results into by row, so the two must not run
// against the same platform at once.
type runLocks struct {
	mu         sync.Mutex
	byPlatform map[string]*sync.Mutex
}

func newRunLocks() *runLocks {
	return &runLocks{byPlatform: make(map[string]*sync.Mutex)}
}

func (l *runLocks) lock(platform string) func() {
	l.mu.Lock()
	m, ok := l.byPlatform[platform]
	if !ok {
		m = &sync.Mutex{}
		l.byPlatform[platform] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
