package creator

import "sync"

// OpenQueue tracks rooms that should open as soon as their data arrives.
// Consume reports true at most once per Add, so a room queued for opening
// opens exactly once no matter how many notifications race in.
type OpenQueue struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewOpenQueue creates an empty queue.
func NewOpenQueue() *OpenQueue {
	return &OpenQueue{ids: make(map[string]struct{})}
}

// Add queues a room for opening.
func (q *OpenQueue) Add(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids[id] = struct{}{}
}

// Consume removes the room from the queue, reporting whether it was queued.
func (q *OpenQueue) Consume(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.ids[id]; !ok {
		return false
	}
	delete(q.ids, id)
	return true
}

// Clear drops every queued room. Called on logout.
func (q *OpenQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = make(map[string]struct{})
}
