package crawler

import "sync"

// Frontier is the breadth-first queue of URLs waiting to be fetched,
// together with the set of URLs already visited.
// Both are keyed by CanonicalKey; the queue keeps the URL as discovered.
// A Frontier is safe for concurrent use.
type Frontier struct {
	mu sync.Mutex

	queue  []string
	queued map[string]struct{}

	visited map[string]struct{}
	order   []string
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:   make([]string, 0),
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
		order:   make([]string, 0),
	}
}

// Push appends u to the queue. It is a no-op, returning false, when u is
// empty, already visited, or already waiting in the queue.
func (f *Frontier) Push(u string) bool {
	if u == "" {
		return false
	}
	key := CanonicalKey(u)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[key]; ok {
		return false
	}
	if _, ok := f.queued[key]; ok {
		return false
	}
	f.queued[key] = struct{}{}
	f.queue = append(f.queue, u)
	return true
}

// Pop removes and returns the oldest queued URL.
// It returns false when the queue is empty.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.queued, CanonicalKey(u))
	return u, true
}

// MarkVisited records u as visited. It returns false if u had already been
// visited; the check and the insert happen atomically.
func (f *Frontier) MarkVisited(u string) bool {
	key := CanonicalKey(u)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[key]; ok {
		return false
	}
	f.visited[key] = struct{}{}
	f.order = append(f.order, u)
	return true
}

// IsVisited reports whether u has been visited.
func (f *Frontier) IsVisited(u string) bool {
	key := CanonicalKey(u)

	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.visited[key]
	return ok
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Visited returns the visited URLs in the order they were visited.
func (f *Frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}
