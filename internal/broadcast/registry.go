package broadcast

import "sync"

// Registry maps a video id to the set of clients currently viewing it.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]map[*Client]struct{})}
}

// Register adds c to the viewers of videoID. Registering the same client twice is a no-op.
func (r *Registry) Register(videoID int64, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.clients[videoID]
	if !ok {
		set = make(map[*Client]struct{})
		r.clients[videoID] = set
	}
	set[c] = struct{}{}
}

// Deregister removes exactly c from videoID and drops the key once no viewer is left.
// Removing an unknown client is a no-op.
func (r *Registry) Deregister(videoID int64, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.clients[videoID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.clients, videoID)
	}
}

// Snapshot returns a copy of the viewers of videoID at the time of the call.
func (r *Registry) Snapshot(videoID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.clients[videoID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Count returns the number of viewers of videoID.
func (r *Registry) Count(videoID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[videoID])
}

// Videos returns the number of videos with at least one viewer.
func (r *Registry) Videos() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
