package overlay

import "sync"

// changeNotifier fans store mutations out to subscribers and keeps a version
// counter so pull-based consumers can cheaply detect staleness.
type changeNotifier struct {
	mu      sync.Mutex
	version uint64
	subs    map[int]func()
	nextSub int
}

func (n *changeNotifier) subscribe(fn func()) func() {
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.nextSub
	n.nextSub++
	n.subs[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *changeNotifier) notify() {
	n.mu.Lock()
	n.version++
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (n *changeNotifier) currentVersion() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.version
}
