// Package notify tracks live buyer sessions and pushes order-settlement
// messages to them. A buyer without a connection simply receives nothing; the
// order ledger stays the source of truth.
package notify

import (
	"log"
	"sync"
)

// Conn is the per-session write surface. *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry maps buyer emails to their single live connection. A reconnect
// replaces and closes the previous one.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Register(buyerEmail string, conn Conn) {
	r.mu.Lock()
	previous := r.conns[buyerEmail]
	r.conns[buyerEmail] = conn
	r.mu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			log.Printf("failed to close stale connection for %s: %v", buyerEmail, err)
		}
	}
}

// Unregister drops the mapping only if conn is still the registered one, so a
// slow close of an old connection cannot evict its replacement.
func (r *Registry) Unregister(buyerEmail string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[buyerEmail] == conn {
		delete(r.conns, buyerEmail)
	}
}

func (r *Registry) Get(buyerEmail string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[buyerEmail]
	return conn, ok
}
