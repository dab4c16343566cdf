package realtime

import "sync"

// Hub tracks the active connection of each user. A user has at most one
// connection; attaching a new one replaces and closes the previous session.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]*Connection
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{byUser: make(map[string]*Connection)}
}

// Attach registers a connection and starts its write loop. A previous
// session for the same user is closed after the swap.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	previous := h.byUser[conn.UserID]
	h.byUser[conn.UserID] = conn
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes the connection if it is still the user's active one.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	if current, ok := h.byUser[conn.UserID]; ok && current.ID == conn.ID {
		delete(h.byUser, conn.UserID)
	}
	h.mu.Unlock()
}

// NotifyUser delivers payload to the user's active connection, if any.
func (h *Hub) NotifyUser(userID string, payload []byte) bool {
	h.mu.RLock()
	conn := h.byUser[userID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.byUser))
	for _, conn := range h.byUser {
		conns = append(conns, conn)
	}
	h.byUser = make(map[string]*Connection)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "hub shutdown")
	}
}
