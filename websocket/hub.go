package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// The hub pushes booking/payment status changes to connected clients. The
// push is purely an optimistic view for the browser — the authoritative
// transition always comes from the gateway webhook, never from the client.

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

type StatusEvent struct {
	Kind      string    `json:"kind"`
	BookingID uuid.UUID `json:"booking_id"`
	Status    string    `json:"status"`
	UserID    uuid.UUID `json:"-"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Events = make(chan *StatusEvent, 64)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case event := <-Events:
			clientsMu.RLock()
			conn, ok := clients[event.UserID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Error pushing status to client %s: %v", event.UserID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, event.UserID)
				clientsMu.Unlock()
			}
		}
	}
}

// PushStatus queues a status event for a user without blocking the caller.
func PushStatus(userID, bookingID uuid.UUID, kind, status string) {
	select {
	case Events <- &StatusEvent{Kind: kind, BookingID: bookingID, Status: status, UserID: userID}:
	default:
		log.Printf("Status event dropped for user %s: hub queue full", userID)
	}
}
