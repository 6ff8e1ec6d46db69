// Package notifications provides real-time event delivery for community rooms.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"unionhall/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// RoomEvent is the wire shape of every event delivered to a community room.
type RoomEvent struct {
	Type        string      `json:"type"` // "user_joined", "message", "user_left"
	CommunityID uuid.UUID   `json:"community_id"`
	UserID      uuid.UUID   `json:"user_id,omitempty"`
	Username    string      `json:"username,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
}

// RoomHub maps community rooms to their connected clients. Rooms are created
// lazily on the first join and removed when the last client leaves.
type RoomHub struct {
	mu          sync.RWMutex
	rooms       map[uuid.UUID]map[*Client]struct{}
	clientRooms map[*Client]uuid.UUID
	userConns   map[uuid.UUID]int
	totalConns  int
	metrics     *observability.WebSocketRoomMetrics
	presence    *ConnectionManager
	shutdown    chan struct{}
}

// NewRoomHub creates a hub. An optional Redis client enables cross-instance
// presence tracking.
func NewRoomHub(redisClients ...*redis.Client) *RoomHub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &RoomHub{
		rooms:       make(map[uuid.UUID]map[*Client]struct{}),
		clientRooms: make(map[*Client]uuid.UUID),
		userConns:   make(map[uuid.UUID]int),
		metrics:     observability.NewWebSocketRoomMetrics(),
		presence:    NewConnectionManager(redisClient, ConnectionManagerConfig{}),
		shutdown:    make(chan struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *RoomHub) Name() string { return "room hub" }

// Join registers a connection into a community room. Returns the Client or an
// error when a connection limit is exceeded.
func (h *RoomHub) Join(communityID, userID uuid.UUID, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}
	if h.userConns[userID] >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uuid.UUID) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	room, ok := h.rooms[communityID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[communityID] = room
	}
	room[client] = struct{}{}
	h.clientRooms[client] = communityID
	h.userConns[userID]++
	h.totalConns++
	h.mu.Unlock()

	h.metrics.IncrementRoom(communityID.String())
	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}

	return client, nil
}

// UnregisterClient removes a connection from its room and drops the room when
// it empties.
func (h *RoomHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	communityID, ok := h.clientRooms[client]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clientRooms, client)

	if room, exists := h.rooms[communityID]; exists {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, communityID)
		}
	}

	if n := h.userConns[client.UserID]; n <= 1 {
		delete(h.userConns, client.UserID)
	} else {
		h.userConns[client.UserID] = n - 1
	}
	h.totalConns--
	h.mu.Unlock()

	h.metrics.DecrementRoom(communityID.String())
	if h.presence != nil {
		h.presence.Unregister(context.Background(), client.UserID)
	}
}

// Room returns the community a client is connected to.
func (h *RoomHub) Room(client *Client) (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.clientRooms[client]
	return id, ok
}

// RoomOccupants returns the distinct user IDs currently in a room.
func (h *RoomHub) RoomOccupants(communityID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[communityID]
	if !ok {
		return []uuid.UUID{}
	}

	seen := make(map[uuid.UUID]struct{}, len(room))
	result := make([]uuid.UUID, 0, len(room))
	for client := range room {
		if _, dup := seen[client.UserID]; dup {
			continue
		}
		seen[client.UserID] = struct{}{}
		result = append(result, client.UserID)
	}
	return result
}

// IsOnline reports whether a user has at least one active connection, on this
// instance or (when Redis presence is available) any other.
func (h *RoomHub) IsOnline(userID uuid.UUID) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userConns[userID] > 0
}

// BroadcastToRoom sends raw bytes to every client in a room. A slow or closed
// client never blocks the others.
func (h *RoomHub) BroadcastToRoom(communityID uuid.UUID, message []byte) {
	h.mu.RLock()
	room, ok := h.rooms[communityID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.TrySend(message)
	}
	h.metrics.RecordWebSocketEvent("room_broadcast")
}

// BroadcastEvent marshals an event and sends it to the event's room.
func (h *RoomHub) BroadcastEvent(event RoomEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("RoomHub: failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.BroadcastToRoom(event.CommunityID, data)
}

// BroadcastAll sends raw bytes to every connected client in every room.
func (h *RoomHub) BroadcastAll(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clientRooms))
	for client := range h.clientRooms {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.TrySend(message)
	}
}

// StartWiring connects the hub to Redis pub/sub: events published to a room
// channel on any instance fan out to this instance's room clients.
func (h *RoomHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRoomSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll([]byte(payload))
			return
		}
		communityID, ok := ParseRoomChannel(channel)
		if !ok {
			log.Printf("RoomHub: invalid room channel: %s", channel)
			return
		}
		h.BroadcastToRoom(communityID, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *RoomHub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for client := range h.clientRooms {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for user %s: %v", client.UserID, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for user %s: %v", client.UserID, err)
		}
	}
	h.rooms = make(map[uuid.UUID]map[*Client]struct{})
	h.clientRooms = make(map[*Client]uuid.UUID)
	h.userConns = make(map[uuid.UUID]int)
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}
