// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unionhall/internal/middleware"
	"unionhall/internal/notifications"
	"unionhall/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Application close codes for failed WebSocket authentication. The upgrade
// itself always succeeds (WebSocketTokenCheck never rejects it) so browser
// clients get a readable close code instead of an opaque handshake error.
const (
	closeTokenMalformed      = 4400
	closeTokenExpired        = 4401
	closeTokenMissingSubject = 4402
)

// RoomWebSocketHandler handles WebSocket connections for community rooms at
// GET /ws/:communityID.
func (s *Server) RoomWebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		wsLog := observability.NewWSLogger("room")

		// Auth outcome recorded by WebSocketTokenCheck before the upgrade
		failure, _ := conn.Locals("wsAuthFailure").(middleware.TokenFailure)
		switch failure {
		case middleware.TokenOK:
		case middleware.TokenExpired:
			closeWithCode(conn, closeTokenExpired, "token expired")
			return
		case middleware.TokenMissingSubject:
			closeWithCode(conn, closeTokenMissingSubject, "token missing subject")
			return
		default:
			closeWithCode(conn, closeTokenMalformed, "invalid token")
			return
		}
		userID := conn.Locals("userID").(uuid.UUID)

		communityID, err := uuid.Parse(conn.Params("communityID"))
		if err != nil {
			closeWithCode(conn, closeTokenMalformed, "invalid community id")
			return
		}

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			wsLog.LogError(ctx, userID, communityID.String(), err, "load_user")
			_ = conn.Close()
			return
		}
		username := user.Username

		// Only active members may enter the room. Superusers bypass like
		// everywhere else.
		member, err := s.membershipService.IsActiveMember(ctx, userID, communityID)
		if err != nil {
			wsLog.LogError(ctx, userID, communityID.String(), err, "membership_check")
			_ = conn.Close()
			return
		}
		if !member {
			if super, serr := s.isSuperuserByUserID(ctx, userID); serr != nil || !super {
				closeWithCode(conn, websocket.ClosePolicyViolation, "not a community member")
				return
			}
		}

		client, err := s.roomHub.Join(communityID, userID, conn)
		if err != nil {
			closeWithCode(conn, websocket.CloseTryAgainLater, err.Error())
			return
		}
		wsLog.LogConnect(ctx, userID, communityID.String())

		// Define Incoming Message Handler
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				// Malformed frames are dropped, not fatal.
				wsLog.LogError(ctx, userID, communityID.String(), err, "parse_message")
				return
			}

			switch incoming.Type {
			case "message":
				if incoming.Content == "" {
					return
				}

				// Same budget as the HTTP comment endpoint
				id := fmt.Sprintf("user:%s", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "room_message", id, 20, time.Minute)
				if !allowed {
					if errJSON, merr := json.Marshal(fiber.Map{
						"type":  "error",
						"error": "Rate limit exceeded. Please wait a moment.",
					}); merr == nil {
						c.TrySend(errJSON)
					}
					return
				}

				wsLog.LogMessage(ctx, userID, communityID.String(), incoming.Type)
				s.publishRoomWSEvent(ctx, notifications.RoomEvent{
					Type:        EventRoomMessage,
					CommunityID: communityID,
					UserID:      userID,
					Username:    username,
					Payload:     incoming.Content,
				})
			}
		}

		// Welcome message with the current room occupancy
		welcome, err := json.Marshal(fiber.Map{
			"type":         "connected",
			"community_id": communityID,
			"user_id":      userID,
			"username":     username,
			"occupants":    s.roomHub.RoomOccupants(communityID),
		})
		if err == nil {
			client.TrySend(welcome)
		}

		s.publishRoomWSEvent(ctx, notifications.RoomEvent{
			Type:        EventUserJoined,
			CommunityID: communityID,
			UserID:      userID,
			Username:    username,
		})

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()

		s.roomHub.UnregisterClient(client)
		wsLog.LogDisconnect(ctx, userID, communityID.String(), "read pump closed")

		s.publishRoomWSEvent(ctx, notifications.RoomEvent{
			Type:        EventUserLeft,
			CommunityID: communityID,
			UserID:      userID,
			Username:    username,
		})
	})
}

// publishRoomWSEvent fans a room event out through Redis when available so
// clients on other instances see it, otherwise directly through the local hub.
func (s *Server) publishRoomWSEvent(ctx context.Context, event notifications.RoomEvent) {
	if s.notifier == nil {
		s.roomHub.BroadcastEvent(event)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "marshal room event failed",
			"event_type", event.Type, "error", err.Error())
		return
	}
	if err := s.notifier.PublishRoom(ctx, event.CommunityID, string(data)); err != nil {
		// Publish failure still reaches local clients.
		s.roomHub.BroadcastEvent(event)
	}
}

func closeWithCode(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.Close()
}
