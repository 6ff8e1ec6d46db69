package server

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Event type constants prevent typos in event names.
const (
	EventUserJoined        = "user_joined"
	EventRoomMessage       = "message"
	EventUserLeft          = "user_left"
	EventPostCreated       = "post_created"
	EventCommunityUpdated  = "community_updated"
	EventEngineInstalled   = "engine_installed"
	EventEngineDeactivated = "engine_deactivated"
)

// publishRoomEvent delivers an event to every client in a community room.
// With Redis it goes through pub/sub so every instance's room fans out; in a
// single-instance deployment without Redis it falls back to the local hub.
func (s *Server) publishRoomEvent(
	ctx context.Context, communityID uuid.UUID, eventType string, payload interface{},
) {
	event := map[string]interface{}{
		"type":         eventType,
		"community_id": communityID,
		"payload":      payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishRoom(ctx, communityID, string(eventJSON)); err != nil {
			log.Printf("failed to publish %s event to room %s: %v", eventType, communityID, err)
		}
		return
	}
	if s.roomHub != nil {
		s.roomHub.BroadcastToRoom(communityID, eventJSON)
	}
}

// publishBroadcastEvent delivers an event to every connected client.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(ctx, string(eventJSON)); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
		return
	}
	if s.roomHub != nil {
		s.roomHub.BroadcastAll(eventJSON)
	}
}
