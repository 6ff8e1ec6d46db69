// Package notifications provides real-time event delivery for community rooms.
package notifications

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix = "room:comm:"
	broadcastChannel  = "room:broadcast"
)

// Notifier publishes room events into Redis channels so every server instance
// can fan them out to its own connections.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishRoom sends an event payload to a community room channel.
func (n *Notifier) PublishRoom(
	ctx context.Context, communityID uuid.UUID, payload string,
) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, RoomChannel(communityID), payload).Err()
}

// PublishBroadcast sends an event payload to every connected client on every
// instance, regardless of room.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartRoomSubscriber subscribes to room:comm:* and the broadcast channel and
// calls onMessage for each incoming message. onMessage receives channel and
// payload.
func (n *Notifier) StartRoomSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*", broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RoomSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// RoomChannel derives the Redis channel name for a community room.
func RoomChannel(communityID uuid.UUID) string {
	return roomChannelPrefix + communityID.String()
}

// ParseRoomChannel extracts the community ID from a room channel name. The
// second return value is false for the broadcast channel or anything else that
// is not a room channel.
func ParseRoomChannel(channel string) (uuid.UUID, bool) {
	if len(channel) <= len(roomChannelPrefix) || channel[:len(roomChannelPrefix)] != roomChannelPrefix {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(channel[len(roomChannelPrefix):])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
