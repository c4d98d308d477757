package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/triptales/triptales-backend/internal/database"
	"github.com/triptales/triptales-backend/internal/models"
)

// FeedEvent is the payload broadcast over Redis and WebSocket when a journal
// record commits. Map screens use it to drop a new marker without refetching.
type FeedEvent struct {
	Type         string             `json:"type"`
	JournalID    string             `json:"journal_id,omitempty"`
	UserID       string             `json:"user_id,omitempty"`
	Title        string             `json:"title,omitempty"`
	Location     *models.Coordinate `json:"location,omitempty"`
	LocationName string             `json:"location_name,omitempty"`
	CoverImage   string             `json:"cover_image,omitempty"`
	Timestamp    time.Time          `json:"timestamp,omitempty"`
}

// EventJournalCreated is the only event type published today.
const EventJournalCreated = "journal_created"

const feedChannel = "journals:feed"

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// feedHub is a registry of live map-screen connections. The feed is shared,
// so there are no per-topic subscriptions; every connection gets every event.
type feedHub struct {
	mu          sync.RWMutex
	connections map[string]FeedConn
}

var (
	hub         = &feedHub{connections: make(map[string]FeedConn)}
	feedStarted sync.Once
)

// RegisterFeedConnection registers or replaces a connection under connID.
func RegisterFeedConnection(connID string, conn FeedConn) {
	hub.mu.Lock()
	hub.connections[connID] = conn
	hub.mu.Unlock()
}

// UnregisterFeedConnection removes a connection.
func UnregisterFeedConnection(connID string) {
	hub.mu.Lock()
	delete(hub.connections, connID)
	hub.mu.Unlock()
}

// FanOutFeedEvent sends an event to every local connection.
func FanOutFeedEvent(event FeedEvent) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, conn := range hub.connections {
		// Non-blocking best-effort send.
		go func(c FeedConn) {
			if err := c.WriteJSON(event); err != nil {
				log.Printf("error writing feed event to websocket: %v", err)
			}
		}(conn)
	}
}

// StartRedisFeedSubscriber ensures a single shared Redis listener per instance.
func StartRedisFeedSubscriber(ctx context.Context) {
	feedStarted.Do(func() {
		go runFeedSubscriber(ctx)
	})
}

func runFeedSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, feedChannel)
			defer pubsub.Close()

			log.Printf("✅ Journal feed Redis subscriber started (channel: %s)", feedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}

				FanOutFeedEvent(event)
			}
		}()
	}
}

// PublishFeedEvent publishes an event to Redis. Called after a journal record
// commits; a publish failure never fails the submit.
func PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, feedChannel, data).Err()
}
