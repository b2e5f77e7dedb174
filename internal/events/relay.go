// Package events relays change notifications between server instances over
// Redis Pub/Sub so a client connected to any instance receives them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"archive-backend/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultChannel is the Pub/Sub channel events are relayed on
const DefaultChannel = "archive_events"

const publishTimeout = 5 * time.Second

// Envelope is the wire form of a relayed event
type Envelope struct {
	UserID  string             `json:"user_id"`
	Message services.WSMessage `json:"message"`
}

// Relay publishes events to Redis and forwards received ones to a local publisher
type Relay struct {
	client  *redis.Client
	channel string
	local   services.EventPublisher
}

// NewRelay connects to Redis and returns a relay delivering to local
func NewRelay(ctx context.Context, addr, password string, db int, channel string, local services.EventPublisher) (*Relay, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{client: rdb, channel: channel, local: local}, nil
}

// Publish sends an event to every instance, including this one
func (r *Relay) Publish(userID string, msg services.WSMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	payload, err := Encode(userID, msg)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to relay event, delivering locally")
		r.local.Publish(userID, msg)
	}
}

// Listen forwards relayed events to the local publisher until ctx is done
func (r *Relay) Listen(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed event")
				continue
			}
			r.local.Publish(env.UserID, env.Message)
		}
	}
}

// Close releases the Redis connection
func (r *Relay) Close() error {
	return r.client.Close()
}

// Encode serializes an event for the wire
func Encode(userID string, msg services.WSMessage) ([]byte, error) {
	data, err := json.Marshal(Envelope{UserID: userID, Message: msg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Decode parses a relayed event
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if env.UserID == "" || env.Message.Type == "" {
		return nil, errors.New("event missing user_id or type")
	}
	return &env, nil
}
