package hub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chatService/internal/logger"
)

// RedisBus relays broadcasts through a Redis pub/sub channel so that every
// instance of the service delivers the same traffic to its local hub. Redis
// preserves publish order per channel, which keeps the per-group FIFO
// guarantee across the relay. Membership stays process-local.
type RedisBus struct {
	local   *Hub
	redis   *redis.Client
	channel string
	log     zerolog.Logger
}

type relayEnvelope struct {
	Group   string          `json:"group"`
	Payload json.RawMessage `json:"payload"`
}

func NewRedisBus(local *Hub, rdb *redis.Client, channel string) *RedisBus {
	return &RedisBus{
		local:   local,
		redis:   rdb,
		channel: channel,
		log:     logger.For("redis_bus"),
	}
}

func (rb *RedisBus) Join(groupID string, client *Client, welcome ...[]byte) {
	rb.local.Join(groupID, client, welcome...)
}

func (rb *RedisBus) Leave(groupID string, client *Client) {
	rb.local.Leave(groupID, client)
}

// Broadcast publishes the payload to the relay channel. The local delivery
// happens when the subscription loop receives the message back. If Redis is
// unreachable the payload is delivered locally so connected clients on this
// instance still observe it.
func (rb *RedisBus) Broadcast(groupID string, payload []byte) int {
	envelope, err := json.Marshal(relayEnvelope{Group: groupID, Payload: payload})
	if err != nil {
		rb.log.Error().Err(err).Msg("marshal relay envelope")
		return rb.local.Broadcast(groupID, payload)
	}
	if err := rb.redis.Publish(context.Background(), rb.channel, envelope).Err(); err != nil {
		rb.log.Error().Err(err).Str("group", groupID).Msg("relay publish failed, delivering locally")
		return rb.local.Broadcast(groupID, payload)
	}
	return rb.local.Members(groupID)
}

// Run subscribes to the relay channel and applies incoming broadcasts to the
// local hub until the context is canceled.
func (rb *RedisBus) Run(ctx context.Context) error {
	pubsub := rb.redis.Subscribe(ctx, rb.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var envelope relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				rb.log.Error().Err(err).Msg("unmarshal relay envelope")
				continue
			}
			rb.local.Broadcast(envelope.Group, envelope.Payload)
		}
	}
}
