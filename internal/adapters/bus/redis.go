package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "talk:chat:"

// BusMessage is one newMessage frame travelling between instances.
type BusMessage struct {
	ChatID  domain.ChatID `json:"chatId"`
	Payload []byte        `json:"payload"`
}

// RedisBus fans chat frames out through Redis pub/sub so every instance
// delivers them to its own subscribers. Call rooms never go through here.
type RedisBus struct {
	rdb   *redis.Client
	local app.ChatBroadcaster
}

// NewRedisBus connects to redis and verifies connectivity.
func NewRedisBus(ctx context.Context, addr string, db int, local app.ChatBroadcaster) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return &RedisBus{rdb: rdb, local: local}, nil
}

// BroadcastChat publishes f. Local subscribers get it back through Run;
// if Redis is unreachable they get it directly instead.
func (b *RedisBus) BroadcastChat(ctx context.Context, chat domain.ChatID, f core.Frame) error {
	raw, err := json.Marshal(BusMessage{ChatID: chat, Payload: f})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channel(chat), raw).Err(); err != nil {
		log.Warn().Err(err).Str("module", "bus").Str("chat", string(chat)).Msg("publish failed, delivering locally")
		return b.local.BroadcastChat(ctx, chat, f)
	}
	return nil
}

// Run listens to all chat channels and hands each frame to the local broadcaster until ctx ends.
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	defer pubsub.Close()
	ch := pubsub.Channel()
	log.Info().Str("module", "bus").Msg("subscribed to chat channels")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.deliver(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (b *RedisBus) deliver(ctx context.Context, ch string, raw []byte) {
	var bm BusMessage
	if err := json.Unmarshal(raw, &bm); err != nil || bm.ChatID == "" {
		log.Warn().Err(err).Str("module", "bus").Str("channel", ch).Msg("bad bus message")
		return
	}
	if want := strings.TrimPrefix(ch, channelPrefix); want != string(bm.ChatID) {
		log.Warn().Str("module", "bus").Str("channel", ch).Str("chat", string(bm.ChatID)).Msg("chat id does not match channel")
		return
	}
	if err := b.local.BroadcastChat(ctx, bm.ChatID, bm.Payload); err != nil {
		log.Error().Err(err).Str("module", "bus").Msg("local broadcast")
	}
}

func (b *RedisBus) Close() { _ = b.rdb.Close() }

func channel(chat domain.ChatID) string { return channelPrefix + string(chat) }
