// Package mq carries order lifecycle events over Redis pub/sub.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Channel = "order-events"

const (
	OrderCreated   = "order.created"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	TotalPrice float64   `json:"totalPrice"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisBus publishes and consumes events on one Redis channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBus(rdb *redis.Client, log *zap.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, channel: Channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe calls handle for every event until ctx is cancelled. Undecodable messages
// are logged and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, handle func(Event)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("listening for order events", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				b.log.Warn("bad order event", zap.Error(err))
				continue
			}
			handle(ev)
		}
	}
}

func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
