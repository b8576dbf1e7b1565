// Package redisbus publica RoleChanged por Redis pub/sub para que todas las
// instancias del API invaliden su cache de sesión.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"

	"vet-clinic/internal/adapters/notify/inproc"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/notify"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "vet-clinic:role-changed"

type Bus struct {
	client  *redis.Client
	channel string
	local   *inproc.Bus
	log     logger.Logger
}

func New(client *redis.Client, channel string, log logger.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		client:  client,
		channel: channel,
		local:   inproc.NewBus(),
		log:     log.With(logger.Fields{"component": "redisbus", "channel": channel}),
	}
}

// PublishRoleChanged solo publica en Redis; la entrega local ocurre en Run,
// incluida la de esta misma instancia.
func (b *Bus) PublishRoleChanged(ctx context.Context, ev notify.RoleChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *Bus) SubscribeRoleChanged(fn func(notify.RoleChanged)) func() {
	return b.local.SubscribeRoleChanged(fn)
}

// Run escucha el canal hasta que ctx se cancela.
func (b *Bus) Run(ctx context.Context) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	b.log.Info("subscribed", nil)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redisbus: subscription closed")
			}
			var ev notify.RoleChanged
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed role change", logger.Fields{"error": err})
				continue
			}
			b.local.Deliver(ev)
		}
	}
}
