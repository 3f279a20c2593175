// internal/writer/mirror/mirror.go
package mirror

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/record"
)

// Client is the subset of *redis.Client the mirror needs.
type Client interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Mirror keeps the latest record in a redis hash (title -> value) and
// announces each one on a pub/sub channel.
type Mirror struct {
	client  Client
	key     string
	channel string
	titles  []string
}

// Dial does not contact the server; failures surface on Publish.
func Dial(cfg config.MirrorConfig, titles []string) *Mirror {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return New(c, cfg.Key, cfg.Channel, titles)
}

func New(c Client, key, channel string, titles []string) *Mirror {
	t := make([]string, len(titles))
	copy(t, titles)
	return &Mirror{client: c, key: key, channel: channel, titles: t}
}

func (m *Mirror) Publish(ctx context.Context, r record.Record) error {
	if r.Len() != len(m.titles) {
		return fmt.Errorf("mirror: record has %d fields, expected %d", r.Len(), len(m.titles))
	}

	values := make([]interface{}, 0, 2*len(m.titles))
	for i, t := range m.titles {
		values = append(values, t, r.Field(i))
	}

	if err := m.client.HSet(ctx, m.key, values...).Err(); err != nil {
		return fmt.Errorf("mirror: hset %s: %w", m.key, err)
	}
	if m.channel == "" {
		return nil
	}
	if err := m.client.Publish(ctx, m.channel, r.String()).Err(); err != nil {
		return fmt.Errorf("mirror: publish %s: %w", m.channel, err)
	}
	return nil
}

func (m *Mirror) Close() error { return m.client.Close() }
