package decoder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

const (
	DefaultChannel        = "scanner:decoded"
	DefaultHealthInterval = 2 * time.Second
)

// RedisDecoder subscribes to a pub/sub channel on which an external
// scanner publishes decoded payloads. The subscription reconnects on its
// own, so the connection is pinged periodically and the stream ends when
// Redis stops answering.
type RedisDecoder struct {
	client         *redis.Client
	channel        string
	healthInterval time.Duration
	log            *logrus.Entry

	mu       sync.Mutex
	shutdown func() error
	done     chan struct{}
}

func NewRedisDecoder(client *redis.Client, channel string, log *logrus.Entry) *RedisDecoder {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisDecoder{
		client:         client,
		channel:        channel,
		healthInterval: DefaultHealthInterval,
		log:            log,
	}
}

// WithHealthInterval sets how often the connection is pinged while subscribed.
func (d *RedisDecoder) WithHealthInterval(interval time.Duration) *RedisDecoder {
	if interval > 0 {
		d.healthInterval = interval
	}
	return d
}

func (d *RedisDecoder) Start(ctx context.Context, cfg domain.CaptureConfig, events chan<- domain.DecodeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		select {
		case <-d.done:
			// previous stream ended on its own, allow a fresh subscription
			_ = d.shutdown()
		default:
			return ErrBusy
		}
	}

	pubsub := d.client.Subscribe(ctx, d.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", d.channel, err)
	}

	stop := make(chan struct{})
	once := new(sync.Once)
	d.shutdown = func() error {
		var err error
		once.Do(func() {
			close(stop)
			err = pubsub.Close()
		})
		return err
	}
	d.done = make(chan struct{})

	go d.forward(pubsub.Channel(), events, stop, d.done, d.shutdown)

	d.log.WithFields(logrus.Fields{
		"channel": d.channel,
		"fps":     cfg.FPS,
	}).Info("subscribed to decode events")
	return nil
}

func (d *RedisDecoder) forward(msgs <-chan *redis.Message, events chan<- domain.DecodeEvent, stop, done chan struct{}, shutdown func() error) {
	defer close(done)
	defer close(events)

	ticker := time.NewTicker(d.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := d.ping(); err != nil {
				d.log.WithError(err).Warn("redis unreachable, ending decode stream")
				_ = shutdown()
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev := ParsePayload(msg.Payload)
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}
}

func (d *RedisDecoder) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.healthInterval)
	defer cancel()
	return d.client.Ping(ctx).Err()
}

func (d *RedisDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done == nil {
		return nil
	}

	err := d.shutdown()
	<-d.done
	return err
}

// ParsePayload decodes a published message. JSON objects carry text or
// error fields; anything else is taken as the raw decoded text.
func ParsePayload(payload string) domain.DecodeEvent {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") {
		var ev domain.DecodeEvent
		if err := json.Unmarshal([]byte(trimmed), &ev); err == nil {
			return ev
		}
	}
	return domain.DecodeEvent{Text: payload}
}
