// Package relay forwards live events between instances over NATS.
package relay

import (
	"SourceHub/internal/lib/sl"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Config struct {
	URL     string
	Subject string
	Token   string
}

// envelope carries an encoded event frame; Room is empty for broadcasts.
type envelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Relay publishes local events to the shared subject and hands events
// from other instances to a local handler.
type Relay struct {
	conn    *nats.Conn
	subject string
	origin  string
	sub     *nats.Subscription
	log     *slog.Logger
}

func Connect(cfg Config, logger *slog.Logger) (*Relay, error) {
	log := logger.With(sl.Module("nats-relay"))
	opts := []nats.Option{
		nats.Name("sourcehub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", sl.Err(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Relay{
		conn:    nc,
		subject: cfg.Subject,
		origin:  uuid.NewString(),
		log:     log,
	}, nil
}

func (r *Relay) Publish(room string, frame []byte) error {
	data, err := json.Marshal(envelope{Origin: r.origin, Room: room, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err = r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Subscribe delivers frames published by other instances to handler.
func (r *Relay) Subscribe(handler func(room string, frame []byte)) error {
	sub, err := r.conn.Subscribe(r.subject, r.dispatch(handler))
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	r.sub = sub
	return nil
}

func (r *Relay) dispatch(handler func(room string, frame []byte)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			r.log.Warn("decode envelope", sl.Err(err))
			return
		}
		if env.Origin == r.origin {
			return
		}
		handler(env.Room, env.Frame)
	}
}

func (r *Relay) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if r.conn != nil {
		_ = r.conn.Drain()
	}
}
