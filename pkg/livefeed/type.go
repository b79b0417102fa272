package livefeed

import (
	"context"
	"errors"
	"time"
)

var ErrRetriesExhausted = errors.New("reading feed unreachable")

// Handler receives the raw payload of every text message.
type Handler func(ctx context.Context, payload []byte)

type Options struct {
	// host:port of the feed server
	Host string
	TLS  bool
	Path string

	MaxRetries       int
	BaseRetryDelay   time.Duration
	MaxRetryDelay    time.Duration
	HandshakeTimeout time.Duration
	// The feed publishes every second, a silent connection is dead after this.
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = "/ws"
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 10
	}
	if o.BaseRetryDelay <= 0 {
		o.BaseRetryDelay = 2 * time.Second
	}
	if o.MaxRetryDelay <= 0 {
		o.MaxRetryDelay = 60 * time.Second
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}
