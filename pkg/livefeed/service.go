// Package livefeed subscribes to a websocket that streams readings and
// keeps the subscription alive across disconnects.
package livefeed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Listener struct {
	opts   Options
	logger *zap.Logger
	handle Handler
}

func NewListener(opts Options, logger *zap.Logger, handle Handler) *Listener {
	return &Listener{opts: opts.withDefaults(), logger: logger, handle: handle}
}

func (l *Listener) URL() string {
	scheme := "ws"
	if l.opts.TLS {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: l.opts.Host, Path: l.opts.Path}
	return u.String()
}

// retryDelay grows exponentially with the attempt number up to MaxRetryDelay.
func (l *Listener) retryDelay(retryCount int) time.Duration {
	if retryCount > 16 {
		return l.opts.MaxRetryDelay
	}
	delay := time.Duration(1<<retryCount) * l.opts.BaseRetryDelay
	if delay > l.opts.MaxRetryDelay {
		delay = l.opts.MaxRetryDelay
	}
	return delay
}

// Run connects and hands every message to the handler until ctx is done.
// A dropped connection is redialed immediately, failed dials back off.
// It returns ErrRetriesExhausted once MaxRetries dials in a row have failed.
func (l *Listener) Run(ctx context.Context) error {
	u := l.URL()
	dialer := websocket.Dialer{HandshakeTimeout: l.opts.HandshakeTimeout}
	retryCount := 0

	for {
		if retryCount > 0 {
			delay := l.retryDelay(retryCount)
			l.logger.Info("Retrying connection",
				zap.Duration("delay", delay),
				zap.Int("attempt", retryCount+1),
				zap.Int("max_retries", l.opts.MaxRetries))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
		}

		l.logger.Info("Connecting to reading feed", zap.String("url", u))
		c, _, err := dialer.DialContext(ctx, u, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("Connection failed", zap.Error(err))
			retryCount++
			if retryCount >= l.opts.MaxRetries {
				return fmt.Errorf("%w: %d attempts: %v", ErrRetriesExhausted, retryCount, err)
			}
			continue
		}

		l.logger.Info("Connected, accepting readings")
		retryCount = 0

		broken := l.handleConnection(ctx, c)
		c.Close()
		if !broken {
			return nil
		}
		l.logger.Warn("Connection lost, will retry")
	}
}

// handleConnection reports true when the connection broke and false when
// ctx ended it.
func (l *Listener) handleConnection(ctx context.Context, c *websocket.Conn) bool {
	done := make(chan struct{})
	c.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.logger.Warn("WebSocket error", zap.Error(err))
				} else {
					l.logger.Info("Connection closed", zap.Error(err))
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))

			if messageType != websocket.TextMessage {
				l.logger.Debug("Ignoring unexpected message type", zap.Int("type", messageType))
				continue
			}
			l.handle(ctx, message)
		}
	}()

	ticker := time.NewTicker(l.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				l.logger.Warn("Failed to send ping", zap.Error(err))
			}
		case <-ctx.Done():
			err := c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				l.logger.Warn("Error sending close message", zap.Error(err))
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
