// Package mqttfeed subscribes to a broker topic carrying reading payloads.
package mqttfeed

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Handler receives the raw payload of every message on the topic.
type Handler func(ctx context.Context, payload []byte)

type Options struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte

	ConnectTimeout time.Duration
}

type Subscriber struct {
	opts   Options
	logger *zap.Logger
	handle Handler
}

func NewSubscriber(opts Options, logger *zap.Logger, handle Handler) *Subscriber {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.QoS > 2 {
		opts.QoS = 1
	}
	return &Subscriber{opts: opts, logger: logger, handle: handle}
}

// clientOptions subscribes from OnConnect so that auto-reconnects restore
// the subscription.
func (s *Subscriber) clientOptions(ctx context.Context) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.opts.Broker)
	opts.SetClientID(s.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(s.opts.ConnectTimeout)

	if s.opts.Username != "" {
		opts.SetUsername(s.opts.Username)
	}
	if s.opts.Password != "" {
		opts.SetPassword(s.opts.Password)
	}

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.opts.Topic, s.opts.QoS, s.onMessage(ctx))
		if token.Wait() && token.Error() != nil {
			s.logger.Error("Failed to subscribe",
				zap.String("topic", s.opts.Topic), zap.Error(token.Error()))
			return
		}
		s.logger.Info("Subscribed to reading topic", zap.String("topic", s.opts.Topic))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("MQTT connection lost", zap.Error(err))
	})
	return opts
}

func (s *Subscriber) onMessage(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if ctx.Err() != nil {
			return
		}
		s.handle(ctx, msg.Payload())
	}
}

// Run stays subscribed until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	if s.opts.Broker == "" || s.opts.Topic == "" {
		return fmt.Errorf("mqtt broker and topic are required")
	}
	client := mqtt.NewClient(s.clientOptions(ctx))
	defer client.Disconnect(250)

	s.logger.Info("Connecting to MQTT broker", zap.String("broker", s.opts.Broker))
	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", err)
		}
	case <-ctx.Done():
		return nil
	}

	<-ctx.Done()
	s.logger.Info("Disconnecting from MQTT broker")
	return nil
}
