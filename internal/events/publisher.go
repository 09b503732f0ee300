// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package events publishes forecast records as watermill messages, either on
// an in-process channel or on NATS JetStream.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Backend names, used as metric labels.
const (
	BackendChannel = "gochannel"
	BackendNATS    = "nats"
)

// Metadata keys set on every message.
const (
	MetadataRunID    = "run_id"
	MetadataEntityID = "entity_id"
)

// ErrClosed is returned by a closed publisher.
var ErrClosed = errors.New("publisher is closed")

// Publisher turns forecast records into messages on a single topic.
type Publisher struct {
	publisher message.Publisher
	backend   string
	topic     string

	mu     sync.RWMutex
	closed bool
}

// New creates the publisher described by cfg: NATS JetStream when a URL is
// configured, otherwise an in-process channel.
func New(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	if cfg.NATSURL == "" {
		p, _ := NewInProcess(cfg.Topic, logger)
		return p, nil
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	logging.Info().Str("url", cfg.NATSURL).Str("topic", cfg.Topic).Msg("Forecast events go to NATS JetStream")
	return &Publisher{publisher: pub, backend: BackendNATS, topic: cfg.Topic}, nil
}

// NewInProcess returns a publisher backed by a watermill GoChannel. The
// channel is returned so in-process consumers can subscribe to it.
func NewInProcess(topic string, logger watermill.LoggerAdapter) (*Publisher, *gochannel.GoChannel) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1024}, logger)
	return &Publisher{publisher: ch, backend: BackendChannel, topic: topic}, ch
}

// Backend reports which transport is in use.
func (p *Publisher) Backend() string { return p.backend }

// Topic is the topic every record is published on.
func (p *Publisher) Topic() string { return p.topic }

// WriteForecasts publishes one message per record. Message ids are derived
// from (run, entity, hour) so JetStream drops redeliveries of the same record.
func (p *Publisher) WriteForecasts(ctx context.Context, records []models.ForecastRecord) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	msgs := make([]*message.Message, 0, len(records))
	for i := range records {
		msg, err := NewRecordMessage(&records[i])
		if err != nil {
			return err
		}
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}

	err := p.publisher.Publish(p.topic, msgs...)
	metrics.RecordEventPublish(p.backend, err)
	if err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	return nil
}

// NewRecordMessage encodes one record.
func NewRecordMessage(r *models.ForecastRecord) (*message.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("serialize record: %w", err)
	}
	id := fmt.Sprintf("%s/%s/%s", r.RunID, r.EntityID, r.Timestamp.UTC().Format(time.RFC3339))
	msg := message.NewMessage(id, data)
	msg.Metadata.Set(MetadataRunID, r.RunID)
	msg.Metadata.Set(MetadataEntityID, r.EntityID)
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	return msg, nil
}

// DecodeRecord is the inverse of NewRecordMessage.
func DecodeRecord(msg *message.Message) (models.ForecastRecord, error) {
	var r models.ForecastRecord
	if err := json.Unmarshal(msg.Payload, &r); err != nil {
		return r, fmt.Errorf("deserialize record: %w", err)
	}
	return r, nil
}

// Close shuts the transport down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
