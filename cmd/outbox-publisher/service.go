package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
)

type pubSubClient interface {
	Ping(context.Context) error
	NotificationPublisher() *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func() publisher

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	PubSub           pubSubClient
	Repository       outboxRepository
	PublisherFactory publisherFactory
}

// Service drains unpublished outbox rows to the notification topic. Rows that
// keep failing stay in the table with their attempt count and last error so
// an operator can inspect them.
type Service struct {
	cfg            *config.Config
	logg           *logger.Logger
	repo           outboxRepository
	newPublisher   publisherFactory
	batchSize      int
	pollInterval   time.Duration
	maxAttempts    int
	publishTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	if params.PublisherFactory == nil {
		if params.PubSub == nil {
			return nil, errors.New("pubsub client required")
		}
		client := params.PubSub
		params.PublisherFactory = func() publisher {
			return gcpPublisher{inner: client.NotificationPublisher()}
		}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:            params.Config,
		logg:           params.Logger,
		repo:           params.Repository,
		newPublisher:   params.PublisherFactory,
		batchSize:      batch,
		pollInterval:   time.Duration(pollMs) * time.Millisecond,
		maxAttempts:    maxAttempts,
		publishTimeout: defaultPublishTimeout,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.publishBatch(ctx); err != nil {
			s.logg.Error(ctx, "outbox batch failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) publishBatch(ctx context.Context) error {
	rows, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	pub := s.newPublisher()
	published, failed, parked := 0, 0, 0
	for _, row := range rows {
		if row.Attempts >= s.maxAttempts {
			parked++
			continue
		}
		if err := s.publishOne(ctx, pub, row); err != nil {
			failed++
			if markErr := s.repo.MarkFailed(row.ID, err); markErr != nil {
				s.logg.Error(ctx, "mark outbox row failed", markErr)
			}
			continue
		}
		if err := s.repo.MarkPublished(row.ID); err != nil {
			s.logg.Error(ctx, "mark outbox row published", err)
			continue
		}
		published++
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"fetched":   len(rows),
		"published": published,
		"failed":    failed,
		"parked":    parked,
	})
	s.logg.Info(logCtx, "outbox batch complete")
	return nil
}

func (s *Service) publishOne(ctx context.Context, pub publisher, row models.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	result := pub.Publish(publishCtx, &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
		},
	})
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", row.EventType, err)
	}
	return nil
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}
