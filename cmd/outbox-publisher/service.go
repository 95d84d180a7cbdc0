package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type pinger interface {
	Ping(context.Context) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
	Park(ctx context.Context, id uuid.UUID, maxAttempts int, err error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               pinger
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	Metrics          *metrics.OutboxMetrics
}

type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               pinger
	repo             outboxRepository
	pubsub           pubSubClient
	registry         registryResolver
	publisherFactory publisherFactory
	metrics          *metrics.OutboxMetrics
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration

	mu         sync.Mutex
	publishers map[string]publisher
}

// aggregateKey identifies the stream an event belongs to. Events of one
// aggregate are published in creation order.
type aggregateKey struct {
	kind string
	id   int64
}

func (k aggregateKey) String() string {
	return k.kind + ":" + strconv.FormatInt(k.id, 10)
}

func keyOf(event models.OutboxEvent) aggregateKey {
	return aggregateKey{kind: string(event.AggregateType), id: event.AggregateID}
}

func (p ServiceParams) validate() error {
	var errs error
	for name, missing := range map[string]bool{
		"config":            p.Config == nil,
		"logger":            p.Logger == nil,
		"database client":   p.DB == nil,
		"pubsub client":     p.PubSub == nil,
		"outbox repository": p.Repository == nil,
		"event registry":    p.Registry == nil,
	} {
		if missing {
			errs = multierr.Append(errs, fmt.Errorf("%s is required", name))
		}
	}
	return errs
}

// orDefault returns v unless it is not positive.
func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func NewService(params ServiceParams) (*Service, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		registry:         params.Registry,
		publisherFactory: params.PublisherFactory,
		metrics:          params.Metrics,
		batchSize:        orDefault(params.Config.Outbox.BatchSize, defaultBatchSize),
		maxAttempts:      orDefault(params.Config.Outbox.MaxAttempts, defaultMaxAttempts),
		pollInterval:     time.Duration(orDefault(params.Config.Outbox.PollIntervalMS, defaultPollMs)) * time.Millisecond,
		publishers:       map[string]publisher{},
	}
	if svc.publisherFactory == nil {
		svc.publisherFactory = func(topic string) publisher {
			return newGCPPublisher(params.PubSub.Publisher(topic))
		}
	}
	return svc, nil
}

// publisherFor returns the cached publisher for topic, creating it on first use.
func (s *Service) publisherFor(topic string) publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pub, ok := s.publishers[topic]; ok {
		return pub
	}
	pub := s.publisherFactory(topic)
	if pub != nil {
		s.publishers[topic] = pub
	}
	return pub
}

// stopPublishers flushes pending messages and releases every cached publisher.
func (s *Service) stopPublishers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, pub := range s.publishers {
		pub.Stop()
		delete(s.publishers, topic)
	}
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	return pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	defer s.stopPublishers()

	interval := s.pollInterval
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch. A failing row never stops other aggregates;
// later rows of the aggregate that failed wait for the next batch so consumers
// never see them out of order. Bookkeeping errors are collected and returned together.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(events) == 0 {
		return false, nil
	}

	var errs error
	blocked := map[aggregateKey]bool{}
	for _, event := range events {
		key := keyOf(event)
		if blocked[key] {
			s.logg.Debug(s.logg.WithFields(ctx, s.eventFields(event, outbox.PayloadEnvelope{}, "")), "outbox event held behind failed predecessor")
			continue
		}
		retry, err := s.processEvent(ctx, event)
		if retry {
			blocked[key] = true
		}
		errs = multierr.Append(errs, err)
	}
	return true, errs
}

// processEvent reports retry=true when the row stays queued for another attempt.
func (s *Service) processEvent(ctx context.Context, event models.OutboxEvent) (retry bool, err error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return false, s.park(ctx, event, err, "", nil)
	}

	fields := s.eventFields(event, resolved.Envelope, resolved.Descriptor.Topic)
	if err := s.publishResolved(ctx, event, resolved); err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return false, s.park(ctx, event, err, resolved.Descriptor.Topic, fields)
		}

		nextAttempt := event.AttemptCount + 1
		fields["attempt_count"] = nextAttempt

		if nextAttempt >= s.maxAttempts {
			fields["terminal_reason"] = "max_attempts"
			return false, s.park(ctx, event, fmt.Errorf("max publish attempts reached: %w", err), resolved.Descriptor.Topic, fields)
		}

		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox publish failed")
		s.metrics.Failed(string(event.EventType))
		if markErr := s.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
			return true, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
		}
		return true, nil
	}

	// a failed mark means the row is published again later; consumers dedupe on event_id
	if markErr := s.repo.MarkPublished(ctx, event.ID); markErr != nil {
		return false, fmt.Errorf("mark published %s: %w", event.ID, markErr)
	}
	s.metrics.Published(string(event.EventType))
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	return false, nil
}

// park marks the row terminal so it is never fetched again.
func (s *Service) park(ctx context.Context, event models.OutboxEvent, err error, topic string, fields map[string]any) error {
	if fields == nil {
		fields = s.eventFields(event, outbox.PayloadEnvelope{}, topic)
	}
	logCtx := s.logg.WithFields(ctx, fields)
	logCtx = s.logg.WithField(logCtx, "error", err.Error())
	s.logg.Warn(logCtx, "outbox event will not be retried")

	s.metrics.Parked(string(event.EventType))
	if markErr := s.repo.Park(ctx, event.ID, s.maxAttempts, err); markErr != nil {
		return fmt.Errorf("park %s: %w", event.ID, markErr)
	}
	return nil
}

func (s *Service) publishResolved(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"schema_version": strconv.Itoa(resolved.Envelope.Version),
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   strconv.FormatInt(event.AggregateID, 10),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if s.cfg.PubSub.MessageOrdering {
		msg.OrderingKey = keyOf(event).String()
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

// gcpPublisher adapts the concrete publisher; Stop is promoted from the embedded value.
type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		publisher:     p.Publisher,
		orderingKey:   msg.OrderingKey,
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	publisher   *gcppubsub.Publisher
	orderingKey string
}

// Get waits for the server ack. A failed ordered publish pauses its key until resumed;
// the row itself is retried by the next poll.
func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.orderingKey != "" {
		r.publisher.ResumePublish(r.orderingKey)
	}
	return id, err
}
