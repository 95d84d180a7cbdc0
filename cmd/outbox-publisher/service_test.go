package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			orderEvent(t, 1, 0),
			orderEvent(t, 2, 0),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub, newTestRegistry(t), nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServicePublishesAttributes(t *testing.T) {
	event := orderEvent(t, 42, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, newTestRegistry(t), nil)

	var topics []string
	service.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(topics) != 1 || topics[0] != "orders-topic" {
		t.Fatalf("unexpected topics %v", topics)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.sent))
	}
	attrs := pub.sent[0].Attributes
	if attrs["aggregate_id"] != "42" {
		t.Fatalf("unexpected aggregate_id attribute %q", attrs["aggregate_id"])
	}
	if attrs["event_type"] != string(enums.EventOrderCreated) {
		t.Fatalf("unexpected event_type attribute %q", attrs["event_type"])
	}
	if attrs["event_id"] != event.ID.String() {
		t.Fatalf("unexpected event_id attribute %q", attrs["event_id"])
	}
	if attrs["schema_version"] != "1" {
		t.Fatalf("unexpected schema_version attribute %q", attrs["schema_version"])
	}
	if pub.sent[0].OrderingKey != "" {
		t.Fatalf("ordering key must stay empty when ordering is disabled")
	}
}

func TestServiceSetsOrderingKeyPerAggregate(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{orderEvent(t, 42, 0)}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, newTestRegistry(t), nil)
	service.cfg.PubSub.MessageOrdering = true

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := pub.sent[0].OrderingKey; got != "order:42" {
		t.Fatalf("unexpected ordering key %q", got)
	}
}

func TestServiceHoldsLaterEventsOfFailedAggregate(t *testing.T) {
	first := orderEvent(t, 7, 0)
	second := orderEvent(t, 7, 0)
	other := orderEvent(t, 8, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second, other}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	service := newTestService(t, repo, pub, newTestRegistry(t), &config.OutboxConfig{BatchSize: 3, PollIntervalMS: 100, MaxAttempts: 5})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.sent) != 2 {
		t.Fatalf("expected the held event to stay unsent, sent %d", len(pub.sent))
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected only the first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != other.ID {
		t.Fatalf("expected the unrelated aggregate to publish, got %v", repo.published)
	}
}

func TestServiceCachesAndStopsPublishers(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{orderEvent(t, 1, 0), orderEvent(t, 2, 0)}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}, fakePublishResult{}}}
	service := newTestService(t, repo, pub, newTestRegistry(t), nil)

	calls := 0
	service.publisherFactory = func(string) publisher {
		calls++
		return pub
	}
	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one publisher per topic, factory called %d times", calls)
	}

	service.stopPublishers()
	if !pub.stopped {
		t.Fatalf("expected cached publisher to be stopped")
	}
	if len(service.publishers) != 0 {
		t.Fatalf("expected cache cleared")
	}
}

func TestServiceParksNonRetryable(t *testing.T) {
	event := orderEvent(t, 3, 0)
	event.AggregateType = enums.AggregatePayment
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := metrics.NewRegistry()
	service := newTestService(t, repo, &fakePublisher{}, newTestRegistry(t), nil)
	service.metrics = reg.Outbox

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.parked) != 1 || repo.parked[0] != event.ID {
		t.Fatalf("expected event parked, got %v", repo.parked)
	}
	if got := counterValue(t, reg.Registry, "outbox_events_parked_total"); got != 1 {
		t.Fatalf("expected parked counter 1, got %v", got)
	}
}

func TestServiceParksAtMaxAttempts(t *testing.T) {
	event := orderEvent(t, 4, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	service := newTestService(t, repo, pub, newTestRegistry(t), &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.parked) != 1 {
		t.Fatalf("expected row parked, got %d", len(repo.parked))
	}
	if len(repo.failed) != 0 {
		t.Fatalf("terminal rows must not be marked failed")
	}
	if !strings.Contains(repo.parkErr.Error(), "max publish attempts") {
		t.Fatalf("unexpected park reason %v", repo.parkErr)
	}
}

func TestServiceAggregatesBookkeepingErrors(t *testing.T) {
	repo := &fakeRepo{
		events:     []models.OutboxEvent{orderEvent(t, 5, 0), orderEvent(t, 6, 0)},
		publishErr: errors.New("db gone"),
	}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}, fakePublishResult{}}}
	service := newTestService(t, repo, pub, newTestRegistry(t), nil)

	_, err := service.processBatch(context.Background())
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if got := strings.Count(err.Error(), "db gone"); got != 2 {
		t.Fatalf("expected both row errors, got %q", err.Error())
	}
}

func TestServiceEmptyBatch(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakePublisher{}, newTestRegistry(t), nil)

	processed, err := service.processBatch(context.Background())
	if err != nil || processed {
		t.Fatalf("expected idle batch, got processed=%v err=%v", processed, err)
	}
}

func TestNextBackoffCaps(t *testing.T) {
	base := 100 * time.Millisecond
	if got := nextBackoff(base, base, time.Second); got != 200*time.Millisecond {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := nextBackoff(800*time.Millisecond, base, time.Second); got != time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
	if got := withJitter(base); got < base || got >= base+jitterWindow {
		t.Fatalf("jitter out of window: %v", got)
	}
}

func newTestRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{
		OrdersTopic:   "orders-topic",
		PaymentsTopic: "payments-topic",
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, registry registryResolver, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{
		Outbox: outboxCfg,
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         registry,
		PublisherFactory: func(_ string) publisher { return pub },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func orderEvent(tb testing.TB, orderID int64, attempts int) models.OutboxEvent {
	tb.Helper()
	id := uuid.New()
	data, err := json.Marshal(map[string]any{"order_id": orderID, "order_number": "ORD-TEST", "user_id": 1, "total": "10.00", "item_count": 1})
	if err != nil {
		tb.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now(),
	}
}

func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += counterOf(m)
		}
	}
	return total
}

func counterOf(m *dto.Metric) float64 {
	if m.GetCounter() == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	parked     []uuid.UUID
	parkErr    error
	publishErr error
}

func (f *fakeRepo) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) Park(ctx context.Context, id uuid.UUID, maxAttempts int, err error) error {
	f.parked = append(f.parked, id)
	f.parkErr = err
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) Publisher(name string) *gcppubsub.Publisher {
	return nil
}

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
	stopped bool
}

func (f *fakePublisher) Stop() {
	f.stopped = true
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

func TestNewServiceReportsEveryMissingDependency(t *testing.T) {
	_, err := NewService(ServiceParams{Config: &config.Config{}})
	if err == nil {
		t.Fatal("expected error for missing dependencies")
	}
	for _, name := range []string{"logger", "database client", "pubsub client", "outbox repository", "event registry"} {
		if !strings.Contains(err.Error(), name+" is required") {
			t.Fatalf("expected %q in %v", name, err)
		}
	}
	if strings.Contains(err.Error(), "config is required") {
		t.Fatalf("config was supplied: %v", err)
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, newTestRegistry(t), &config.OutboxConfig{})
	if svc.batchSize != defaultBatchSize || svc.maxAttempts != defaultMaxAttempts {
		t.Fatalf("unexpected defaults batch=%d attempts=%d", svc.batchSize, svc.maxAttempts)
	}
	if svc.pollInterval != time.Duration(defaultPollMs)*time.Millisecond {
		t.Fatalf("unexpected poll interval %v", svc.pollInterval)
	}
}
