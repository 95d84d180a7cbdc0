package pubsub

import (
	"context"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "shop-prod"}

	assert.Equal(t, "projects/shop-prod/topics/orders", c.topicResourceName(" orders "))
	assert.Equal(t, "projects/other/topics/x", c.topicResourceName("projects/other/topics/x"))
	assert.Empty(t, c.topicResourceName(""))

	var nilClient *Client
	assert.Empty(t, nilClient.topicResourceName("orders"))
	assert.Empty(t, (&Client{}).topicResourceName("orders"))
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "events", PaymentsTopic: " events "})
	assert.Equal(t, []string{"events"}, names)

	assert.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestApplyPublishSettings(t *testing.T) {
	pub := &pubsub.Publisher{PublishSettings: pubsub.DefaultPublishSettings}
	applyPublishSettings(pub, config.PubSubConfig{
		MessageOrdering:       true,
		PublishDelayThreshold: 5 * time.Millisecond,
	})

	assert.True(t, pub.EnableMessageOrdering)
	assert.Equal(t, 5*time.Millisecond, pub.PublishSettings.DelayThreshold)
	assert.Equal(t, pubsub.DefaultPublishSettings.CountThreshold, pub.PublishSettings.CountThreshold)
}
