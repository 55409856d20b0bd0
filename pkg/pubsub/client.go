// Package pubsub connects to Google Cloud Pub/Sub for queue event fan-out.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub events topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client owns the Pub/Sub connection and the events topic publisher. The
// publisher is created once so Close can flush it before disconnecting.
type Client struct {
	client    *pubsub.Client
	projectID string
	topic     string
	events    *pubsub.Publisher
}

// NewClient connects to Pub/Sub and fails fast when the events topic is
// missing. Topics are provisioned out of band.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	raw, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: raw, projectID: projectID, topic: cfg.EventsTopic}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	c.events = c.Publisher(cfg.EventsTopic)

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"gcp_project": projectID,
			"topic":       c.topicResourceName(cfg.EventsTopic),
		}), "pubsub client initialized")
	}
	return c, nil
}

// Publisher returns a new handle for name, which may be a bare topic id or
// a full resource path.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	path := c.topicResourceName(name)
	if path == "" {
		return nil
	}
	return c.client.Publisher(path)
}

// EventsPublisher returns the shared publisher for the configured topic.
func (c *Client) EventsPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.events
}

// Ping checks that the events topic is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	path := c.topicResourceName(c.topic)
	if path == "" {
		return errNoTopic
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: path})
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return fmt.Errorf("topic %q does not exist", path)
	default:
		return fmt.Errorf("checking topic %q: %w", path, err)
	}
}

// Close flushes outstanding publishes then releases the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.events != nil {
		c.events.Stop()
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	return topicPath(c.projectID, name)
}

func topicPath(projectID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}
