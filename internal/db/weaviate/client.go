// Package weaviate is the document store adapter: GraphQL queries, object
// writes and schema inspection over the Weaviate client.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/kailas-cloud/reformhub/internal/db"
	"github.com/kailas-cloud/reformhub/internal/domain"
)

// Compile-time check: Client implements db.Pinger.
var _ db.Pinger = (*Client)(nil)

// Config holds connection parameters for a Weaviate instance.
type Config struct {
	// Host is host[:port] without scheme.
	Host   string
	Scheme string
	APIKey string
	// Headers are forwarded on every request, e.g. X-OpenAI-Api-Key for a vectorizer module.
	Headers map[string]string
	Timeout time.Duration
}

// Client wraps the Weaviate client.
type Client struct {
	client *weaviate.Client
}

// New creates a Weaviate client. Host may carry a scheme prefix, which then wins over Scheme.
func New(cfg Config) (*Client, error) {
	host, scheme := splitHost(cfg.Host, cfg.Scheme)
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}

	wcfg := weaviate.Config{
		Host:    host,
		Scheme:  scheme,
		Headers: cfg.Headers,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	if cfg.Timeout > 0 {
		wcfg.ConnectionClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Client{client: client}, nil
}

func splitHost(raw, scheme string) (host, sch string) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), "https"
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), "http"
	}
	if scheme == "" {
		scheme = "https"
	}
	return strings.TrimSuffix(raw, "/"), scheme
}

// Ping checks that the instance reports ready.
func (c *Client) Ping(ctx context.Context) error {
	ready, err := c.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if !ready {
		return &db.Error{Op: db.OpPing, Err: errors.New("weaviate not ready")}
	}
	return nil
}

// WaitForReady polls Ping until the instance responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for weaviate: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	meta, err := c.client.Misc().MetaGetter().Do(ctx)
	if err != nil {
		return "", &db.Error{Op: OpMeta, Err: err}
	}
	return meta.Version, nil
}

// Class returns the schema of one class. A missing class is domain.ErrNotFound.
func (c *Client) Class(ctx context.Context, name string) (*models.Class, error) {
	class, err := c.client.Schema().ClassGetter().WithClassName(name).Do(ctx)
	if err != nil {
		return nil, wrap(OpSchema, err)
	}
	return class, nil
}

// Classes lists the names of every class in the schema.
func (c *Client) Classes(ctx context.Context) ([]string, error) {
	dump, err := c.client.Schema().Getter().Do(ctx)
	if err != nil {
		return nil, wrap(OpSchema, err)
	}
	names := make([]string, 0, len(dump.Classes))
	for _, cl := range dump.Classes {
		names = append(names, cl.Class)
	}
	return names, nil
}

// Op names for error context.
const (
	OpQuery  = "GRAPHQL"
	OpObject = "OBJECT"
	OpCreate = "CREATE"
	OpMerge  = "MERGE"
	OpSchema = "SCHEMA"
	OpMeta   = "META"
)

// wrap maps client errors to domain sentinels where the status code says so.
func wrap(op string, err error) error {
	var werr *fault.WeaviateClientError
	if errors.As(err, &werr) {
		switch werr.StatusCode {
		case http.StatusNotFound:
			return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrNotFound, err)}
		case http.StatusUnprocessableEntity:
			if strings.Contains(strings.ToLower(werr.Msg), "already exists") {
				return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)}
			}
			return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)}
		}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)}
}
