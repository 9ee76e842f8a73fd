// internal/infrastructure/external/cms/client.go
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
)

// Client reads documents from the headless CMS
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new CMS client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.External.CMS.BaseURL, "/"),
		accessToken: cfg.External.CMS.AccessToken,
		httpClient: &http.Client{
			Timeout: cfg.Checkout.ProviderTimeout,
		},
	}
}

type searchResponse struct {
	Results []catalog.Document `json:"results"`
}

// GetDocument returns the document with uid of docType in locale
func (c *Client) GetDocument(ctx context.Context, docType, uid, locale string) (*catalog.Document, error) {
	query := url.Values{}
	query.Set("type", docType)
	query.Set("uid", uid)
	if locale != "" {
		query.Set("lang", locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, catalog.ErrDocumentNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cms returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cms response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse cms response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, catalog.ErrDocumentNotFound
	}
	return &parsed.Results[0], nil
}

// CachedSource is a read-through Redis cache in front of a DocumentSource.
// Cache failures degrade to the source; misses are not cached.
type CachedSource struct {
	next        catalog.DocumentSource
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewCachedSource wraps next with a Redis cache
func NewCachedSource(next catalog.DocumentSource, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedSource {
	return &CachedSource{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func documentKey(docType, uid, locale string) string {
	return fmt.Sprintf("cms:doc:%s:%s:%s", docType, locale, uid)
}

// GetDocument serves from cache when possible
func (s *CachedSource) GetDocument(ctx context.Context, docType, uid, locale string) (*catalog.Document, error) {
	key := documentKey(docType, uid, locale)

	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		var doc catalog.Document
		if jsonErr := json.Unmarshal(data, &doc); jsonErr == nil {
			return &doc, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WithError(err).WithField("uid", uid).Warn("cms cache read failed")
	}

	doc, err := s.next.GetDocument(ctx, docType, uid, locale)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := s.redisClient.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.WithError(err).WithField("uid", uid).Warn("cms cache write failed")
		}
	}
	return doc, nil
}
