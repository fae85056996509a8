// Package plex is a minimal client for the media server's XML API, covering
// only what collection reconciliation needs: section lookup, title search,
// episode resolution and collection mutation.
package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a section, item or episode cannot be located
var ErrNotFound = errors.New("not found in library")

const (
	connectInitialDelay = 5 * time.Second
	connectMaxAttempts  = 6

	// How long cached section keys and title lists stay valid. Fuzzy
	// candidate lists tolerate a few minutes of staleness.
	cacheTTL = 5 * time.Minute
)

// MediaContainer is the envelope of every XML API response
type MediaContainer struct {
	XMLName           xml.Name   `xml:"MediaContainer"`
	Size              int        `xml:"size,attr"`
	MachineIdentifier string     `xml:"machineIdentifier,attr"`
	Directories       []Metadata `xml:"Directory"`
	Videos            []Metadata `xml:"Video"`
}

// Metadata is a single Directory or Video element
type Metadata struct {
	RatingKey   string `xml:"ratingKey,attr"`
	Key         string `xml:"key,attr"`
	Title       string `xml:"title,attr"`
	Type        string `xml:"type,attr"`
	ParentIndex int    `xml:"parentIndex,attr"` // season number for episodes
	Index       int    `xml:"index,attr"`       // episode number for episodes
	ChildCount  int    `xml:"childCount,attr"`
}

// Item is a catalog entry (movie, show or episode) referenced by rating key
type Item struct {
	RatingKey string
	Title     string
	Type      string
}

// Collection is a named ordered collection within a library section
type Collection struct {
	RatingKey  string
	Title      string
	ChildCount int
}

// Client talks to the media server
type Client struct {
	baseURL    *url.URL
	token      string
	machineID  string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new media server client. The base URL must be a
// well-formed absolute URL.
func NewClient(rawURL, token string, logger *logrus.Logger) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%q is not a valid URL", rawURL)
	}
	if token == "" {
		return nil, fmt.Errorf("media server token is required")
	}

	return &Client{
		baseURL:    parsed,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
	}, nil
}

// Connect verifies the server is reachable and records its machine
// identifier, which collection mutations need for item URIs.
func (c *Client) Connect(ctx context.Context) error {
	var container MediaContainer
	if err := c.get(ctx, "/", nil, &container); err != nil {
		return fmt.Errorf("failed to reach media server: %w", err)
	}

	c.machineID = container.MachineIdentifier
	c.logger.WithField("machine_id", c.machineID).Info("Successfully connected to media server")
	return nil
}

// ConnectWithRetry retries Connect with exponential backoff: six attempts
// starting at five seconds and doubling. Startup is fatal if all fail.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = connectInitialDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		return c.Connect(ctx)
	}
	notify := func(err error, delay time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":  attempt,
			"retry_in": delay.String(),
		}).Warn("Failed to connect to media server, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithMaxRetries(bo, connectMaxAttempts-1), notify); err != nil {
		return fmt.Errorf("max retries exceeded connecting to media server: %w", err)
	}
	return nil
}

// get performs a GET request and decodes the XML response into result
func (c *Client) get(ctx context.Context, path string, query url.Values, result *MediaContainer) error {
	return c.do(ctx, http.MethodGet, path, query, result)
}

// do performs a request against the XML API. Mutations pass a nil result.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, result *MediaContainer) error {
	reqURL := *c.baseURL
	reqURL.Path = path
	if query == nil {
		query = url.Values{}
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("Media server API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("media server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("media server returned status %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := xml.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to parse XML response: %w", err)
		}
	}
	return nil
}

// metadataURI builds the server-scoped URI used to reference an item in
// collection mutations
func (c *Client) metadataURI(item Item) string {
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		c.machineID, item.RatingKey)
}
