// Package vision is a small client for the moondream inference API.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lighthouse/src/logutil"
)

// DefaultBaseURL is the hosted moondream endpoint.
const DefaultBaseURL = "https://api.moondream.ai/v1"

const authHeader = "X-Moondream-Auth"

// ErrNoAPIKey is returned before any request is made when no key is configured.
var ErrNoAPIKey = errors.New("moondream API key is not set")

// Point is a normalised location, both coordinates in [0,1] of the image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is a normalised box, coordinates in [0,1] of the image.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

type QueryResult struct {
	Answer    string `json:"answer"`
	RequestID string `json:"request_id,omitempty"`
}

type PointResult struct {
	Points    []Point `json:"points"`
	RequestID string  `json:"request_id,omitempty"`
}

type DetectResult struct {
	Objects   []BoundingBox `json:"objects"`
	RequestID string        `json:"request_id,omitempty"`
}

type queryRequest struct {
	ImageURL string `json:"image_url"`
	Question string `json:"question"`
}

type objectRequest struct {
	ImageURL string `json:"image_url"`
	Object   string `json:"object"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Client talks to one moondream endpoint. The key can be swapped at runtime.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	apiKey string
}

// New returns a client for baseURL (DefaultBaseURL when empty). timeout
// bounds each round trip on top of the caller's context; zero means none.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

func (c *Client) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Query asks a free-form question about image, a data URL.
func (c *Client) Query(ctx context.Context, image, question string) (*QueryResult, error) {
	var out QueryResult
	if err := c.post(ctx, "query", queryRequest{ImageURL: image, Question: question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Point locates instances of object in image.
func (c *Client) Point(ctx context.Context, image, object string) (*PointResult, error) {
	var out PointResult
	if err := c.post(ctx, "point", objectRequest{ImageURL: image, Object: object}, &out); err != nil {
		return nil, err
	}
	if out.Points == nil {
		out.Points = []Point{}
	}
	return &out, nil
}

// Detect returns bounding boxes for object in image.
func (c *Client) Detect(ctx context.Context, image, object string) (*DetectResult, error) {
	var out DetectResult
	if err := c.post(ctx, "detect", objectRequest{ImageURL: image, Object: object}, &out); err != nil {
		return nil, err
	}
	if out.Objects == nil {
		out.Objects = []BoundingBox{}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	if key == "" {
		return ErrNoAPIKey
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, key)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("moondream %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logutil.Debugf("vision: %s -> %d in %v (key %s)", path, resp.StatusCode, time.Since(start), logutil.RedactKey(key))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
