// Package covers implements the bookcover_api premium feature: cover image
// lookup for an ISBN against an external cover API.
package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openshelf/openshelf/internal/feature"
)

// FeatureID is the registry key for this implementation.
const FeatureID = "bookcover_api"

const defaultBaseURL = "https://bookcover.longitood.com/bookcover"

// Service fetches cover URLs by ISBN.
type Service struct {
	baseURL string
	client  *http.Client
}

// New creates the cover service. An empty baseURL uses the public API.
func New(baseURL string) *Service {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Service{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// FeatureID implements feature.Implementation.
func (s *Service) FeatureID() string { return FeatureID }

// Invoke implements feature.Implementation. Supported operations:
//   - "cover_by_isbn" (isbn) -> cover URL string
func (s *Service) Invoke(ctx context.Context, op string, args feature.Args) (any, error) {
	switch op {
	case "cover_by_isbn":
		return s.coverByISBN(ctx, args.String("isbn"))
	default:
		return nil, fmt.Errorf("%w: %s", feature.ErrUnknownOperation, op)
	}
}

func (s *Service) coverByISBN(ctx context.Context, isbn string) (string, error) {
	if isbn == "" {
		return "", fmt.Errorf("isbn is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+isbn, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cover lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover lookup: status %d", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode cover response: %w", err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("no cover for isbn %s", isbn)
	}
	return body.URL, nil
}
