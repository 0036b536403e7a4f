// Package natcat implements the national_catalog premium feature: book
// metadata lookup against a national library bibliographic API.
package natcat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openshelf/openshelf/internal/feature"
)

// FeatureID is the registry key for this implementation.
const FeatureID = "national_catalog"

const (
	defaultBaseURL = "https://data.bn.org.pl/api/institutions/bibs.json"
	userAgent      = "openshelf/1.0 (library catalog)"
)

// Metadata is the bibliographic record returned by metadata_by_isbn.
type Metadata struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// Service queries the national bibliographic catalog.
type Service struct {
	baseURL string
	client  *http.Client
}

// New creates the metadata service. An empty baseURL uses the public API.
func New(baseURL string) *Service {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Service{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FeatureID implements feature.Implementation.
func (s *Service) FeatureID() string { return FeatureID }

// Invoke implements feature.Implementation. Supported operations:
//   - "metadata_by_isbn" (isbn) -> *Metadata
func (s *Service) Invoke(ctx context.Context, op string, args feature.Args) (any, error) {
	switch op {
	case "metadata_by_isbn":
		return s.metadataByISBN(ctx, args.String("isbn"))
	default:
		return nil, fmt.Errorf("%w: %s", feature.ErrUnknownOperation, op)
	}
}

func (s *Service) metadataByISBN(ctx context.Context, isbn string) (*Metadata, error) {
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}

	q := url.Values{}
	q.Set("isbnIssn", isbn)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog lookup: status %d", resp.StatusCode)
	}

	var body struct {
		Bibs []struct {
			Title           string `json:"title"`
			Author          string `json:"author"`
			Publisher       string `json:"publisher"`
			PublicationYear string `json:"publicationYear"`
		} `json:"bibs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if len(body.Bibs) == 0 {
		return nil, fmt.Errorf("no record for isbn %s", isbn)
	}

	rec := body.Bibs[0]
	md := &Metadata{
		ISBN:      isbn,
		Title:     rec.Title,
		Author:    rec.Author,
		Publisher: rec.Publisher,
	}
	// Publication year arrives as free text; keep only a clean number.
	var year int
	if _, err := fmt.Sscanf(rec.PublicationYear, "%d", &year); err == nil {
		md.Year = year
	}
	return md, nil
}
