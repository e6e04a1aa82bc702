// Package metrics periodically samples each user's Google Maps listing for
// its star rating and review count, building the history the dashboard
// charts.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

var ErrNoMapsURL = errors.New("user has no google maps url")

// Listing metrics extraction patterns, tried in order. Listings render
// differently per locale so several shapes are probed.
var (
	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"ratingValue":\s*"?(\d[.,]\d)"?`),
		regexp.MustCompile(`(?i)(\d[.,]\d)\s*stars`),
		regexp.MustCompile(`(?i)aria-label="(\d[.,]\d)\s*star`),
	}
	reviewPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"reviewCount":\s*"?(\d+)"?`),
		regexp.MustCompile(`(?i)(\d[\d\s,]*)\s*reviews`),
		regexp.MustCompile(`\((\d[\d\s,]*)\)`),
	}
)

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxListingBody bounds how much of the listing page is read.
const maxListingBody = 2 << 20

// Snapshot is one observed (rating, review count) pair. Either field may be
// nil when the page did not expose it.
type Snapshot struct {
	Rating      *float64
	ReviewCount *int
}

// Fetcher retrieves current listing metrics for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, listingURL string) (Snapshot, error)
}

// HTTPFetcher implements Fetcher by scraping the listing page.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, listingURL string) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("fetching listing: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBody))
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading listing body: %w", err)
	}

	return ParseListing(string(body)), nil
}

// ParseListing extracts rating and review count from listing page HTML.
// Fields the page does not expose stay nil.
func ParseListing(html string) Snapshot {
	var snap Snapshot

	for _, p := range ratingPatterns {
		if m := p.FindStringSubmatch(html); m != nil {
			if r, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64); err == nil {
				snap.Rating = &r
				break
			}
		}
	}

	for _, p := range reviewPatterns {
		if m := p.FindStringSubmatch(html); m != nil {
			digits := strings.NewReplacer(" ", "", ",", "").Replace(m[1])
			if c, err := strconv.Atoi(digits); err == nil {
				snap.ReviewCount = &c
				break
			}
		}
	}

	return snap
}

// Collector records listing snapshots for users that configured a Maps URL.
type Collector struct {
	store   store.Store
	fetcher Fetcher
}

// NewCollector creates a Collector.
func NewCollector(s store.Store, f Fetcher) *Collector {
	return &Collector{store: s, fetcher: f}
}

// RefreshUser fetches and records one snapshot for a single user.
func (c *Collector) RefreshUser(ctx context.Context, userID uuid.UUID) (*models.GoogleMetricsSnapshot, error) {
	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GoogleMapsURL == nil || *user.GoogleMapsURL == "" {
		return nil, ErrNoMapsURL
	}

	snap, err := c.fetcher.Fetch(ctx, *user.GoogleMapsURL)
	if err != nil {
		return nil, err
	}

	row := &models.GoogleMetricsSnapshot{
		ID:           uuid.New(),
		UserID:       user.ID,
		GoogleRating: snap.Rating,
		ReviewCount:  snap.ReviewCount,
		RecordedAt:   time.Now().UTC(),
	}
	if err := c.store.InsertMetricsSnapshot(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// CollectAll records one snapshot for every user with a Maps URL. Per-user
// failures are logged and skipped so one bad listing cannot stall the run.
func (c *Collector) CollectAll(ctx context.Context) error {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return err
	}

	for _, u := range users {
		if u.GoogleMapsURL == nil || *u.GoogleMapsURL == "" {
			continue
		}
		if _, err := c.RefreshUser(ctx, u.ID); err != nil {
			slog.Warn("metrics collection failed for user", "user_id", u.ID, "error", err)
		}
	}
	return nil
}

// RunPeriodic collects snapshots on a fixed interval until ctx is cancelled.
func (c *Collector) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.CollectAll(ctx); err != nil {
				slog.Error("periodic metrics collection", "error", err)
			}
		}
	}
}
