package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendpulse/internal/models"
)

// Fetcher is one upstream trend-data source in the fallback chain.
type Fetcher interface {
	// Name tags records and responses produced from this source.
	Name() string

	// Fetch returns keyword/score pairs for a topic. An empty slice and a
	// nil error both mean "nothing usable"; the chain moves on either way.
	Fetch(ctx context.Context, topic, geo string) ([]models.RawTrend, error)
}

// widgetPayload is the shape of the trends widget JSON after the XSSI
// prefix is stripped.
type widgetPayload struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []struct {
				Query string `json:"query"`
				Value int    `json:"value"`
			} `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// xssiPrefix guards the widget endpoint's JSON body.
const xssiPrefix = ")]}',"

const maxResponseBytes = 1 << 20

// RelatedSearchesFetcher queries the trends related-searches widget
// endpoint for a single metric (TOP or RISING). The endpoint normally
// wants a session token; without one this is best effort, which is why it
// sits inside a fallback chain.
type RelatedSearchesFetcher struct {
	name     string
	metric   string
	baseURL  string
	client   *http.Client
	scoreMin int
}

// NewTopSearchesFetcher builds the primary fetcher (TOP related queries).
func NewTopSearchesFetcher(baseURL string, timeout time.Duration, scoreMin int) *RelatedSearchesFetcher {
	return newRelatedSearchesFetcher("google_trends", "TOP", baseURL, timeout, scoreMin)
}

// NewRisingSearchesFetcher builds the secondary fetcher (RISING queries).
func NewRisingSearchesFetcher(baseURL string, timeout time.Duration, scoreMin int) *RelatedSearchesFetcher {
	return newRelatedSearchesFetcher("google_trends_rising", "RISING", baseURL, timeout, scoreMin)
}

func newRelatedSearchesFetcher(name, metric, baseURL string, timeout time.Duration, scoreMin int) *RelatedSearchesFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelatedSearchesFetcher{
		name:     name,
		metric:   metric,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		scoreMin: scoreMin,
	}
}

func (f *RelatedSearchesFetcher) Name() string {
	return f.name
}

// Fetch queries the widget endpoint and keeps keywords scoring above the
// relevance threshold.
func (f *RelatedSearchesFetcher) Fetch(ctx context.Context, topic, geo string) ([]models.RawTrend, error) {
	reqBlob, err := json.Marshal(map[string]any{
		"restriction": map[string]any{
			"complexKeywordsRestriction": map[string]any{
				"keyword": []map[string]string{{"type": "BROAD", "value": topic}},
			},
		},
		"keywordType":        "QUERY",
		"metric":             []string{f.metric},
		"trendinessSettings": map[string]string{"compareTime": "now 7-d"},
		"requestOptions":     map[string]any{"property": geo, "backend": "IZG", "category": 0},
		"language":           "id",
	})
	if err != nil {
		return nil, fmt.Errorf("build widget request: %w", err)
	}

	q := url.Values{}
	q.Set("hl", "id")
	q.Set("tz", "420")
	q.Set("req", string(reqBlob))
	q.Set("token", "")

	endpoint := f.baseURL + "/trends/api/widgetdata/relatedsearches?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s fetch: unexpected status %d", f.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", f.name, err)
	}

	var payload widgetPayload
	trimmed := strings.TrimPrefix(strings.TrimSpace(string(body)), xssiPrefix)
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("%s decode: %w", f.name, err)
	}

	var results []models.RawTrend
	for _, list := range payload.Default.RankedList {
		for _, kw := range list.RankedKeyword {
			if kw.Query == "" || kw.Value <= f.scoreMin {
				continue
			}
			results = append(results, models.RawTrend{Keyword: kw.Query, Score: kw.Value})
		}
	}
	return results, nil
}
