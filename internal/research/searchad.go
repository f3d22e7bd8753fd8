package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/httpclient"
)

// KeywordStat is one row from the keyword tool endpoint.
type KeywordStat struct {
	Term        string
	Volume      int
	Competition float64
}

// SearchAdClient queries the search-ad keyword tool API.
type SearchAdClient struct {
	cfg    config.Research
	client *httpclient.Client
	now    func() time.Time
}

// NewSearchAdClient builds a client from research config.
func NewSearchAdClient(cfg config.Research) *SearchAdClient {
	return &SearchAdClient{
		cfg:    cfg,
		client: httpclient.New(15 * time.Second),
		now:    time.Now,
	}
}

type keywordToolResponse struct {
	KeywordList []struct {
		RelKeyword     string          `json:"relKeyword"`
		MonthlyPcCnt   json.RawMessage `json:"monthlyPcQcCnt"`
		MonthlyMobCnt  json.RawMessage `json:"monthlyMobileQcCnt"`
		CompetitionIdx string          `json:"compIdx"`
	} `json:"keywordList"`
}

// RelatedKeywords returns stats for the seed term and related terms.
func (c *SearchAdClient) RelatedKeywords(ctx context.Context, seed string) ([]KeywordStat, error) {
	if strings.TrimSpace(c.cfg.APIBase) == "" {
		return nil, fmt.Errorf("research api_base not configured")
	}
	uri := "/keywordstool"
	q := url.Values{}
	// The API rejects keywords containing spaces.
	q.Set("hintKeywords", strings.ReplaceAll(strings.TrimSpace(seed), " ", ""))
	q.Set("showDetail", "1")

	ts := c.now().UnixMilli()
	headers := map[string]string{
		"X-Timestamp": strconv.FormatInt(ts, 10),
		"X-API-KEY":   c.cfg.AccessKey,
		"X-Customer":  c.cfg.CustomerID,
		"X-Signature": Sign(c.cfg.SecretKey, ts, "GET", uri),
	}
	resp, err := c.client.Get(ctx, strings.TrimRight(c.cfg.APIBase, "/")+uri+"?"+q.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("keyword tool request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("keyword tool returned %d", resp.StatusCode)
	}
	var parsed keywordToolResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode keyword tool response: %w", err)
	}
	var out []KeywordStat
	for _, row := range parsed.KeywordList {
		out = append(out, KeywordStat{
			Term:        row.RelKeyword,
			Volume:      parseCount(row.MonthlyPcCnt) + parseCount(row.MonthlyMobCnt),
			Competition: competitionIndex(row.CompetitionIdx),
		})
	}
	return out, nil
}

// parseCount handles the API quirk of returning either a number or the
// string "< 10" for low-volume keywords.
func parseCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.Contains(s, "<") {
			return 5
		}
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

func competitionIndex(idx string) float64 {
	switch strings.TrimSpace(idx) {
	case "높음":
		return 0.8
	case "보통", "중간":
		return 0.5
	case "낮음":
		return 0.2
	}
	return 0.5
}
