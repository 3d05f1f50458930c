// Package youtube is a small client for the YouTube Data API v3 search and
// videos endpoints.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

var (
	ErrAPIKeyMissing = apperr.Unavailable("youtube API key not configured")
	ErrVideoNotFound = apperr.NotFound("video not found")
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 2048

// Client calls the Data API with a fixed key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// New returns a Client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (t *thumbnail) model() *models.Thumbnail {
	if t == nil || t.URL == "" {
		return nil
	}
	return &models.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height}
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Default *thumbnail `json:"default"`
		Medium  *thumbnail `json:"medium"`
		High    *thumbnail `json:"high"`
	} `json:"thumbnails"`
}

func (c *Client) summary(id string, s snippet) models.VideoSummary {
	published, err := time.Parse(time.RFC3339, s.PublishedAt)
	if err != nil {
		published = c.now().UTC()
	}
	return models.VideoSummary{
		ExternalID:   id,
		Title:        s.Title,
		Description:  s.Description,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  published,
		Thumbnails: models.Thumbnails{
			Default: s.Thumbnails.Default.model(),
			Medium:  s.Thumbnails.Medium.model(),
			High:    s.Thumbnails.High.model(),
		},
	}
}

// get performs one API call and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, dst interface{}) error {
	if c.apiKey == "" {
		return ErrAPIKeyMissing
	}
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apperr.Internal("build youtube request", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.External("youtube "+op+" failed", err)
	}
	defer resp.Body.Close()
	log.Ctx(ctx).Debug().Str("op", op).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("youtube api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperr.External("youtube "+op+" failed",
			fmt.Errorf("youtube api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperr.External("youtube "+op+" failed", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Search returns up to maxResults normalized video hits for query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.VideoSummary, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet snippet `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, "search", "/search", params, &result); err != nil {
		return nil, err
	}

	out := make([]models.VideoSummary, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		out = append(out, c.summary(item.ID.VideoID, item.Snippet))
	}
	return out, nil
}

// Details fetches snippet, duration and statistics for one video.
func (c *Client) Details(ctx context.Context, externalID string) (models.VideoDetails, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", externalID)

	var result struct {
		Items []struct {
			ID             string  `json:"id"`
			Snippet        snippet `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := c.get(ctx, "details", "/videos", params, &result); err != nil {
		return models.VideoDetails{}, err
	}
	if len(result.Items) == 0 {
		return models.VideoDetails{}, ErrVideoNotFound
	}

	item := result.Items[0]
	return models.VideoDetails{
		VideoSummary: c.summary(item.ID, item.Snippet),
		Duration:     FormatDuration(item.ContentDetails.Duration),
		ViewCount:    parseCount(item.Statistics.ViewCount),
		LikeCount:    parseCount(item.Statistics.LikeCount),
		CommentCount: parseCount(item.Statistics.CommentCount),
	}, nil
}

// Statistics are sent as decimal strings and omitted when hidden.
func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
