package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/forPelevin/scenereel/internal/ports"
	"github.com/forPelevin/scenereel/internal/types"
)

const (
	searchPath     = "/videos/search"
	perPage        = 1
	copyBufferSize = 32 * 1024
	errorBodyLimit = 4096
)

type Options struct {
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
	HTTPClient        *http.Client
}

type Adapter struct {
	key     string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func New(apiKey string, o Options) *Adapter {
	client := o.HTTPClient
	if client == nil {
		timeout := o.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if o.RequestsPerSecond > 0 {
		limit = rate.Limit(o.RequestsPerSecond)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{
		key:     apiKey,
		baseURL: normalizeBaseURL(o.BaseURL),
		client:  client,
		limiter: rate.NewLimiter(limit, 2),
		logger:  logger,
	}
}

type searchResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		URL        string  `json:"url"`
		Duration   float64 `json:"duration"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		VideoFiles []struct {
			Link     string `json:"link"`
			Quality  string `json:"quality"`
			FileType string `json:"file_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search asks for a single matching video. A successful call with no usable
// video returns an empty slice and a nil error.
func (a *Adapter) Search(ctx context.Context, query string) ([]types.ClipDescriptor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ports.SearchError{Query: query, Err: errors.New("empty query")}
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &ports.SearchError{Query: query, Err: err}
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprint(perPage))
	u := a.baseURL + searchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ports.SearchError{Query: query, Err: err}
	}
	req.Header.Set("Authorization", a.key)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &ports.SearchError{Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &ports.SearchError{
			Query:      query,
			StatusCode: resp.StatusCode,
			Body:       truncate(redactSecrets(string(rb), a.key), 400),
		}
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ports.SearchError{Query: query, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := make([]types.ClipDescriptor, 0, len(raw.Videos))
	for _, v := range raw.Videos {
		d := types.ClipDescriptor{
			ID:       v.ID,
			URL:      v.URL,
			Duration: time.Duration(v.Duration * float64(time.Second)),
			Width:    v.Width,
			Height:   v.Height,
		}
		for _, f := range v.VideoFiles {
			d.Files = append(d.Files, types.VideoFile{
				Link:     f.Link,
				Quality:  f.Quality,
				FileType: f.FileType,
				Width:    f.Width,
				Height:   f.Height,
			})
		}
		if d.MediaLink() == "" {
			a.logger.Debug("pexels: dropping video without media link", "video_id", v.ID)
			continue
		}
		out = append(out, d)
	}
	a.logger.Debug("pexels search", "query", query, "results", len(out))
	return out, nil
}

// Download streams url into dest. Bytes go to a sibling ".part" file that is
// renamed into place only after the whole body arrived, so dest never holds a
// truncated clip.
func (a *Adapter) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &ports.TransportError{URL: rawURL, Err: err}
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, &ports.TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
		return 0, &ports.TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return 0, &ports.TransportError{URL: rawURL, Err: fmt.Errorf("create %s: %w", part, err)}
	}

	n, copyErr := io.CopyBuffer(f, resp.Body, make([]byte, copyBufferSize))
	closeErr := f.Close()
	if copyErr == nil && resp.ContentLength > 0 && n != resp.ContentLength {
		copyErr = fmt.Errorf("got %d of %d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	if copyErr != nil {
		_ = os.Remove(part)
		return n, &ports.TransportError{URL: rawURL, Err: copyErr}
	}
	if closeErr != nil {
		_ = os.Remove(part)
		return n, &ports.TransportError{URL: rawURL, Err: fmt.Errorf("close %s: %w", part, closeErr)}
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return n, &ports.TransportError{URL: rawURL, Err: fmt.Errorf("rename %s: %w", part, err)}
	}

	a.logger.Debug("pexels download", "dest", dest, "size", humanize.Bytes(uint64(n)))
	return n, nil
}
