// Package ipsw queries the ipsw.me v4 API for firmware records.
package ipsw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/ipswbot/core/logger"

	"log/slog"
)

// ErrRemoteUnavailable wraps every transport, status and decode failure so
// callers can treat the remote as a single fallible collaborator.
var ErrRemoteUnavailable = errors.New("firmware service unavailable")

const defaultBaseURL = "https://api.ipsw.me/v4"

// Class selects which firmware records a fetch returns. The three classes
// partition the remote list: signed, unsigned (not signed and not beta)
// and beta (beta flag set, regardless of signing).
type Class string

const (
	ClassSigned   Class = "signed"
	ClassUnsigned Class = "unsigned"
	ClassBeta     Class = "beta"
)

// ParseClass validates a class token from callback payloads.
func ParseClass(s string) (Class, bool) {
	switch Class(strings.ToLower(strings.TrimSpace(s))) {
	case ClassSigned:
		return ClassSigned, true
	case ClassUnsigned:
		return ClassUnsigned, true
	case ClassBeta:
		return ClassBeta, true
	}
	return "", false
}

// Firmware is a single record from the device listing. Optional fields
// already carry their placeholder defaults after Fetch.
type Firmware struct {
	Version     string
	Signed      bool
	Beta        bool
	ReleaseDate string
	Description string
}

// Client fetches firmware listings. It performs no retries of its own:
// interactive callers surface the failure and the watcher simply waits for
// the next cycle.
type Client struct {
	baseURL string
	http    *http.Client
}

// Options tunes the client. Zero values select working defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a client with a dedicated plain HTTP client. The bot
// transport's retrying client is deliberately not shared here.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

type deviceResponse struct {
	Firmwares []struct {
		Version     string `json:"version"`
		Signed      bool   `json:"signed"`
		Beta        bool   `json:"beta"`
		ReleaseDate string `json:"releasedate"`
		Description string `json:"description"`
	} `json:"firmwares"`
}

// Fetch returns the firmware records of the given class for a device
// identifier, preserving remote ordering (newest first). An unknown
// identifier or a device with no matching records yields an empty slice
// and no error.
func (c *Client) Fetch(ctx context.Context, identifier string, class Class) ([]Firmware, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/device/%s?type=ipsw", c.baseURL, identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.SVCVersions.Warn("fetch failed",
			slog.String("event", "fetch.error"),
			slog.String("identifier", identifier),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.SVCVersions.Warn("fetch failed",
			slog.String("event", "fetch.error"),
			slog.String("identifier", identifier),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %s", ErrRemoteUnavailable, resp.Status)
	}

	var body deviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRemoteUnavailable, err)
	}

	out := make([]Firmware, 0, len(body.Firmwares))
	for _, fw := range body.Firmwares {
		if !matches(class, fw.Signed, fw.Beta) {
			continue
		}
		rec := Firmware{
			Version:     fw.Version,
			Signed:      fw.Signed,
			Beta:        fw.Beta,
			ReleaseDate: fw.ReleaseDate,
			Description: fw.Description,
		}
		if rec.ReleaseDate == "" {
			rec.ReleaseDate = "unknown"
		}
		if rec.Description == "" {
			rec.Description = "no description"
		}
		out = append(out, rec)
	}

	logger.SVCVersions.Debug("fetch done",
		slog.String("event", "fetch.done"),
		slog.String("identifier", identifier),
		slog.String("class", string(class)),
		slog.Int("firmwares", len(out)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return out, nil
}

// LatestSigned is the watcher's shortcut: the newest signed record, or
// ok=false when the device has none.
func (c *Client) LatestSigned(ctx context.Context, identifier string) (Firmware, bool, error) {
	records, err := c.Fetch(ctx, identifier, ClassSigned)
	if err != nil {
		return Firmware{}, false, err
	}
	if len(records) == 0 {
		return Firmware{}, false, nil
	}
	return records[0], true, nil
}

func matches(class Class, signed, beta bool) bool {
	switch class {
	case ClassSigned:
		return signed
	case ClassUnsigned:
		return !signed && !beta
	case ClassBeta:
		return beta
	}
	return false
}
