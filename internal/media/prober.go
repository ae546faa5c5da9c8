// Package media probes uploaded videos in the background and records their
// duration.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/cache"
	"github.com/vidtube/backend/internal/logging"
)

var (
	// ErrProberUnavailable indicates no prober is configured.
	ErrProberUnavailable = errors.New("media prober unavailable")
	// ErrNoDuration indicates the probe output carried no usable duration.
	ErrNoDuration = errors.New("media probe returned no duration")
)

// Prober reports the duration in seconds of the media at url.
type Prober interface {
	Duration(ctx context.Context, url string) (float64, error)
}

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// FFprobe reads media durations with the ffprobe CLI.
type FFprobe struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFprobe constructs a Prober that shells out to ffprobe.
func NewFFprobe(binary string, timeout time.Duration) *FFprobe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobe{
		Binary:  binary,
		Args:    []string{"-v", "error", "-show_entries", "format=duration", "-of", "json"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Duration runs ffprobe against url and parses the container duration.
func (p *FFprobe) Duration(ctx context.Context, url string) (float64, error) {
	if p == nil {
		return 0, ErrProberUnavailable
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	ctx, span := logging.StartSpan(ctx, "media.ffprobe")
	defer span.End()

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, url)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		span.Fail(err)
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseDuration(out)
}

func parseDuration(out []byte) (float64, error) {
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("parse ffprobe response: %w", err)
	}
	if payload.Format.Duration == "" || payload.Format.Duration == "N/A" {
		return 0, ErrNoDuration
	}

	seconds, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", payload.Format.Duration, err)
	}
	if seconds < 0 {
		return 0, ErrNoDuration
	}
	return seconds, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

// CachingProber memoizes another Prober's results per URL.
type CachingProber struct {
	base  Prober
	ttl   time.Duration
	items *cache.TTLMap[float64]
}

// NewCachingProber returns a Prober that caches durations for ttl.
func NewCachingProber(base Prober, ttl time.Duration) *CachingProber {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProber{base: base, ttl: ttl, items: cache.NewTTLMap[float64]()}
}

// Duration returns a cached value when available, otherwise it delegates to the
// underlying prober and stores the result. Failures are not cached.
func (c *CachingProber) Duration(ctx context.Context, url string) (float64, error) {
	if c == nil || c.base == nil {
		return 0, ErrProberUnavailable
	}
	if seconds, ok := c.items.Get(url); ok {
		return seconds, nil
	}

	seconds, err := c.base.Duration(ctx, url)
	if err != nil {
		return 0, err
	}
	c.items.Set(url, seconds, c.ttl)
	return seconds, nil
}
