package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFFprobeDuration(t *testing.T) {
	var gotBinary string
	var gotArgs []string
	p := NewFFprobe("/usr/bin/ffprobe", time.Second)
	p.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected probe context to carry a deadline")
		}
		gotBinary = binary
		gotArgs = args
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	seconds, err := p.Duration(context.Background(), "https://cdn.example.com/v.mp4")
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if seconds != 12.48 {
		t.Fatalf("expected 12.48 got %v", seconds)
	}
	if gotBinary != "/usr/bin/ffprobe" {
		t.Fatalf("unexpected binary %q", gotBinary)
	}
	if want := "-v error -show_entries format=duration -of json https://cdn.example.com/v.mp4"; strings.Join(gotArgs, " ") != want {
		t.Fatalf("unexpected args %q", strings.Join(gotArgs, " "))
	}
}

func TestFFprobeDurationErrors(t *testing.T) {
	cases := []struct {
		name   string
		output string
		runErr error
		want   error
	}{
		{name: "command fails", runErr: errors.New("exit status 1")},
		{name: "malformed json", output: "not json"},
		{name: "missing duration", output: `{"format":{}}`, want: ErrNoDuration},
		{name: "not available", output: `{"format":{"duration":"N/A"}}`, want: ErrNoDuration},
		{name: "not a number", output: `{"format":{"duration":"abc"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewFFprobe("", 0)
			p.Run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tc.output), tc.runErr
			}
			_, err := p.Duration(context.Background(), "u")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
		})
	}

	var nilProber *FFprobe
	if _, err := nilProber.Duration(context.Background(), "u"); !errors.Is(err, ErrProberUnavailable) {
		t.Fatalf("expected ErrProberUnavailable got %v", err)
	}
}

type stubProber struct {
	seconds float64
	err     error
	calls   int
}

func (s *stubProber) Duration(context.Context, string) (float64, error) {
	s.calls++
	return s.seconds, s.err
}

func TestCachingProber(t *testing.T) {
	base := &stubProber{seconds: 3}
	prober := NewCachingProber(base, time.Minute)

	for i := 0; i < 2; i++ {
		seconds, err := prober.Duration(context.Background(), "https://cdn.example.com/v.mp4")
		if err != nil {
			t.Fatalf("duration: %v", err)
		}
		if seconds != 3 {
			t.Fatalf("unexpected duration %v", seconds)
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	failing := &stubProber{err: errors.New("boom")}
	prober = NewCachingProber(failing, time.Minute)
	_, _ = prober.Duration(context.Background(), "u")
	_, _ = prober.Duration(context.Background(), "u")
	if failing.calls != 2 {
		t.Fatalf("expected failures not to be cached, got %d calls", failing.calls)
	}

	if _, err := NewCachingProber(nil, 0).Duration(context.Background(), "u"); !errors.Is(err, ErrProberUnavailable) {
		t.Fatalf("expected ErrProberUnavailable got %v", err)
	}
}
