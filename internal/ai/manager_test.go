package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeGenProvider struct {
	name    string
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []string
	listed  []string
	listErr error
	delay   time.Duration
}

func (f *fakeGenProvider) Name() string { return f.name }

func (f *fakeGenProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err := f.errs[model]; err != nil {
		return "", err
	}
	return f.answers[model], nil
}

type listingProvider struct {
	*fakeGenProvider
}

func (l listingProvider) ListModels(ctx context.Context) ([]string, error) {
	return l.listed, l.listErr
}

func TestManagerFirstNonEmptyWins(t *testing.T) {
	p := &fakeGenProvider{
		name:    "gemini",
		errs:    map[string]error{"primary": errors.New("quota")},
		answers: map[string]string{"gemini-1.5-flash": "   ", "gemini-1.5-pro": " answer "},
	}
	m := NewManager([]Backend{{Provider: p, Models: append([]string{"primary"}, DefaultFallbackModels...)}}, ManagerConfig{})
	out, err := m.Generate(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "answer", out.Text)
	require.Equal(t, "gemini-1.5-pro", out.Model)
	require.Equal(t, []string{"primary", "gemini-1.5-flash", "gemini-1.5-pro"}, p.calls)
	require.Len(t, out.Attempts, 2)
	require.ErrorIs(t, out.Attempts[1].Err, errEmptyResponse)
}

func TestManagerDeduplicatesCandidates(t *testing.T) {
	p := &fakeGenProvider{name: "gemini", answers: map[string]string{}}
	m := NewManager([]Backend{{Provider: p, Models: []string{"gemini-pro", "", "gemini-pro", "gemini-1.0-pro"}}}, ManagerConfig{})
	require.Equal(t, []string{"gemini/gemini-pro", "gemini/gemini-1.0-pro"}, m.Models())
}

func TestManagerDiscoveryRound(t *testing.T) {
	base := &fakeGenProvider{
		name:    "gemini",
		errs:    map[string]error{"a": errors.New("404")},
		answers: map[string]string{"gemini-2.0-flash": "found"},
		listed:  []string{"a", "models/a", "gemini-2.0-flash"},
	}
	m := NewManager([]Backend{{Provider: listingProvider{base}, Models: []string{"a"}}}, ManagerConfig{Discover: true})
	out, err := m.Generate(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "found", out.Text)
	require.Equal(t, []string{"a", "gemini-2.0-flash"}, base.calls)
}

func TestManagerAllFail(t *testing.T) {
	last := errors.New("last failure")
	p := &fakeGenProvider{
		name: "gemini",
		errs: map[string]error{"x": errors.New("first"), "y": last},
	}
	m := NewManager([]Backend{{Provider: listingProvider{p}, Models: []string{"x", "y"}}}, ManagerConfig{Discover: true})
	_, err := m.Generate(context.Background(), "q")
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	require.ErrorIs(t, err, last)
	require.Len(t, gerr.Attempts, 2)
}

func TestManagerFallsThroughBackends(t *testing.T) {
	primary := &fakeGenProvider{name: "gemini", errs: map[string]error{"gemini-pro": ErrUnavailable}}
	secondary := &fakeGenProvider{name: "anthropic", answers: map[string]string{"claude": "ok"}}
	m := NewManager([]Backend{
		{Provider: primary, Models: []string{"gemini-pro"}},
		{Provider: secondary, Models: []string{"claude"}},
	}, ManagerConfig{})
	out, err := m.Generate(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "anthropic", out.Provider)
	require.Equal(t, "ok", out.Text)
}

func TestManagerAttemptTimeout(t *testing.T) {
	slow := &fakeGenProvider{name: "gemini", delay: time.Second, answers: map[string]string{"slow": "late", "fast": "ok"}}
	m := NewManager([]Backend{{Provider: slow, Models: []string{"slow"}}}, ManagerConfig{Timeout: 20 * time.Millisecond})
	_, err := m.Generate(context.Background(), "q")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManagerWithoutCandidates(t *testing.T) {
	m := NewManager(nil, ManagerConfig{})
	_, err := m.Generate(context.Background(), "q")
	require.ErrorIs(t, err, ErrUnavailable)
}
