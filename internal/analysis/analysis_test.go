package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitelog/internal/cache"
	"sitelog/internal/core"
)

func dayEntries() []core.Entry {
	return []core.Entry{
		{
			ID: "a", Date: core.NewDate(2024, 1, 1), Category: "道路工程", SubCategory: "上面层",
			Description: "沥青摊铺", Location: "左幅", Amount: 500, Status: core.StatusUrgent,
			Resources: []core.Resource{{Kind: core.Machinery, Name: "摊铺机", Count: 2, Unit: "台"}},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(dayEntries(), core.NewDate(2024, 1, 1))
	assert.Contains(t, p, "2024-01-01")
	assert.Contains(t, p, "[道路工程/上面层] 沥青摊铺")
	assert.Contains(t, p, "位置: 左幅")
	assert.Contains(t, p, "状态: 紧急")
	assert.Contains(t, p, "摊铺机")
}

func TestAnthropicAnalyze(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  当日完成上面层摊铺。 "}]}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic("test-key", "test-model", srv.URL+"/")
	require.NoError(t, err)

	text, err := a.Analyze(context.Background(), dayEntries(), core.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "当日完成上面层摊铺。", text)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.True(t, strings.Contains(got.Messages[0].Content, "沥青摊铺"))
}

func TestAnthropicFailuresWrapAdapterFailure(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
		},
		"error body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
		},
		"empty content": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			a, err := NewAnthropic("k", "", srv.URL)
			require.NoError(t, err)
			_, err = a.Analyze(context.Background(), nil, core.NewDate(2024, 1, 1))
			assert.ErrorIs(t, err, core.ErrAdapterFailure)
		})
	}
}

func TestNewAnthropicRequiresKey(t *testing.T) {
	_, err := NewAnthropic(" ", "", "")
	assert.Error(t, err)
}

type countingAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (c *countingAnalyzer) Analyze(_ context.Context, entries []core.Entry, date core.Date) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return date.String() + ":" + string(rune('0'+len(entries))), nil
}

func TestCachedReusesResults(t *testing.T) {
	next := &countingAnalyzer{}
	c := NewCached(next, cache.NewLRUCache[string](8, time.Hour), nil)
	ctx := context.Background()
	day := core.NewDate(2024, 1, 1)

	first, err := c.Analyze(ctx, dayEntries(), day)
	require.NoError(t, err)
	second, err := c.Analyze(ctx, dayEntries(), day)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())

	changed := dayEntries()
	changed[0].Amount = 501
	_, err = c.Analyze(ctx, changed, day)
	require.NoError(t, err)
	_, err = c.Analyze(ctx, dayEntries(), core.NewDate(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &countingAnalyzer{err: boom}
	c := NewCached(next, cache.NewLRUCache[string](8, time.Hour), nil)

	for i := 0; i < 2; i++ {
		_, err := c.Analyze(context.Background(), dayEntries(), core.NewDate(2024, 1, 1))
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAnalyzer) Analyze(ctx context.Context, _ []core.Entry, date core.Date) (string, error) {
	close(b.started)
	<-b.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "report " + date.String(), nil
}

func TestCachedSurvivesCallerCancellation(t *testing.T) {
	next := &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCached(next, cache.NewLRUCache[string](8, time.Hour), nil)
	day := core.NewDate(2024, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.Analyze(ctx, dayEntries(), day)
		done <- result{text, err}
	}()

	<-next.started
	cancel()
	close(next.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "report 2024-01-01", res.text)

	again, err := c.Analyze(context.Background(), dayEntries(), day)
	require.NoError(t, err)
	assert.Equal(t, res.text, again)
}
