package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"sitelog/internal/cache"
	"sitelog/internal/core"
	"sitelog/internal/log"
	"sitelog/internal/metrics"
)

// Cached memoises another Analyzer by the exact input and collapses
// concurrent identical requests into one upstream call. Errors are not cached.
type Cached struct {
	next   Analyzer
	cache  cache.Cache[string]
	group  singleflight.Group
	logger *log.Logger
}

func NewCached(next Analyzer, c cache.Cache[string], logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Nop()
	}
	return &Cached{next: next, cache: c, logger: logger.WithComponent(log.ComponentAnalysis)}
}

func (c *Cached) Analyze(ctx context.Context, entries []core.Entry, date core.Date) (string, error) {
	key, err := cacheKey(entries, date)
	if err != nil {
		return "", err
	}
	if text, ok := c.cache.Get(key); ok {
		metrics.AnalysisRequests.WithLabelValues("cached").Inc()
		c.logger.DebugContext(ctx, "Analysis served from cache", log.FieldDate, date.String())
		return text, nil
	}

	// Callers share the result, so one caller going away must not cancel it.
	shared := context.WithoutCancel(ctx)
	v, err, dup := c.group.Do(key, func() (any, error) {
		start := time.Now()
		text, err := c.next.Analyze(shared, entries, date)
		metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.AnalysisRequests.WithLabelValues("error").Inc()
			return "", err
		}
		metrics.AnalysisRequests.WithLabelValues("success").Inc()
		c.cache.Set(key, text)
		return text, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Analysis failed",
			log.FieldDate, date.String(),
			log.FieldCount, len(entries),
			log.FieldError, err)
		return "", err
	}
	if dup {
		c.logger.DebugContext(ctx, "Analysis shared with concurrent request", log.FieldDate, date.String())
	}
	return v.(string), nil
}

func cacheKey(entries []core.Entry, date core.Date) (string, error) {
	h := sha256.New()
	h.Write([]byte(date.String()))
	if err := json.NewEncoder(h).Encode(entries); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
