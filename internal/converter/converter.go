// Package converter turns questions into SQL. An optional model strategy is
// tried first; the rule engine is the fallback, and every statement passes
// the safety filter before it is returned.
package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/text2sql/internal/cache"
	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/safety"
)

// DefaultConcurrency bounds BatchConvert when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Options configures a Converter. The zero value uses the rule engine only.
type Options struct {
	// Model is tried before the rules when set.
	Model Strategy
	// ModelTimeout bounds one model call. Zero means the caller's context
	// alone bounds it.
	ModelTimeout time.Duration
	// CacheSize enables a question -> result cache of that many entries.
	CacheSize int
	// Concurrency bounds BatchConvert.
	Concurrency int
	Logger      *zap.Logger
}

// Result is a converted statement and the strategy that produced it.
type Result struct {
	SQL    string `json:"sql"`
	Source Kind   `json:"source"`
	Valid  bool   `json:"valid"`
}

// BatchResult is the outcome for one question of a batch.
type BatchResult struct {
	Question string
	Result   Result
	Err      error
}

// Converter is safe for concurrent use.
type Converter struct {
	cat   *catalog.Catalog
	model Strategy
	rules *RuleStrategy
	opts  Options
	cache *cache.LRU[string, Result]
	log   *zap.Logger
	stats counters
}

// New creates a Converter over cat.
func New(cat *catalog.Catalog, opts Options) *Converter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Converter{
		cat:   cat,
		model: opts.Model,
		rules: NewRuleStrategy(cat),
		opts:  opts,
		log:   log,
	}
	if opts.CacheSize > 0 {
		c.cache = cache.New[string, Result](opts.CacheSize)
	}
	return c
}

// Catalog returns the catalog the converter reads.
func (c *Converter) Catalog() *catalog.Catalog {
	return c.cat
}

// Rules returns the rule strategy.
func (c *Converter) Rules() *RuleStrategy {
	return c.rules
}

// CacheStats returns cache statistics, or false when caching is off.
func (c *Converter) CacheStats() (cache.Stats, bool) {
	if c.cache == nil {
		return cache.Stats{}, false
	}
	return c.cache.GetStats(), true
}

// Convert converts one question. Model failures fall back to the rules; an
// unsafe statement from either source is an error and its SQL is withheld.
func (c *Converter) Convert(ctx context.Context, question string) (Result, error) {
	start := time.Now()
	res, cached, err := c.lookup(ctx, question)
	c.stats.record(res, err, cached, c.model != nil, time.Since(start))
	return res, err
}

// Stats returns counters over every Convert call, batch items included.
func (c *Converter) Stats() Stats {
	return c.stats.snapshot()
}

func (c *Converter) lookup(ctx context.Context, question string) (Result, bool, error) {
	key := strings.Join(strings.Fields(question), " ")
	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok {
			return res, true, nil
		}
	}

	res, err := c.convert(ctx, key)
	if err != nil {
		return Result{}, false, err
	}
	if c.cache != nil {
		c.cache.Set(key, res)
	}
	return res, false, nil
}

func (c *Converter) convert(ctx context.Context, question string) (Result, error) {
	var modelErr error
	if c.model != nil {
		sql, err := c.runModel(ctx, question)
		if err == nil {
			if uerr := safety.Check(sql); uerr != nil {
				c.log.Warn("model produced unsafe SQL", zap.String("question", question), zap.Error(uerr))
				return Result{}, uerr
			}
			err = safety.Validate(sql)
		}
		if err == nil {
			return Result{SQL: sql, Source: KindModel, Valid: true}, nil
		}
		modelErr = fmt.Errorf("%s strategy: %w", c.model.Kind(), err)
		c.log.Debug("model strategy failed, falling back to rules",
			zap.String("question", question), zap.Error(err))
		if cerr := ctx.Err(); cerr != nil {
			return Result{}, cerr
		}
	}

	sql, err := c.rules.Convert(ctx, question)
	if err != nil {
		if modelErr != nil {
			return Result{}, errors.Join(err, modelErr)
		}
		return Result{}, err
	}
	if err := safety.Check(sql); err != nil {
		return Result{}, err
	}
	return Result{SQL: sql, Source: KindRules, Valid: safety.Validate(sql) == nil}, nil
}

// runModel calls the model under ModelTimeout. A strategy that ignores its
// context is abandoned when the deadline passes.
func (c *Converter) runModel(ctx context.Context, question string) (string, error) {
	if c.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ModelTimeout)
		defer cancel()
	}

	type answer struct {
		sql string
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		sql, err := c.model.Convert(ctx, question)
		ch <- answer{sql, err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return "", a.err
		}
		return safety.Clean(a.sql), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// BatchConvert converts questions concurrently and returns one result per
// question in input order. A failing question does not affect the others.
func (c *Converter) BatchConvert(ctx context.Context, questions []string) []BatchResult {
	results := make([]BatchResult, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, q := range questions {
		results[i].Question = q
		g.Go(func() error {
			res, err := c.Convert(gctx, q)
			results[i].Result = res
			results[i].Err = err
			return nil // item errors stay with the item
		})
	}
	_ = g.Wait()

	return results
}
