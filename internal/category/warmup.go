// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// warmup.go provides the operator-triggered cache warm-up and benchmark
// routines. Both run synchronously; neither is scheduled.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// QuerySpec names one listing query for warm-up or benchmarking.
type QuerySpec struct {
	Format          string `json:"format"`
	IncludeInactive bool   `json:"include_inactive"`
	IncludeCount    bool   `json:"include_count"`
}

func (qs QuerySpec) query() ListQuery {
	return ListQuery{
		Format:          qs.Format,
		IncludeInactive: qs.IncludeInactive,
		IncludeCount:    qs.IncludeCount,
	}
}

// DefaultWarmupQueries is the configured set of common queries
// pre-populated after a cold start or bulk administrative change.
func DefaultWarmupQueries() []QuerySpec {
	return []QuerySpec{
		{Format: FormatTree},
		{Format: FormatTree, IncludeCount: true},
		{Format: FormatFlat},
		{Format: FormatFlat, IncludeInactive: true},
	}
}

// WarmupQuery reports one warmed query.
type WarmupQuery struct {
	Key     string        `json:"key"`
	Elapsed time.Duration `json:"elapsed"`
	Err     string        `json:"error,omitempty"`
}

// WarmupResult reports a warm-up run.
type WarmupResult struct {
	Queries []WarmupQuery `json:"queries"`
	Elapsed time.Duration `json:"elapsed"`
}

// WarmCache pre-populates the cache for the given queries (the default
// set when none are supplied), reporting elapsed time per query.
func (s *Service) WarmCache(ctx context.Context, specs []QuerySpec) (*WarmupResult, error) {
	if len(specs) == 0 {
		specs = DefaultWarmupQueries()
	}

	start := time.Now()
	result := &WarmupResult{}
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := spec.query()
		qStart := time.Now()
		_, err := s.List(ctx, q)
		wq := WarmupQuery{Key: q.Key(), Elapsed: time.Since(qStart)}
		if err != nil {
			wq.Err = err.Error()
		}
		result.Queries = append(result.Queries, wq)
	}
	result.Elapsed = time.Since(start)
	slog.Info("cache warmed", "queries", len(result.Queries), "elapsed", result.Elapsed.String())
	return result, nil
}

// BenchmarkQuery reports the cold/warm latency pair for one query.
type BenchmarkQuery struct {
	Key  string        `json:"key"`
	Cold time.Duration `json:"cold"`
	Warm time.Duration `json:"warm"`
}

// BenchmarkResult reports a benchmark run. CacheEfficiency is
// 1 - warm/cold over the aggregate latencies: close to 1 means the
// cache is paying for itself, close to 0 means it is not.
type BenchmarkResult struct {
	Queries         []BenchmarkQuery `json:"queries"`
	CacheEfficiency float64          `json:"cache_efficiency"`
}

// BenchmarkCache clears the cache, then executes each query twice,
// cold and then immediately warm, and reports the per-query latency pair
// plus the aggregate efficiency ratio.
func (s *Service) BenchmarkCache(ctx context.Context, specs []QuerySpec) (*BenchmarkResult, error) {
	if len(specs) == 0 {
		specs = DefaultWarmupQueries()
	}
	s.cache.Clear()

	result := &BenchmarkResult{}
	var totalCold, totalWarm time.Duration
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := spec.query()

		coldStart := time.Now()
		if _, err := s.List(ctx, q); err != nil {
			return nil, fmt.Errorf("benchmark cold %s: %w", q.Key(), err)
		}
		cold := time.Since(coldStart)

		warmStart := time.Now()
		if _, err := s.List(ctx, q); err != nil {
			return nil, fmt.Errorf("benchmark warm %s: %w", q.Key(), err)
		}
		warm := time.Since(warmStart)

		result.Queries = append(result.Queries, BenchmarkQuery{Key: q.Key(), Cold: cold, Warm: warm})
		totalCold += cold
		totalWarm += warm
	}

	if totalCold > 0 {
		result.CacheEfficiency = 1 - float64(totalWarm)/float64(totalCold)
	}
	slog.Info("cache benchmark finished",
		"queries", len(result.Queries),
		"efficiency", fmt.Sprintf("%.3f", result.CacheEfficiency),
	)
	return result, nil
}
