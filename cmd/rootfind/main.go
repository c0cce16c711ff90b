// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rootfind runs a YAML batch of solver jobs and prints the results as YAML.
//
//	rootfind -config config/rootfind.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/curioloop/rootfind/internal/config"
	logpkg "github.com/curioloop/rootfind/internal/logger"
	"github.com/curioloop/rootfind/numeric"
)

func main() {
	path := flag.String("config", config.DefaultPath(), "path to the job file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(2)
	}

	logger, err := logpkg.NewLogger(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	level, err := logpkg.SolverLevel(cfg.Logging.Solver)
	if err != nil {
		logger.Fatal("Invalid solver log level", zap.Error(err))
	}

	logger.Info("Starting rootfind",
		zap.String("config", *path),
		zap.Int("jobs", len(cfg.Jobs)),
		zap.Int("workers", cfg.Workers),
	)

	start := time.Now()
	results := runAll(cfg, numeric.NewLogger(level, logger))

	failed := 0
	for _, r := range results {
		if r.Status != numeric.OK {
			failed++
		}
	}
	logger.Info("Jobs finished", zap.Int("failed", failed), zap.Duration("elapsed", time.Since(start)))

	if err := writeResults(os.Stdout, results); err != nil {
		logger.Fatal("Failed to write results", zap.Error(err))
	}
}

// runAll executes the jobs on at most cfg.Workers goroutines.
// Results keep the order of the jobs.
func runAll(cfg config.Config, log *numeric.Logger) []Result {
	results := make([]Result, len(cfg.Jobs))
	sem := make(chan struct{}, max(cfg.Workers, 1))
	var wg sync.WaitGroup
	for i, job := range cfg.Jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			results[i] = runJob(job, log.Named(job.Name))
		}()
	}
	wg.Wait()
	return results
}

func writeResults(w io.Writer, results []Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return enc.Close()
}
