package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-annotator/internal/ai"
	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/cache"
	"github.com/kozaktomas/photo-annotator/internal/config"
)

// pipeline bundles the pieces every annotating command needs.
type pipeline struct {
	cache        *cache.DetectionCache
	detector     ai.Detector
	orchestrator *annotate.Orchestrator
}

// newPipeline creates the configured detector and an orchestrator backed by a
// fresh in-memory cache.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	detector, err := ai.NewDetector(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating detector: %w", err)
	}
	c := cache.New()
	orchestrator := annotate.NewOrchestrator(c, detector, annotate.Options{
		Tolerance: cfg.Detection.Tolerance,
		Timeout:   cfg.Detection.Timeout,
	})
	return &pipeline{
		cache:        c,
		detector:     detector,
		orchestrator: orchestrator,
	}, nil
}

// printUsage prints token usage and cost when the detector tracks them.
func printUsage(detector ai.Detector) {
	reporter, ok := detector.(ai.UsageReporter)
	if !ok {
		return
	}
	usage := reporter.GetUsage()
	if usage.Requests == 0 {
		return
	}
	fmt.Printf("Usage: %d request(s), %d input / %d output tokens, $%.4f\n",
		usage.Requests, usage.InputTokens, usage.OutputTokens, usage.TotalCost)
}
