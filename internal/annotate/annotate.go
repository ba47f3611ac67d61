// Package annotate answers "where are these objects in this image" by
// combining cached detections with fresh calls to an external detector.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kozaktomas/photo-annotator/internal/cache"
	"github.com/kozaktomas/photo-annotator/internal/detection"
)

// Status tells apart the three outcomes of an annotation.
type Status string

const (
	// StatusSuccess means at least one requested object was found.
	StatusSuccess Status = "success"
	// StatusEmpty means detection worked but nothing matched.
	StatusEmpty Status = "empty"
	// StatusFailure means the detector failed; Diagnostic says why.
	StatusFailure Status = "error"
)

// Detector is the external detection capability.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, labels []string) (detection.DetectionSet, error)
}

// Image is an uploaded image and its stable key.
type Image struct {
	Key  string
	Data []byte
}

// Result is the outcome of Annotate.
type Result struct {
	Status     Status
	Detections detection.DetectionSet
	Diagnostic string
	Requested  []string // normalized labels that were asked for
	Fetched    []string // labels sent to the detector, empty on a full cache hit
	CacheHit   bool     // true when the detector was not called
}

// Options configure an Orchestrator.
type Options struct {
	Tolerance int           // pixel tolerance for duplicate boxes, 0 means exact
	Timeout   time.Duration // bound on one detector call, zero means no bound
}

// Orchestrator serves annotation requests from the cache and the detector.
type Orchestrator struct {
	cache    *cache.DetectionCache
	detector Detector
	opts     Options
}

// NewOrchestrator wires an orchestrator to a cache and a detector.
func NewOrchestrator(c *cache.DetectionCache, d Detector, opts Options) *Orchestrator {
	if opts.Tolerance < 0 {
		opts.Tolerance = detection.DefaultTolerance
	}
	return &Orchestrator{cache: c, detector: d, opts: opts}
}

// Cache returns the cache the orchestrator reads and fills.
func (o *Orchestrator) Cache() *cache.DetectionCache {
	return o.cache
}

// Annotate returns the deduplicated detections for exactly the requested
// labels. Only labels the cache cannot answer are sent to the detector.
// Detector failures never escape: they come back as StatusFailure with the
// cache left untouched.
//
// The image bytes are taken to belong to the current cache generation; use
// AnnotateAt when they were read earlier.
func (o *Orchestrator) Annotate(ctx context.Context, img Image, requested []string) Result {
	return o.AnnotateAt(ctx, o.cache.Generation(), img, requested)
}

// AnnotateAt is Annotate for image bytes read at cache generation gen. When
// the cache has moved on since then the bytes may no longer be the image
// stored under img.Key: every label is then detected on the given bytes and
// nothing is read from or written to the cache.
func (o *Orchestrator) AnnotateAt(ctx context.Context, gen uint64, img Image, requested []string) Result {
	labels := detection.CleanLabels(requested)
	res := Result{Requested: labels}
	if len(labels) == 0 {
		res.Status = StatusEmpty
		res.Detections = detection.DetectionSet{}
		res.Diagnostic = "no labels requested"
		return res
	}

	hits, satisfied, current := o.cache.LookupAt(img.Key, labels)
	var missing []string
	if current == gen && !satisfied {
		missing = o.cache.Missing(img.Key, labels)
		if len(missing) == 0 {
			// Filled by a concurrent request since the lookup.
			hits, _, current = o.cache.LookupAt(img.Key, labels)
			satisfied = true
		}
	}
	combined := hits

	switch {
	case current != gen:
		log.Printf("Image %s changed since it was read, cache bypassed", sanitizeForLog(img.Key))
		fresh, ok := o.fetch(ctx, img, labels, &res)
		if !ok {
			return res
		}
		combined = fresh
	case satisfied:
		res.CacheHit = true
	default:
		fresh, ok := o.fetch(ctx, img, missing, &res)
		if !ok {
			return res
		}
		if !o.cache.MergeAt(gen, img.Key, fresh) {
			log.Printf("Image %s was replaced during detection, result not cached", sanitizeForLog(img.Key))
		}
		combined = union(hits, fresh)
	}

	res.Detections = detection.Dedupe(combined.Filter(labels), o.opts.Tolerance)
	if res.Detections.Count() == 0 {
		res.Status = StatusEmpty
		res.Diagnostic = "no objects detected"
		return res
	}
	res.Status = StatusSuccess
	return res
}

// fetch calls the detector for labels. On failure it fills res and reports false.
func (o *Orchestrator) fetch(ctx context.Context, img Image, labels []string, res *Result) (detection.DetectionSet, bool) {
	res.Fetched = labels
	fresh, err := o.detect(ctx, img, labels)
	if err != nil {
		log.Printf("Detection failed for %s (labels %s): %v",
			sanitizeForLog(img.Key), sanitizeForLog(strings.Join(labels, ",")), err)
		res.Status = StatusFailure
		res.Detections = detection.DetectionSet{}
		res.Diagnostic = diagnose(err)
		return nil, false
	}
	return fresh, true
}

func (o *Orchestrator) detect(ctx context.Context, img Image, labels []string) (detection.DetectionSet, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}
	found, err := o.detector.Detect(ctx, img.Data, labels)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		// Some clients drop the context error when a call is aborted.
		err = fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return found, err
}

// union merges fresh into a copy of hits; cached labels keep their boxes.
func union(hits, fresh detection.DetectionSet) detection.DetectionSet {
	out := hits.Clone()
	for label, boxes := range fresh {
		if _, ok := out[label]; ok {
			continue
		}
		out[label] = detection.CloneBoxes(boxes)
	}
	return out
}

func diagnose(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "detection timed out"
	case errors.Is(err, context.Canceled):
		return "detection cancelled"
	default:
		return fmt.Sprintf("detection failed: %v", err)
	}
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
