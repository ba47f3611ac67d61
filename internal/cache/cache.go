// Package cache stores what has already been detected for each uploaded image.
package cache

import (
	"sync"

	"github.com/kozaktomas/photo-annotator/internal/detection"
)

// DetectionCache maps an image key to every label discovered for it so far.
//
// A single RWMutex guards the whole cache. Each Clear advances the cache
// generation; writes tagged with an older generation are dropped, so a call
// that started against a replaced image never leaks into the new one.
type DetectionCache struct {
	mu         sync.RWMutex
	records    map[string]detection.DetectionSet
	generation uint64
}

// New creates an empty detection cache.
func New() *DetectionCache {
	return &DetectionCache{
		records: make(map[string]detection.DetectionSet),
	}
}

// Lookup returns copies of the cached labels matching any requested label and
// whether every requested label matched at least one cached label.
func (c *DetectionCache) Lookup(imageKey string, requested []string) (detection.DetectionSet, bool) {
	hits, satisfied, _ := c.LookupAt(imageKey, requested)
	return hits, satisfied
}

// LookupAt is Lookup that also reports the generation the answer belongs to.
func (c *DetectionCache) LookupAt(imageKey string, requested []string) (detection.DetectionSet, bool, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record := c.records[imageKey]
	hits := record.Filter(requested)
	satisfied := len(requested) > 0
	for _, r := range requested {
		if !hasMatch(record, r) {
			satisfied = false
			break
		}
	}
	return hits, satisfied, c.generation
}

// Missing returns the requested labels no cached label matches, in request order.
func (c *DetectionCache) Missing(imageKey string, requested []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record := c.records[imageKey]
	var missing []string
	for _, r := range requested {
		if !hasMatch(record, r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Merge inserts labels that are new for the image. Labels already cached for
// the image are left as they are.
func (c *DetectionCache) Merge(imageKey string, fresh detection.DetectionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(imageKey, fresh)
}

// MergeAt merges fresh only if the cache is still at generation gen and
// reports whether the merge was applied.
func (c *DetectionCache) MergeAt(gen uint64, imageKey string, fresh detection.DetectionSet) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.mergeLocked(imageKey, fresh)
	return true
}

func (c *DetectionCache) mergeLocked(imageKey string, fresh detection.DetectionSet) {
	if len(fresh) == 0 {
		return
	}
	record, ok := c.records[imageKey]
	if !ok {
		record = make(detection.DetectionSet, len(fresh))
		c.records[imageKey] = record
	}
	for label, boxes := range fresh {
		if _, exists := record[label]; exists {
			continue
		}
		record[label] = detection.CloneBoxes(boxes)
	}
}

// Get returns a copy of everything cached for the image.
func (c *DetectionCache) Get(imageKey string) (detection.DetectionSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[imageKey]
	if !ok {
		return nil, false
	}
	return record.Clone(), true
}

// Clear drops every record and starts a new generation.
func (c *DetectionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]detection.DetectionSet)
	c.generation++
}

// Len returns the number of images with cached detections.
func (c *DetectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Generation returns the current cache generation.
func (c *DetectionCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func hasMatch(record detection.DetectionSet, requested string) bool {
	for label := range record {
		if detection.Matches(label, requested) {
			return true
		}
	}
	return false
}
