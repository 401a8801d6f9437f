package preview

import (
	"math"
	"sync"
)

// Zoom bounds and step.
const (
	MinZoom     = 0.1
	MaxZoom     = 4.0
	ZoomStep    = 0.1
	DefaultZoom = 1.0
)

// Zoom tracks the preview zoom level. Every change that alters the level
// fires the callback with the new value, outside the lock.
type Zoom struct {
	mu       sync.Mutex
	level    float64
	onChange func(level float64)
}

// NewZoom returns a Zoom at level, clamped to [MinZoom, MaxZoom].
// A zero level selects DefaultZoom.
func NewZoom(level float64, onChange func(level float64)) *Zoom {
	if level == 0 {
		level = DefaultZoom
	}
	return &Zoom{level: clampZoom(level), onChange: onChange}
}

// Level returns the current zoom level.
func (z *Zoom) Level() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.level
}

// ZoomIn raises the level by one step, saturating at MaxZoom.
func (z *Zoom) ZoomIn() float64 {
	return z.update(func(l float64) float64 { return l + ZoomStep })
}

// ZoomOut lowers the level by one step, saturating at MinZoom.
func (z *Zoom) ZoomOut() float64 {
	return z.update(func(l float64) float64 { return l - ZoomStep })
}

// Reset restores DefaultZoom.
func (z *Zoom) Reset() float64 {
	return z.update(func(float64) float64 { return DefaultZoom })
}

// Set moves to level, clamped.
func (z *Zoom) Set(level float64) float64 {
	return z.update(func(float64) float64 { return level })
}

func (z *Zoom) update(next func(float64) float64) float64 {
	z.mu.Lock()
	prev := z.level
	z.level = clampZoom(next(prev))
	level := z.level
	z.mu.Unlock()

	if level != prev && z.onChange != nil {
		z.onChange(level)
	}
	return level
}

// clampZoom bounds v and rounds it to one decimal so repeated steps don't drift.
func clampZoom(v float64) float64 {
	v = math.Round(v*10) / 10
	return math.Max(MinZoom, math.Min(MaxZoom, v))
}
