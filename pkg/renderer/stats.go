package renderer

import "time"

// RenderStats tracks how far a render has progressed
type RenderStats struct {
	TotalPixels     int           // Pixels in the image
	CompletedPixels int           // Pixels received by the consumer so far
	SamplesPerPixel int           // Samples taken for every pixel
	Elapsed         time.Duration // Time since the render started
}

// NewRenderStats creates empty statistics for job
func NewRenderStats(job RenderJob) RenderStats {
	return RenderStats{
		TotalPixels:     job.PixelCount(),
		SamplesPerPixel: job.SamplesPerPixel,
	}
}

// Record adds n completed pixels and updates the elapsed time
func (s *RenderStats) Record(n int, elapsed time.Duration) {
	s.CompletedPixels += n
	s.Elapsed = elapsed
}

// Progress returns the completed fraction in [0, 1]
func (s RenderStats) Progress() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.CompletedPixels) / float64(s.TotalPixels)
}

// TotalSamples returns the number of camera samples behind the completed pixels
func (s RenderStats) TotalSamples() int {
	return s.CompletedPixels * s.SamplesPerPixel
}

// SamplesPerSecond returns the sample throughput so far
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples()) / s.Elapsed.Seconds()
}

// Done reports whether every pixel has been received
func (s RenderStats) Done() bool {
	return s.TotalPixels > 0 && s.CompletedPixels >= s.TotalPixels
}
