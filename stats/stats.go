// Package stats keeps running statistics and draws distributions for
// survey reports.
package stats

import (
	"io"
	"math"
	"slices"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance over pushed values.
type Statistic struct {
	totalIterations int
	min, max        float64

	// For Welford's algorithm:
	oldM float64
	newM float64
	oldS float64
	newS float64
}

func (s *Statistic) Push(val float64) {
	s.totalIterations++
	if s.totalIterations == 1 {
		s.oldM = val
		s.newM = val
		s.oldS = 0
		s.min, s.max = val, val
	} else {
		s.newM = s.oldM + (val-s.oldM)/float64(s.totalIterations)
		s.newS = s.oldS + (val-s.oldM)*(val-s.newM)
		s.oldM = s.newM
		s.oldS = s.newS
		s.min = math.Min(s.min, val)
		s.max = math.Max(s.max, val)
	}
}

func (s *Statistic) Mean() float64 {
	if s.totalIterations > 0 {
		return s.newM
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.totalIterations <= 1 {
		return 0.0
	}
	return s.newS / float64(s.totalIterations-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Min() float64 {
	return s.min
}

func (s *Statistic) Max() float64 {
	return s.max
}

func (s *Statistic) Iterations() int {
	return s.totalIterations
}

// Summary describes a finished sample.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Stdev  float64 `json:"stdev" yaml:"stdev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
}

func Summarize(values []float64) Summary {
	var s Statistic
	for _, v := range values {
		s.Push(v)
	}
	sum := Summary{Count: s.Iterations(), Mean: s.Mean(), Stdev: s.Stdev(), Min: s.Min(), Max: s.Max()}
	if len(values) > 0 {
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		sum.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return sum
}

// FprintHistogram draws values as a bins-bucket text histogram scaled to
// width columns.
func FprintHistogram(w io.Writer, values []float64, bins, width int) error {
	if len(values) == 0 {
		_, err := io.WriteString(w, "(no data)\n")
		return err
	}
	h := histogram.Hist(bins, values)
	return histogram.Fprint(w, h, histogram.Linear(width))
}
