// Package profiling summarises pixel intensities of image matrices.
package profiling

import (
	"fmt"
	"math"

	"goimpute/domain/matrix"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// IntensityProfile summarises the observed entries of a matrix.
type IntensityProfile struct {
	Count    int
	Missing  int
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Median   float64
	Q25      float64
	Q75      float64
	Skewness float64
}

func (p IntensityProfile) String() string {
	return fmt.Sprintf("n=%d missing=%d mean=%.4f sd=%.4f range=[%.4f, %.4f] q25/50/75=%.4f/%.4f/%.4f skew=%.3f",
		p.Count, p.Missing, p.Mean, p.StdDev, p.Min, p.Max, p.Q25, p.Median, p.Q75, p.Skewness)
}

// InUnitRange reports whether every observed entry lies in [0, 1].
func (p IntensityProfile) InUnitRange() bool {
	return p.Min >= 0 && p.Max <= 1
}

// ProfileIntensities profiles every non-marker entry of m.
func ProfileIntensities(m mat.Matrix) (IntensityProfile, error) {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	profile := IntensityProfile{}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if matrix.IsMissing(v) {
				profile.Missing++
				continue
			}
			data = append(data, v)
		}
	}
	profile.Count = len(data)

	var err error
	if profile.Mean, err = stats.Mean(data); err != nil {
		return profile, err
	}
	if profile.StdDev, err = stats.StandardDeviation(data); err != nil {
		return profile, err
	}
	if profile.Min, err = stats.Min(data); err != nil {
		return profile, err
	}
	if profile.Max, err = stats.Max(data); err != nil {
		return profile, err
	}
	if profile.Median, err = stats.Median(data); err != nil {
		return profile, err
	}
	if profile.Q25, err = stats.Percentile(data, 25); err != nil {
		return profile, err
	}
	if profile.Q75, err = stats.Percentile(data, 75); err != nil {
		return profile, err
	}
	profile.Skewness = skewness(data, profile.Mean, profile.StdDev)
	return profile, nil
}

// skewness is the adjusted Fisher-Pearson coefficient.
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}
