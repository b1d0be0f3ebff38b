package dataset

import (
	"context"
	"math"
	"math/rand"

	"goimpute/domain/dataset"
	"goimpute/domain/matrix"
	"goimpute/internal"
)

// SyntheticConfig configures the procedural face generator
type SyntheticConfig struct {
	Count int          `json:"count"`
	Shape matrix.Shape `json:"shape"`
	Seed  int64        `json:"seed"`
	// Noise is the standard deviation of per-pixel gaussian noise.
	Noise float64 `json:"noise"`
}

// DefaultSyntheticConfig mirrors the size of the Olivetti face set
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Count: 400,
		Shape: matrix.DefaultShape,
		Seed:  42,
		Noise: 0.02,
	}
}

// SyntheticSource draws grayscale face-like images: a lit oval head, two
// eyes, a nose ridge and a mouth, each jittered per image.
type SyntheticSource struct {
	config SyntheticConfig
	logger *internal.Logger
}

// NewSyntheticSource creates a new synthetic face source
func NewSyntheticSource(config SyntheticConfig) *SyntheticSource {
	return &SyntheticSource{config: config, logger: internal.DefaultLogger}
}

// Load generates the configured number of faces. The same config always
// yields the same matrix.
func (s *SyntheticSource) Load(ctx context.Context) (*dataset.Faces, error) {
	if err := s.config.Shape.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.config.Seed))
	rows := make([][]float64, s.config.Count)
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows[i] = s.face(rng)
	}

	m, err := dataset.FromRows(rows, s.config.Shape)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[SyntheticSource] generated %d faces of %s (seed %d)", s.config.Count, s.config.Shape, s.config.Seed)
	return dataset.NewFaces(m, s.config.Shape, "synthetic")
}

type faceParams struct {
	cx, cy      float64 // head centre, normalised
	rx, ry      float64 // head radii
	eyeDX, eyeY float64
	eyeR        float64
	mouthY      float64
	mouthW      float64
	smile       float64
	skin        float64
	background  float64
	lightX      float64
	lightY      float64
}

func (s *SyntheticSource) params(rng *rand.Rand) faceParams {
	return faceParams{
		cx:         0.5 + rng.NormFloat64()*0.03,
		cy:         0.52 + rng.NormFloat64()*0.03,
		rx:         0.30 + rng.Float64()*0.06,
		ry:         0.40 + rng.Float64()*0.06,
		eyeDX:      0.11 + rng.Float64()*0.04,
		eyeY:       -0.10 + rng.NormFloat64()*0.02,
		eyeR:       0.035 + rng.Float64()*0.02,
		mouthY:     0.20 + rng.NormFloat64()*0.02,
		mouthW:     0.10 + rng.Float64()*0.06,
		smile:      rng.NormFloat64() * 0.03,
		skin:       0.55 + rng.Float64()*0.3,
		background: 0.05 + rng.Float64()*0.2,
		lightX:     rng.NormFloat64() * 0.3,
		lightY:     rng.NormFloat64() * 0.2,
	}
}

func (s *SyntheticSource) face(rng *rand.Rand) []float64 {
	p := s.params(rng)
	h, w := s.config.Shape.Height, s.config.Shape.Width
	out := make([]float64, h*w)

	for y := 0; y < h; y++ {
		ny := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			nx := (float64(x) + 0.5) / float64(w)
			dx, dy := nx-p.cx, ny-p.cy

			v := p.background
			if sq(dx/p.rx)+sq(dy/p.ry) <= 1 {
				v = p.skin * (1 + p.lightX*dx + p.lightY*dy)

				// eyes
				for _, ex := range []float64{-p.eyeDX, p.eyeDX} {
					if sq((dx-ex)/p.eyeR)+sq((dy-p.eyeY)/(p.eyeR*0.6)) <= 1 {
						v *= 0.25
					}
				}
				// nose ridge
				if math.Abs(dx) < 0.012 && dy > p.eyeY && dy < p.mouthY-0.06 {
					v *= 0.8
				}
				// mouth
				if math.Abs(dx) < p.mouthW {
					curve := p.mouthY + p.smile*sq(dx/p.mouthW)
					if math.Abs(dy-curve) < 0.015 {
						v *= 0.35
					}
				}
			}

			v += rng.NormFloat64() * s.config.Noise
			out[y*w+x] = clamp01(v)
		}
	}
	return out
}

func sq(v float64) float64 { return v * v }

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
