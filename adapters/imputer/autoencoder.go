package imputer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/internal"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// AutoEncoderConfig determines the behaviour of an AutoEncoder completer.
type AutoEncoderConfig struct {
	// HiddenLayerSizes lists the hidden widths from input to bottleneck.
	HiddenLayerSizes []int

	HiddenActivation string
	OutputActivation string

	Epochs       int
	LearningRate float64

	// Seed drives weight initialisation.
	Seed int64
}

// DefaultAutoEncoderConfig returns the default configuration.
func DefaultAutoEncoderConfig() AutoEncoderConfig {
	return AutoEncoderConfig{
		HiddenLayerSizes: []int{100, 10},
		HiddenActivation: ActivationTanh,
		OutputActivation: ActivationSigmoid,
		Epochs:           AUTOENCODER_EPOCHS,
		LearningRate:     AUTOENCODER_LEARNING_RATE,
	}
}

func (c AutoEncoderConfig) validate() error {
	name := string(experiment.AlgorithmAutoEncoder)
	if len(c.HiddenLayerSizes) == 0 {
		return core.NewInvalidConfigurationError(name, "hidden_layer_sizes", c.HiddenLayerSizes)
	}
	for _, size := range c.HiddenLayerSizes {
		if size < 1 {
			return core.NewInvalidConfigurationError(name, "hidden_layer_sizes", c.HiddenLayerSizes)
		}
	}
	if _, err := parseActivation(c.HiddenActivation); err != nil {
		return core.NewInvalidConfigurationError(name, "hidden_activation", c.HiddenActivation)
	}
	if _, err := parseActivation(c.OutputActivation); err != nil {
		return core.NewInvalidConfigurationError(name, "output_activation", c.OutputActivation)
	}
	switch {
	case c.Epochs < 1:
		return core.NewInvalidConfigurationError(name, "epochs", c.Epochs)
	case !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0):
		return core.NewInvalidConfigurationError(name, "learning_rate", c.LearningRate)
	}
	return nil
}

// activation is an element-wise nonlinearity with its derivative written in
// terms of the activation output.
type activation struct {
	name  string
	apply func(z float64) float64
	deriv func(a float64) float64
}

func parseActivation(name string) (activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ActivationLinear:
		return activation{ActivationLinear, func(z float64) float64 { return z }, func(float64) float64 { return 1 }}, nil
	case ActivationTanh:
		return activation{ActivationTanh, math.Tanh, func(a float64) float64 { return 1 - a*a }}, nil
	case ActivationSigmoid:
		return activation{ActivationSigmoid,
			func(z float64) float64 { return 1 / (1 + math.Exp(-z)) },
			func(a float64) float64 { return a * (1 - a) }}, nil
	case ActivationReLU:
		return activation{ActivationReLU,
			func(z float64) float64 { return max(z, 0) },
			func(a float64) float64 {
				if a > 0 {
					return 1
				}
				return 0
			}}, nil
	default:
		return activation{}, fmt.Errorf("unknown activation %q", name)
	}
}

// AutoEncoder trains a dense network to reproduce its input on the observed
// entries. After every epoch the missing entries of the input are replaced
// by the network's reconstruction, so the fill improves as training goes on.
type AutoEncoder struct {
	config AutoEncoderConfig
	hidden activation
	output activation
	logger *internal.Logger
}

// NewAutoEncoder validates config and returns the completer.
func NewAutoEncoder(config AutoEncoderConfig) (*AutoEncoder, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	hidden, _ := parseActivation(config.HiddenActivation)
	output, _ := parseActivation(config.OutputActivation)
	return &AutoEncoder{
		config: config,
		hidden: hidden,
		output: output,
		logger: internal.DefaultLogger,
	}, nil
}

func (a *AutoEncoder) Name() string {
	return fmt.Sprintf("%s(hidden=%v)", experiment.AlgorithmAutoEncoder, a.config.HiddenLayerSizes)
}

// denseLayer is one fully connected layer with Adam moment estimates.
type denseLayer struct {
	w    *mat.Dense // in × out
	b    []float64
	act  activation
	mW   *mat.Dense
	vW   *mat.Dense
	mB   []float64
	vB   []float64
	out  *mat.Dense // last forward activations
	grad mat.Dense
}

func newDenseLayer(in, out int, act activation, src rand.Source) *denseLayer {
	normal := distuv.Normal{Mu: 0, Sigma: 1 / math.Sqrt(float64(in)), Src: src}
	w := mat.NewDense(in, out, nil)
	raw := w.RawMatrix().Data
	for i := range raw {
		raw[i] = normal.Rand()
	}
	return &denseLayer{
		w:   w,
		b:   make([]float64, out),
		act: act,
		mW:  mat.NewDense(in, out, nil),
		vW:  mat.NewDense(in, out, nil),
		mB:  make([]float64, out),
		vB:  make([]float64, out),
	}
}

func (l *denseLayer) forward(x mat.Matrix) *mat.Dense {
	var z mat.Dense
	z.Mul(x, l.w)
	z.Apply(func(_, j int, v float64) float64 {
		return l.act.apply(v + l.b[j])
	}, &z)
	l.out = &z
	return &z
}

func (a *AutoEncoder) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	obs := newObserved(m)
	if err := checkInput(ctx, m, obs); err != nil {
		return nil, err
	}

	rows, cols := m.Dims()
	filled := zeroFilled(m)
	truth := mat.DenseCopyOf(filled)
	layers := a.build(cols)
	total := float64(obs.count())

	var recon *mat.Dense
	for epoch := 1; epoch <= a.config.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		recon = forwardAll(layers, filled)

		// Masked mean squared error gradient at the output.
		delta := mat.NewDense(rows, cols, nil)
		var sse float64
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if obs.isMissing(i, j) {
					continue
				}
				out := recon.At(i, j)
				e := out - truth.At(i, j)
				sse += e * e
				delta.Set(i, j, 2*e/total*a.output.deriv(out))
			}
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return nil, fmt.Errorf("training diverged at epoch %d", epoch)
		}

		a.backward(layers, filled, delta, epoch)
		obs.copyMissing(filled, recon)

		a.logger.Trace("[AutoEncoder] epoch %d: observed MSE=%.6f", epoch, sse/total)
	}

	recon = forwardAll(layers, filled)
	out := mat.DenseCopyOf(m)
	obs.copyMissing(out, recon)
	return out, nil
}

func (a *AutoEncoder) build(features int) []*denseLayer {
	seed := uint64(a.config.Seed)
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	var layers []*denseLayer
	in := features
	for _, size := range a.config.HiddenLayerSizes {
		layers = append(layers, newDenseLayer(in, size, a.hidden, src))
		in = size
	}
	return append(layers, newDenseLayer(in, features, a.output, src))
}

func forwardAll(layers []*denseLayer, x mat.Matrix) *mat.Dense {
	for _, l := range layers {
		x = l.forward(x)
	}
	return x.(*mat.Dense)
}

// backward propagates delta (dLoss/dZ of the output layer) and applies one
// Adam step to every layer.
func (a *AutoEncoder) backward(layers []*denseLayer, input *mat.Dense, delta *mat.Dense, step int) {
	for li := len(layers) - 1; li >= 0; li-- {
		l := layers[li]
		var prev mat.Matrix = input
		if li > 0 {
			prev = layers[li-1].out
		}

		l.grad.Reset()
		l.grad.Mul(prev.T(), delta)
		_, outCols := delta.Dims()
		gradB := make([]float64, outCols)
		for j := range gradB {
			gradB[j] = mat.Sum(delta.ColView(j))
		}

		if li > 0 {
			var next mat.Dense
			next.Mul(delta, l.w.T())
			below := layers[li-1]
			next.Apply(func(i, j int, v float64) float64 {
				return v * below.act.deriv(below.out.At(i, j))
			}, &next)
			a.adam(l, &l.grad, gradB, step)
			delta = &next
			continue
		}
		a.adam(l, &l.grad, gradB, step)
	}
}

func (a *AutoEncoder) adam(l *denseLayer, gradW *mat.Dense, gradB []float64, step int) {
	b1, b2 := AUTOENCODER_ADAM_BETA1, AUTOENCODER_ADAM_BETA2
	corr1 := 1 - math.Pow(b1, float64(step))
	corr2 := 1 - math.Pow(b2, float64(step))
	lr := a.config.LearningRate

	update := func(param, m, v, g float64) (float64, float64, float64) {
		m = b1*m + (1-b1)*g
		v = b2*v + (1-b2)*g*g
		param -= lr * (m / corr1) / (math.Sqrt(v/corr2) + AUTOENCODER_ADAM_EPSILON)
		return param, m, v
	}

	w, mw, vw, gw := l.w.RawMatrix().Data, l.mW.RawMatrix().Data, l.vW.RawMatrix().Data, gradW.RawMatrix().Data
	for i := range w {
		w[i], mw[i], vw[i] = update(w[i], mw[i], vw[i], gw[i])
	}
	for j := range l.b {
		l.b[j], l.mB[j], l.vB[j] = update(l.b[j], l.mB[j], l.vB[j], gradB[j])
	}
}
