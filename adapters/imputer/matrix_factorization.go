package imputer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/internal"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MatrixFactorizationConfig determines the behaviour of a
// MatrixFactorization completer.
type MatrixFactorizationConfig struct {
	// Rank is the inner dimension of U·Vᵀ.
	Rank int

	LearningRate float64
	Epochs       int

	// L2Penalty weights the squared norm of U and V.
	L2Penalty float64

	// Seed drives the initial factors.
	Seed int64
}

// DefaultMatrixFactorizationConfig returns the default configuration.
func DefaultMatrixFactorizationConfig() MatrixFactorizationConfig {
	return MatrixFactorizationConfig{
		Rank:         MATRIX_FACTORIZATION_RANK,
		LearningRate: MATRIX_FACTORIZATION_LEARNING_RATE,
		Epochs:       MATRIX_FACTORIZATION_EPOCHS,
		L2Penalty:    MATRIX_FACTORIZATION_L2_PENALTY,
	}
}

func (c MatrixFactorizationConfig) validate() error {
	name := string(experiment.AlgorithmMatrixFactorization)
	switch {
	case c.Rank < 1:
		return core.NewInvalidConfigurationError(name, "rank", c.Rank)
	case !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0):
		return core.NewInvalidConfigurationError(name, "learning_rate", c.LearningRate)
	case c.Epochs < 1:
		return core.NewInvalidConfigurationError(name, "epochs", c.Epochs)
	case c.L2Penalty < 0:
		return core.NewInvalidConfigurationError(name, "l2_penalty", c.L2Penalty)
	}
	return nil
}

// MatrixFactorization fits X ≈ U·Vᵀ + row bias + column bias + global bias
// on the observed entries by full-batch gradient descent and predicts the
// missing entries from the fitted model.
type MatrixFactorization struct {
	config MatrixFactorizationConfig
	logger *internal.Logger
}

// NewMatrixFactorization validates config and returns the completer.
func NewMatrixFactorization(config MatrixFactorizationConfig) (*MatrixFactorization, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &MatrixFactorization{config: config, logger: internal.DefaultLogger}, nil
}

func (f *MatrixFactorization) Name() string {
	return fmt.Sprintf("%s(rank=%d)", experiment.AlgorithmMatrixFactorization, f.config.Rank)
}

// mfModel holds the fitted parameters.
type mfModel struct {
	u, v    *mat.Dense
	rowBias []float64
	colBias []float64
	global  float64
}

func (f *MatrixFactorization) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	obs := newObserved(m)
	if err := checkInput(ctx, m, obs); err != nil {
		return nil, err
	}

	model, err := f.fit(ctx, m, obs)
	if err != nil {
		return nil, err
	}

	pred := model.predict()
	out := mat.DenseCopyOf(m)
	obs.copyMissing(out, pred)
	return out, nil
}

func (f *MatrixFactorization) fit(ctx context.Context, m *mat.Dense, obs *observed) (*mfModel, error) {
	rows, cols := m.Dims()
	rank := f.config.Rank
	lr := f.config.LearningRate
	l2 := f.config.L2Penalty

	model := f.initModel(rows, cols, m, obs)

	// Observation counts per row and column normalise the gradients.
	rowCount := make([]float64, rows)
	colCount := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !obs.isMissing(i, j) {
				rowCount[i]++
				colCount[j]++
			}
		}
	}
	total := float64(obs.count())

	resid := mat.NewDense(rows, cols, nil)
	var gradU, gradV mat.Dense
	for epoch := 0; epoch < f.config.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Residual on observed cells, zero elsewhere.
		resid.Mul(model.u, model.v.T())
		var sse, globalGrad float64
		rowGrad := make([]float64, rows)
		colGrad := make([]float64, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if obs.isMissing(i, j) {
					resid.Set(i, j, 0)
					continue
				}
				e := resid.At(i, j) + model.rowBias[i] + model.colBias[j] + model.global - m.At(i, j)
				resid.Set(i, j, e)
				sse += e * e
				rowGrad[i] += e
				colGrad[j] += e
				globalGrad += e
			}
		}

		gradU.Mul(resid, model.v)
		gradV.Mul(resid.T(), model.u)
		for i := 0; i < rows; i++ {
			if rowCount[i] == 0 {
				continue
			}
			for k := 0; k < rank; k++ {
				g := gradU.At(i, k)/rowCount[i] + l2*model.u.At(i, k)
				model.u.Set(i, k, model.u.At(i, k)-lr*g)
			}
			model.rowBias[i] -= lr * rowGrad[i] / rowCount[i]
		}
		for j := 0; j < cols; j++ {
			if colCount[j] == 0 {
				continue
			}
			for k := 0; k < rank; k++ {
				g := gradV.At(j, k)/colCount[j] + l2*model.v.At(j, k)
				model.v.Set(j, k, model.v.At(j, k)-lr*g)
			}
			model.colBias[j] -= lr * colGrad[j] / colCount[j]
		}
		model.global -= lr * globalGrad / total

		rmse := math.Sqrt(sse / total)
		if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
			return nil, fmt.Errorf("gradient descent diverged at epoch %d", epoch+1)
		}
		f.logger.Trace("[MatrixFactorization] epoch %d: observed RMSE=%.6f", epoch+1, rmse)
	}
	return model, nil
}

func (f *MatrixFactorization) initModel(rows, cols int, m *mat.Dense, obs *observed) *mfModel {
	seed := uint64(f.config.Seed)
	normal := distuv.Normal{
		Mu:    0,
		Sigma: MATRIX_FACTORIZATION_INIT_SIGMA,
		Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}

	u := mat.NewDense(rows, f.config.Rank, nil)
	v := mat.NewDense(cols, f.config.Rank, nil)
	for _, d := range []*mat.Dense{u, v} {
		raw := d.RawMatrix().Data
		for i := range raw {
			raw[i] = normal.Rand()
		}
	}

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !obs.isMissing(i, j) {
				sum += m.At(i, j)
			}
		}
	}

	return &mfModel{
		u:       u,
		v:       v,
		rowBias: make([]float64, rows),
		colBias: make([]float64, cols),
		global:  sum / float64(obs.count()),
	}
}

func (model *mfModel) predict() *mat.Dense {
	var pred mat.Dense
	pred.Mul(model.u, model.v.T())
	pred.Apply(func(i, j int, v float64) float64 {
		return v + model.rowBias[i] + model.colBias[j] + model.global
	}, &pred)
	return &pred
}
