package imputer

import "goimpute/domain/experiment"

// Defaults applied when an option or config field is left at its zero value.
const (
	DEFAULT_MAX_ITERS = 100

	ITERATIVE_SVD_RANK                  = 10
	ITERATIVE_SVD_CONVERGENCE_THRESHOLD = 0.00001

	SOFT_IMPUTE_CONVERGENCE_THRESHOLD = 0.001
	// SOFT_IMPUTE_SHRINKAGE_DIVISOR derives the default shrinkage from the
	// largest singular value of the zero-filled matrix.
	SOFT_IMPUTE_SHRINKAGE_DIVISOR = 50.0

	MATRIX_FACTORIZATION_RANK          = 10
	MATRIX_FACTORIZATION_LEARNING_RATE = 0.05
	MATRIX_FACTORIZATION_EPOCHS        = 200
	MATRIX_FACTORIZATION_L2_PENALTY    = 0.001
	MATRIX_FACTORIZATION_INIT_SIGMA    = 0.1

	AUTOENCODER_EPOCHS        = 50
	AUTOENCODER_LEARNING_RATE = 0.001
	AUTOENCODER_ADAM_BETA1    = 0.9
	AUTOENCODER_ADAM_BETA2    = 0.999
	AUTOENCODER_ADAM_EPSILON  = 1e-8
)

// Fill methods understood by SimpleFill.
const (
	FillZero   = experiment.FillZero
	FillMean   = experiment.FillMean
	FillMedian = experiment.FillMedian
	FillMin    = experiment.FillMin
)

// Activations understood by AutoEncoder.
const (
	ActivationLinear  = "linear"
	ActivationTanh    = "tanh"
	ActivationSigmoid = "sigmoid"
	ActivationReLU    = "relu"
)
