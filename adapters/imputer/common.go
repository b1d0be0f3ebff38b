package imputer

import (
	"context"
	"fmt"
	"math"

	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

// observed holds the missing pattern of an input matrix.
type observed struct {
	rows, cols int
	missing    []bool // row-major
}

func newObserved(m mat.Matrix) *observed {
	r, c := m.Dims()
	o := &observed{rows: r, cols: c, missing: make([]bool, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			o.missing[i*c+j] = matrix.IsMissing(m.At(i, j))
		}
	}
	return o
}

func (o *observed) isMissing(i, j int) bool {
	return o.missing[i*o.cols+j]
}

func (o *observed) count() int {
	n := 0
	for _, miss := range o.missing {
		if !miss {
			n++
		}
	}
	return n
}

// zeroFilled copies m with every marker replaced by 0.
func zeroFilled(m mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, _ int, v float64) float64 {
		if matrix.IsMissing(v) {
			return 0
		}
		return v
	}, out)
	return out
}

// copyMissing writes src into dst at the missing positions only.
func (o *observed) copyMissing(dst, src *mat.Dense) {
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			if o.isMissing(i, j) {
				dst.Set(i, j, src.At(i, j))
			}
		}
	}
}

// converged compares the missing entries of two successive estimates:
// the relative change ||old - new|| / ||old|| must fall below threshold.
func (o *observed) converged(old, next *mat.Dense, threshold float64) bool {
	var ssd, oldNorm float64
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			if !o.isMissing(i, j) {
				continue
			}
			a, b := old.At(i, j), next.At(i, j)
			ssd += (a - b) * (a - b)
			oldNorm += a * a
		}
	}
	if oldNorm == 0 {
		return ssd == 0
	}
	return math.Sqrt(ssd)/math.Sqrt(oldNorm) < threshold
}

// observedMAE is the mean absolute error of next against truth on observed cells.
func (o *observed) observedMAE(truth, next *mat.Dense) float64 {
	var sum float64
	n := 0
	for i := 0; i < o.rows; i++ {
		for j := 0; j < o.cols; j++ {
			if o.isMissing(i, j) {
				continue
			}
			sum += math.Abs(truth.At(i, j) - next.At(i, j))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// svdOf factorizes m with thin SVD.
func svdOf(m mat.Matrix) (u, v *mat.Dense, values []float64, err error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, nil, nil, fmt.Errorf("SVD factorization failed")
	}
	u, v = &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return u, v, svd.Values(nil), nil
}

// reconstruct returns U[:, :k] · diag(values[:k]) · V[:, :k]ᵀ.
func reconstruct(u, v *mat.Dense, values []float64, k int) *mat.Dense {
	r, _ := u.Dims()
	c, _ := v.Dims()
	out := mat.NewDense(r, c, nil)
	if k == 0 {
		return out
	}

	scaled := mat.DenseCopyOf(u.Slice(0, r, 0, k))
	for j := 0; j < k; j++ {
		col := scaled.ColView(j).(*mat.VecDense)
		col.ScaleVec(values[j], col)
	}
	out.Mul(scaled, v.Slice(0, c, 0, k).T())
	return out
}

// checkRank rejects ranks the matrix cannot support.
func checkRank(m mat.Matrix, rank int) error {
	r, c := m.Dims()
	if rank > min(r, c) {
		return fmt.Errorf("rank %d exceeds min(rows, columns) = %d", rank, min(r, c))
	}
	return nil
}

// checkInput rejects degenerate inputs before any work is done.
func checkInput(ctx context.Context, m *mat.Dense, o *observed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.IsEmpty() {
		return fmt.Errorf("empty matrix")
	}
	if o.count() == 0 {
		return fmt.Errorf("matrix has no observed entries")
	}
	return nil
}
