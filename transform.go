package dest

import (
	"gonum.org/v1/gonum/mat"
)

// Transform is a 2D similarity transform consisting of a linear part
// (scaled rotation) and a translation
type Transform struct {
	// A holds the linear part in row major order a00,a01,a10,a11
	A [4]float32
	// T is the translation
	T Point
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{A: [4]float32{1, 0, 0, 1}}
}

// Apply transforms the point through the linear part and translation
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A[0]*p.X + t.A[1]*p.Y + t.T.X,
		Y: t.A[2]*p.X + t.A[3]*p.Y + t.T.Y,
	}
}

// ApplyVector transforms an offset through the linear part only,
// ignoring translation.  Used for shape-indexed feature offsets which
// rotate and scale with the pose but do not translate
func (t Transform) ApplyVector(p Point) Point {
	return Point{
		X: t.A[0]*p.X + t.A[1]*p.Y,
		Y: t.A[2]*p.X + t.A[3]*p.Y,
	}
}

// ApplyShape returns a new shape with every landmark transformed
func (t Transform) ApplyShape(s Shape) Shape {

	out := make(Shape, len(s))

	for i, p := range s {
		out[i] = t.Apply(p)
	}

	return out
}

// Invert returns the inverse transform
func (t Transform) Invert() Transform {

	det := t.A[0]*t.A[3] - t.A[1]*t.A[2]

	if det == 0 {
		return IdentityTransform()
	}

	inv := Transform{
		A: [4]float32{
			t.A[3] / det, -t.A[1] / det,
			-t.A[2] / det, t.A[0] / det,
		},
	}

	// -A^-1 * t
	inv.T.X = -(inv.A[0]*t.T.X + inv.A[1]*t.T.Y)
	inv.T.Y = -(inv.A[2]*t.T.X + inv.A[3]*t.T.Y)

	return inv
}

// EstimateSimilarity computes the least-squares similarity transform
// mapping the source shape onto the destination shape using the
// Umeyama method.  Both shapes must have the same landmark count and
// at least two landmarks
func EstimateSimilarity(src, dst Shape) Transform {

	n := len(src)

	if n < 2 || n != len(dst) {
		return IdentityTransform()
	}

	// centroids
	srcC := src.Center()
	dstC := dst.Center()

	// demeaned covariance and source variance
	cov := mat.NewDense(2, 2, nil)
	var srcVar float64

	for i := 0; i < n; i++ {
		sx := float64(src[i].X - srcC.X)
		sy := float64(src[i].Y - srcC.Y)
		dx := float64(dst[i].X - dstC.X)
		dy := float64(dst[i].Y - dstC.Y)

		cov.Set(0, 0, cov.At(0, 0)+dx*sx)
		cov.Set(0, 1, cov.At(0, 1)+dx*sy)
		cov.Set(1, 0, cov.At(1, 0)+dy*sx)
		cov.Set(1, 1, cov.At(1, 1)+dy*sy)

		srcVar += sx*sx + sy*sy
	}

	fn := float64(n)
	cov.Scale(1/fn, cov)
	srcVar /= fn

	if srcVar == 0 {
		return IdentityTransform()
	}

	var svd mat.SVD

	if ok := svd.Factorize(cov, mat.SVDFull); !ok {
		return IdentityTransform()
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	// sign correction keeps the rotation a proper one
	d := [2]float64{1, 1}

	if mat.Det(cov) < 0 {
		d[1] = -1
	}

	// R = U * diag(d) * V^T
	var r mat.Dense
	dm := mat.NewDiagDense(2, d[:])
	r.Mul(&u, dm)
	r.Mul(&r, v.T())

	scale := (sv[0]*d[0] + sv[1]*d[1]) / srcVar

	t := Transform{
		A: [4]float32{
			float32(scale * r.At(0, 0)), float32(scale * r.At(0, 1)),
			float32(scale * r.At(1, 0)), float32(scale * r.At(1, 1)),
		},
	}

	// translation aligns the centroids after rotation and scaling
	rc := t.ApplyVector(srcC)
	t.T.X = dstC.X - rc.X
	t.T.Y = dstC.Y - rc.Y

	return t
}

// RectTransform computes the similarity transform mapping the corners
// of one rectangle onto another.  Mapping UnitRect onto an image rect
// yields the normalized-to-image space transform
func RectTransform(from, to Rect) Transform {
	return EstimateSimilarity(from.Shape(), to.Shape())
}
