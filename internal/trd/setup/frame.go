package setup

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame maps module-local coordinates to the global frame:
// global = Translation + Rotation * local.
type Frame struct {
	rot   *mat.Dense
	trans r3.Vec
}

// NewFrame builds a frame from a row-major 3x3 rotation and a translation.
func NewFrame(rotation [9]float64, translation [3]float64) Frame {
	data := make([]float64, 9)
	copy(data, rotation[:])
	return Frame{
		rot:   mat.NewDense(3, 3, data),
		trans: r3.Vec{X: translation[0], Y: translation[1], Z: translation[2]},
	}
}

// Frame returns the module placement.
func (m *Module) Frame() Frame {
	return NewFrame(m.Rotation, m.Translation)
}

// ToGlobal transforms a module-local point to global coordinates.
func (f Frame) ToGlobal(local r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(f.rot, mat.NewVecDense(3, []float64{local.X, local.Y, local.Z}))
	return r3.Add(f.trans, r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)})
}

// ToLocal is the inverse of ToGlobal for an orthonormal rotation.
func (f Frame) ToLocal(global r3.Vec) r3.Vec {
	d := r3.Sub(global, f.trans)
	var out mat.VecDense
	out.MulVec(f.rot.T(), mat.NewVecDense(3, []float64{d.X, d.Y, d.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// OrientationRotation returns the rotation about the beam axis for a module
// mounted at orientation*90 degrees.
func OrientationRotation(orientation int) [9]float64 {
	a := float64(orientation%4) * math.Pi / 2
	c, s := math.Round(math.Cos(a)), math.Round(math.Sin(a))
	return [9]float64{c, -s, 0, s, c, 0, 0, 0, 1}
}

// IsRotatedQuarter reports whether the pad columns run along global y,
// which swaps the x and y hit errors.
func IsRotatedQuarter(orientation int) bool {
	return orientation%2 == 1
}
