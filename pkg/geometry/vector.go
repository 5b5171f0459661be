package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Epsilon Precision constant used for float64 comparisons.
const (
	Epsilon = 1e-9
)

// ErrDivideByZero is returned by the division helpers when a divisor is zero.
var ErrDivideByZero = errors.New("vector cannot be divided by zero")

// Vector is a point or direction in n-dimensional cartesian space.
// The number of dimensions is fixed by whoever creates it (a swarm uses the
// dimensionality of its Cube) and every binary operation expects operands of
// the same length.
//
// Vectors are immutable by convention: every operation returns a new Vector,
// so two boids never share a backing array.
type Vector []float64

// NewVector creates a Vector holding a copy of coords.
func NewVector(coords ...float64) Vector {
	v := make(Vector, len(coords))
	copy(v, coords)
	return v
}

// Zero returns the origin of a dims-dimensional space.
func Zero(dims int) Vector {
	return make(Vector, dims)
}

// Filled returns a dims-dimensional vector with every component set to value.
func Filled(dims int, value float64) Vector {
	v := make(Vector, dims)
	for i := range v {
		v[i] = value
	}
	return v
}

// Dims is the number of components.
func (v Vector) Dims() int { return len(v) }

// Clone returns a copy that does not alias v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	return NewVector(v...)
}

// ---------------------------------------------------------------------
// Stringer Interface
// ---------------------------------------------------------------------

// String implements the fmt.Stringer interface.
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = fmt.Sprintf("%.2f", c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector) Add(other Vector) Vector {
	return floats.AddTo(make(Vector, len(v)), v, other)
}

// Sub subtracts the other vector from the current vector.
func (v Vector) Sub(other Vector) Vector {
	return floats.SubTo(make(Vector, len(v)), v, other)
}

// Mul scales the vector by a scalar value.
func (v Vector) Mul(scalar float64) Vector {
	return floats.ScaleTo(make(Vector, len(v)), scalar, v)
}

// Div scales the vector by 1/scalar.
// If scalar is zero it returns an Inf vector together with ErrDivideByZero.
func (v Vector) Div(scalar float64) (Vector, error) {
	if scalar == 0 {
		return Filled(len(v), math.Inf(1)), ErrDivideByZero
	}
	return v.Mul(1 / scalar), nil
}

// DivElem divides v by other component by component.
// A zero component in other yields ErrDivideByZero and an Inf in that position.
func (v Vector) DivElem(other Vector) (Vector, error) {
	out := make(Vector, len(v))
	var err error
	for i := range v {
		if other[i] == 0 {
			out[i] = math.Inf(1)
			err = ErrDivideByZero
			continue
		}
		out[i] = v[i] / other[i]
	}
	return out, err
}

// ---------------------------------------------------------------------
// Products, Magnitude and Normalization
// ---------------------------------------------------------------------

// Dot calculates the dot product of two vectors.
func (v Vector) Dot(other Vector) float64 {
	return floats.Dot(v, other)
}

// LenSqr calculates the squared magnitude of the vector.
// Use it for comparisons, it avoids the square root.
func (v Vector) LenSqr() float64 {
	return floats.Dot(v, v)
}

// Len calculates the magnitude (length) of the vector.
func (v Vector) Len() float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero.
func (v Vector) Normalize() Vector {
	l := v.Len()
	if l < Epsilon {
		return Zero(len(v))
	}
	return v.Mul(1 / l)
}

// ClampLen returns v scaled down so that its length does not exceed limit.
func (v Vector) ClampLen(limit float64) Vector {
	if v.Len() <= limit {
		return v.Clone()
	}
	return v.Normalize().Mul(limit)
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector) DistanceTo(other Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Distance(v, other, 2)
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector) DistanceSquaredTo(other Vector) float64 {
	return v.Sub(other).LenSqr()
}

// Lerp (Linear Interpolate) calculates a point between v and target based on t [0, 1].
func (v Vector) Lerp(target Vector, t float64) Vector {
	return v.Add(target.Sub(v).Mul(t))
}

// ---------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector) Eq(other Vector) bool {
	return floats.EqualFunc(v, other, func(a, b float64) bool {
		return math.Abs(a-b) <= Epsilon
	})
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
