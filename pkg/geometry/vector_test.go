package geometry

import (
	"errors"
	"math"
	"testing"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNewVector(t *testing.T) {
	coords := []float64{1, 2, 3}
	v := NewVector(coords...)
	coords[0] = 42
	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("NewVector(1, 2, 3) = %v; want (1, 2, 3) and no aliasing", v)
	}
	if v.Dims() != 3 {
		t.Errorf("Dims() = %d; want 3", v.Dims())
	}
}

func TestVector_String(t *testing.T) {
	v := NewVector(1.234, 5.678, 0)
	want := "(1.23, 5.68, 0.00)"
	if got := v.String(); got != want {
		t.Errorf("Vector.String() = %q; want %q", got, want)
	}
}

func TestVector_Arithmetic(t *testing.T) {
	v1 := NewVector(1, 2, 3)
	v2 := NewVector(3, 4, 5)

	t.Run("Add", func(t *testing.T) {
		want := NewVector(4, 6, 8)
		if got := v1.Add(v2); !got.Eq(want) {
			t.Errorf("%v.Add(%v) = %v; want %v", v1, v2, got, want)
		}
	})

	t.Run("Sub", func(t *testing.T) {
		want := NewVector(-2, -2, -2)
		if got := v1.Sub(v2); !got.Eq(want) {
			t.Errorf("%v.Sub(%v) = %v; want %v", v1, v2, got, want)
		}
	})

	t.Run("Mul", func(t *testing.T) {
		want := NewVector(2, 4, 6)
		if got := v1.Mul(2); !got.Eq(want) {
			t.Errorf("%v.Mul(2) = %v; want %v", v1, got, want)
		}
	})

	t.Run("Div", func(t *testing.T) {
		want := NewVector(0.5, 1, 1.5)
		got, err := v1.Div(2)
		if err != nil {
			t.Errorf("%v.Div(2) generated error: %v", v1, err)
		}
		if !got.Eq(want) {
			t.Errorf("%v.Div(2) = %v; want %v", v1, got, want)
		}
	})

	t.Run("DivByZero", func(t *testing.T) {
		got, err := v1.Div(0)
		if !errors.Is(err, ErrDivideByZero) {
			t.Errorf("%v.Div(0) error = %v; want ErrDivideByZero", v1, err)
		}
		if !math.IsInf(got[0], 0) {
			t.Errorf("Div(0) should result in Inf coordinates, got %v", got)
		}
	})

	t.Run("DivElem", func(t *testing.T) {
		got, err := NewVector(2, 9, 4).DivElem(NewVector(2, 3, 0))
		if !errors.Is(err, ErrDivideByZero) {
			t.Errorf("DivElem with zero divisor error = %v; want ErrDivideByZero", err)
		}
		if got[0] != 1 || got[1] != 3 || !math.IsInf(got[2], 1) {
			t.Errorf("DivElem = %v; want (1, 3, +Inf)", got)
		}
	})

	t.Run("Immutable", func(t *testing.T) {
		before := v1.Clone()
		_ = v1.Add(v2)
		_ = v1.Mul(10)
		_ = v1.Normalize()
		if !v1.Eq(before) {
			t.Errorf("operations mutated receiver: %v; want %v", v1, before)
		}
	})
}

func TestVector_Magnitude(t *testing.T) {
	v := NewVector(3, 4, 0) // 3-4-5 triangle

	t.Run("Len", func(t *testing.T) {
		if got := v.Len(); !floatEquals(got, 5) {
			t.Errorf("Len = %v; want 5", got)
		}
	})

	t.Run("LenSqr", func(t *testing.T) {
		if got := v.LenSqr(); got != 25 {
			t.Errorf("LenSqr = %v; want 25", got)
		}
	})

	t.Run("Normalize", func(t *testing.T) {
		got := v.Normalize()
		want := NewVector(0.6, 0.8, 0)
		if !got.Eq(want) {
			t.Errorf("Normalize = %v; want %v", got, want)
		}
		if !floatEquals(got.Len(), 1.0) {
			t.Errorf("Normalize length = %v; want 1", got.Len())
		}
	})

	t.Run("NormalizeZero", func(t *testing.T) {
		zero := Zero(4)
		got := zero.Normalize()
		if !got.Eq(zero) || !got.IsFinite() {
			t.Errorf("Normalize(0) = %v; want zero vector", got)
		}
	})

	t.Run("ClampLen", func(t *testing.T) {
		got := v.ClampLen(1)
		if !floatEquals(got.Len(), 1) {
			t.Errorf("ClampLen(1) length = %v; want 1", got.Len())
		}
		if short := NewVector(0.1, 0, 0).ClampLen(1); !short.Eq(NewVector(0.1, 0, 0)) {
			t.Errorf("ClampLen should leave short vectors untouched, got %v", short)
		}
	})
}

func TestVector_Distance(t *testing.T) {
	v1 := NewVector(1, 1, 1)
	v2 := NewVector(4, 5, 1) // dx=3, dy=4, dz=0

	if got := v1.DistanceTo(v2); !floatEquals(got, 5) {
		t.Errorf("DistanceTo = %v; want 5", got)
	}

	if got := v1.DistanceSquaredTo(v2); got != 25 {
		t.Errorf("DistanceSquaredTo = %v; want 25", got)
	}

	if got := v1.Dot(v2); got != 10 {
		t.Errorf("Dot = %v; want 10", got)
	}
}

func TestVector_Utilities(t *testing.T) {
	t.Run("Lerp", func(t *testing.T) {
		got := Zero(3).Lerp(Filled(3, 10), 0.5)
		want := Filled(3, 5)
		if !got.Eq(want) {
			t.Errorf("Lerp(0.5) = %v; want %v", got, want)
		}
	})

	t.Run("IsFinite", func(t *testing.T) {
		if NewVector(1, math.NaN()).IsFinite() {
			t.Error("IsFinite should reject NaN")
		}
		if NewVector(math.Inf(-1), 0).IsFinite() {
			t.Error("IsFinite should reject Inf")
		}
	})
}

func TestVector_Eq(t *testing.T) {
	v := NewVector(1, 2)

	if !v.Eq(NewVector(1, 2)) {
		t.Error("Eq exact match failed")
	}

	vClose := NewVector(1+Epsilon/2, 2-Epsilon/2)
	if !v.Eq(vClose) {
		t.Error("Eq epsilon match failed")
	}

	if v.Eq(NewVector(1.1, 2)) {
		t.Error("Eq mismatch failed")
	}

	if v.Eq(NewVector(1, 2, 0)) {
		t.Error("Eq should fail on different dimensions")
	}
}
