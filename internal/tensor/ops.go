package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Op is a binary elementwise operation.
type Op int

const (
	OpAdd  Op = iota // a + b
	OpSub            // a - b
	OpRSub           // b - a
	OpMul            // a * b
	OpDiv            // a / b
	OpRDiv           // b / a
	OpMin
	OpMax
)

var opNames = [...]string{"add", "sub", "rsub", "mul", "div", "rdiv", "min", "max"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "unknown"
	}
	return opNames[op]
}

func (op Op) apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpRSub:
		return b - a
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpRDiv:
		return b / a
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	}
	panic("tensor: unknown op")
}

// outFor returns out when it has the shape of t, a new tensor when out is nil.
func (t *Tensor) outFor(name string, out *Tensor) (*Tensor, error) {
	if out == nil {
		return New(t.dims...), nil
	}
	if !out.SameShape(t) {
		return nil, newShapeError(name+" out", out.dims, t.dims)
	}
	return out, nil
}

// Elementwise computes t op other element by element. The result goes to out
// when it is non-nil (out may be t or other), otherwise to a new tensor.
func (t *Tensor) Elementwise(op Op, other, out *Tensor) (*Tensor, error) {
	if !t.SameShape(other) {
		return nil, newShapeError(op.String(), other.dims, t.dims)
	}
	out, err := t.outFor(op.String(), out)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAdd:
		floats.AddTo(out.data, t.data, other.data)
	case OpSub:
		floats.SubTo(out.data, t.data, other.data)
	case OpRSub:
		floats.SubTo(out.data, other.data, t.data)
	case OpMul:
		floats.MulTo(out.data, t.data, other.data)
	case OpDiv:
		floats.DivTo(out.data, t.data, other.data)
	case OpRDiv:
		floats.DivTo(out.data, other.data, t.data)
	default:
		for i, v := range t.data {
			out.data[i] = op.apply(v, other.data[i])
		}
	}
	return out, nil
}

// Scalar computes t op s for every element, writing to out if non-nil.
func (t *Tensor) Scalar(op Op, s float64, out *Tensor) (*Tensor, error) {
	out, err := t.outFor(op.String(), out)
	if err != nil {
		return nil, err
	}
	for i, v := range t.data {
		out.data[i] = op.apply(v, s)
	}
	return out, nil
}

// Add returns t + other as a new tensor.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	return t.Elementwise(OpAdd, other, nil)
}

// Sub returns t - other as a new tensor.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	return t.Elementwise(OpSub, other, nil)
}

// Mul returns the elementwise product as a new tensor.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	return t.Elementwise(OpMul, other, nil)
}

// Div returns the elementwise quotient as a new tensor.
func (t *Tensor) Div(other *Tensor) (*Tensor, error) {
	return t.Elementwise(OpDiv, other, nil)
}

// AddInPlace adds other to t.
func (t *Tensor) AddInPlace(other *Tensor) error {
	_, err := t.Elementwise(OpAdd, other, t)
	return err
}

// SubInPlace subtracts other from t.
func (t *Tensor) SubInPlace(other *Tensor) error {
	_, err := t.Elementwise(OpSub, other, t)
	return err
}

// MulInPlace multiplies t by other element by element.
func (t *Tensor) MulInPlace(other *Tensor) error {
	_, err := t.Elementwise(OpMul, other, t)
	return err
}

// DivInPlace divides t by other element by element.
func (t *Tensor) DivInPlace(other *Tensor) error {
	_, err := t.Elementwise(OpDiv, other, t)
	return err
}

// ScaleInPlace multiplies every element by s.
func (t *Tensor) ScaleInPlace(s float64) {
	floats.Scale(s, t.data)
}

// AddScalarInPlace adds s to every element.
func (t *Tensor) AddScalarInPlace(s float64) {
	floats.AddConst(s, t.data)
}

// Apply maps f over t, writing to out if non-nil.
func (t *Tensor) Apply(f func(float64) float64, out *Tensor) (*Tensor, error) {
	out, err := t.outFor("apply", out)
	if err != nil {
		return nil, err
	}
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out, nil
}
