package model

import "q.log/exactlp/rational"

// Interval is a closed interval whose ends may be infinite. A nil Lower is
// -inf and a nil Upper is +inf.
type Interval struct {
	Lower *rational.Rat
	Upper *rational.Rat
}

func Free() Interval { return Interval{} }

func NonNegative() Interval { return Interval{Lower: rational.Ptr(rational.Zero)} }

func AtLeast(l rational.Rat) Interval { return Interval{Lower: rational.Ptr(l)} }

func AtMost(u rational.Rat) Interval { return Interval{Upper: rational.Ptr(u)} }

func Between(l, u rational.Rat) Interval {
	return Interval{Lower: rational.Ptr(l), Upper: rational.Ptr(u)}
}

func Fixed(v rational.Rat) Interval { return Between(v, v) }

// Empty reports whether lower > upper.
func (iv Interval) Empty() bool {
	return iv.Lower != nil && iv.Upper != nil && iv.Upper.Less(*iv.Lower)
}

func (iv Interval) IsFixed() bool {
	return iv.Lower != nil && iv.Upper != nil && iv.Lower.Equal(*iv.Upper)
}

func (iv Interval) IsFree() bool { return iv.Lower == nil && iv.Upper == nil }

func (iv Interval) Contains(v rational.Rat) bool {
	if iv.Lower != nil && v.Less(*iv.Lower) {
		return false
	}
	if iv.Upper != nil && iv.Upper.Less(v) {
		return false
	}
	return true
}

// Shift returns the interval translated by -delta.
func (iv Interval) Shift(delta rational.Rat) Interval {
	var out Interval
	if iv.Lower != nil {
		out.Lower = rational.Ptr(iv.Lower.Sub(delta))
	}
	if iv.Upper != nil {
		out.Upper = rational.Ptr(iv.Upper.Sub(delta))
	}
	return out
}

// Scale returns the interval multiplied by f; a negative f swaps the ends.
func (iv Interval) Scale(f rational.Rat) Interval {
	var out Interval
	if iv.Lower != nil {
		out.Lower = rational.Ptr(iv.Lower.Mul(f))
	}
	if iv.Upper != nil {
		out.Upper = rational.Ptr(iv.Upper.Mul(f))
	}
	if f.Sign() < 0 {
		out.Lower, out.Upper = out.Upper, out.Lower
	}
	return out
}

// Intersect returns the tightest interval contained in both.
func (iv Interval) Intersect(o Interval) Interval {
	out := iv
	if o.Lower != nil && (out.Lower == nil || out.Lower.Less(*o.Lower)) {
		out.Lower = o.Lower
	}
	if o.Upper != nil && (out.Upper == nil || o.Upper.Less(*out.Upper)) {
		out.Upper = o.Upper
	}
	return out
}

func (iv Interval) String() string {
	lo, hi := "-inf", "+inf"
	if iv.Lower != nil {
		lo = iv.Lower.String()
	}
	if iv.Upper != nil {
		hi = iv.Upper.String()
	}
	return "[" + lo + ", " + hi + "]"
}
