package rational

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Rat is an exact fraction in lowest terms with a positive denominator.
// Small values live in two int64 words; when an operation would overflow
// them the result is promoted to a *big.Rat, and demoted again as soon as
// it fits. A Rat is never mutated after creation, so values can be copied
// and shared freely. The zero value is 0.
type Rat struct {
	num int64
	den int64 // 0 means 1
	big *big.Rat
}

var (
	Zero = Rat{}
	One  = Rat{num: 1, den: 1}
)

// New returns num/den reduced to lowest terms. It panics when den is zero.
func New(num, den int64) Rat {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if num == math.MinInt64 || den == math.MinInt64 {
		return fromBig(new(big.Rat).SetFrac(big.NewInt(num), big.NewInt(den)))
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rat{num: num, den: den}
}

func FromInt(n int64) Rat {
	if n == math.MinInt64 {
		return fromBig(new(big.Rat).SetInt64(n))
	}
	return Rat{num: n, den: 1}
}

// FromBig copies x.
func FromBig(x *big.Rat) Rat {
	return fromBig(new(big.Rat).Set(x))
}

// Parse accepts the formats of (*big.Rat).SetString: "3", "-3/4", "1.25",
// "1e-3".
func Parse(s string) (Rat, error) {
	x, ok := new(big.Rat).SetString(s)
	if !ok {
		return Zero, fmt.Errorf("rational: cannot parse %q", s)
	}
	return fromBig(x), nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) Rat {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// FromFloat64 returns the rational written by the shortest decimal
// representation of f, so 0.1 becomes 1/10 rather than the binary value
// nearest to it. It panics on NaN and infinities.
func FromFloat64(f float64) Rat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic("rational: non-finite float")
	}
	return MustParse(strconv.FormatFloat(f, 'g', -1, 64))
}

// Pow2 returns 2^k.
func Pow2(k int) Rat {
	switch {
	case k >= 0 && k < 62:
		return Rat{num: 1 << uint(k), den: 1}
	case k < 0 && k > -62:
		return Rat{num: 1, den: 1 << uint(-k)}
	}
	x := new(big.Rat)
	p := new(big.Int).Lsh(big.NewInt(1), uint(absInt(k)))
	if k >= 0 {
		x.SetInt(p)
	} else {
		x.SetFrac(big.NewInt(1), p)
	}
	return fromBig(x)
}

// Ptr returns a pointer to a copy of r, for optional bounds.
func Ptr(r Rat) *Rat { return &r }

func fromBig(x *big.Rat) Rat {
	n, d := x.Num(), x.Denom()
	if n.IsInt64() && d.IsInt64() {
		nn, dd := n.Int64(), d.Int64()
		if nn != math.MinInt64 && dd != math.MinInt64 {
			return Rat{num: nn, den: dd}
		}
	}
	return Rat{big: x}
}

func (r Rat) d() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

// Big returns a fresh *big.Rat equal to r.
func (r Rat) Big() *big.Rat {
	if r.big != nil {
		return new(big.Rat).Set(r.big)
	}
	return new(big.Rat).SetFrac64(r.num, r.d())
}

// bigRef returns a *big.Rat equal to r that must not be modified.
func (r Rat) bigRef() *big.Rat {
	if r.big != nil {
		return r.big
	}
	return new(big.Rat).SetFrac64(r.num, r.d())
}

// IsSmall reports whether r is held in fixed-width form.
func (r Rat) IsSmall() bool { return r.big == nil }

func (r Rat) Num() *big.Int {
	if r.big != nil {
		return new(big.Int).Set(r.big.Num())
	}
	return big.NewInt(r.num)
}

func (r Rat) Den() *big.Int {
	if r.big != nil {
		return new(big.Int).Set(r.big.Denom())
	}
	return big.NewInt(r.d())
}

func (r Rat) Add(s Rat) Rat {
	if r.big == nil && s.big == nil {
		if s.num == 0 {
			return r
		}
		if r.num == 0 {
			return s
		}
		a, b := r.num, r.d()
		c, d := s.num, s.d()
		if b == 1 && d == 1 {
			if n, ok := add64(a, c); ok {
				return Rat{num: n, den: 1}
			}
		} else {
			g := gcd(b, d)
			bg, dg := b/g, d/g
			x, ok1 := mul64(a, dg)
			y, ok2 := mul64(c, bg)
			den, ok3 := mul64(b, dg)
			if ok1 && ok2 && ok3 {
				if n, ok := add64(x, y); ok {
					return New(n, den)
				}
			}
		}
	}
	return fromBig(new(big.Rat).Add(r.bigRef(), s.bigRef()))
}

func (r Rat) Sub(s Rat) Rat {
	return r.Add(s.Neg())
}

func (r Rat) Mul(s Rat) Rat {
	if r.big == nil && s.big == nil {
		if r.num == 0 || s.num == 0 {
			return Zero
		}
		// cross-reduce first so the products stay small
		a, b := r.num, r.d()
		c, d := s.num, s.d()
		g1 := gcd(abs64(a), d)
		g2 := gcd(abs64(c), b)
		a, d = a/g1, d/g1
		c, b = c/g2, b/g2
		n, ok1 := mul64(a, c)
		den, ok2 := mul64(b, d)
		if ok1 && ok2 {
			return Rat{num: n, den: den}
		}
	}
	return fromBig(new(big.Rat).Mul(r.bigRef(), s.bigRef()))
}

// Div returns r/s. It panics when s is zero.
func (r Rat) Div(s Rat) Rat {
	return r.Mul(s.Inv())
}

// Inv returns 1/r. It panics when r is zero.
func (r Rat) Inv() Rat {
	if r.IsZero() {
		panic("rational: division by zero")
	}
	if r.big == nil {
		if r.num < 0 {
			return Rat{num: -r.d(), den: -r.num}
		}
		return Rat{num: r.d(), den: r.num}
	}
	return fromBig(new(big.Rat).Inv(r.big))
}

func (r Rat) Neg() Rat {
	if r.big == nil {
		return Rat{num: -r.num, den: r.den}
	}
	return fromBig(new(big.Rat).Neg(r.big))
}

func (r Rat) Abs() Rat {
	if r.Sign() < 0 {
		return r.Neg()
	}
	return r
}

func (r Rat) Sign() int {
	if r.big != nil {
		return r.big.Sign()
	}
	switch {
	case r.num > 0:
		return 1
	case r.num < 0:
		return -1
	}
	return 0
}

func (r Rat) IsZero() bool { return r.Sign() == 0 }

func (r Rat) IsOne() bool { return r.big == nil && r.num == 1 && r.d() == 1 }

// IsInt reports whether the denominator is 1.
func (r Rat) IsInt() bool {
	if r.big != nil {
		return r.big.IsInt()
	}
	return r.d() == 1
}

// Cmp returns -1, 0 or +1 depending on whether r <, ==, > s.
func (r Rat) Cmp(s Rat) int {
	if r.big == nil && s.big == nil {
		if r.d() == 1 && s.d() == 1 {
			return cmp64(r.num, s.num)
		}
		x, ok1 := mul64(r.num, s.d())
		y, ok2 := mul64(s.num, r.d())
		if ok1 && ok2 {
			return cmp64(x, y)
		}
	}
	return r.bigRef().Cmp(s.bigRef())
}

func (r Rat) Equal(s Rat) bool { return r.Cmp(s) == 0 }

func (r Rat) Less(s Rat) bool { return r.Cmp(s) < 0 }

func Min(a, b Rat) Rat {
	if b.Less(a) {
		return b
	}
	return a
}

func Max(a, b Rat) Rat {
	if a.Less(b) {
		return b
	}
	return a
}

// Float64 returns the nearest float64 and whether it is exact.
func (r Rat) Float64() (float64, bool) {
	if r.big == nil && r.d() == 1 && abs64(r.num) <= 1<<53 {
		return float64(r.num), true
	}
	return r.bigRef().Float64()
}

// Log2 estimates log2|r|. It is only meant for choosing scale factors;
// the result of Log2(0) is -Inf.
func (r Rat) Log2() float64 {
	if r.IsZero() {
		return math.Inf(-1)
	}
	f, _ := r.Abs().Float64()
	if f != 0 && !math.IsInf(f, 0) {
		return math.Log2(f)
	}
	x := r.bigRef()
	return float64(x.Num().BitLen() - x.Denom().BitLen())
}

func (r Rat) String() string {
	if r.big != nil {
		return r.big.RatString()
	}
	if r.d() == 1 {
		return strconv.FormatInt(r.num, 10)
	}
	return strconv.FormatInt(r.num, 10) + "/" + strconv.FormatInt(r.d(), 10)
}

func (r Rat) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rat) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
