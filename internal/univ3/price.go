package univ3

import (
	"fmt"
	"math/big"

	core "github.com/daoleno/uniswap-sdk-core/entities"
	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/shopspring/decimal"

	"positionScope/internal/model"
)

// Price is how many quote units one base unit is worth.
// The sdk fraction is in smallest token units; the decimal scalar is applied on display.
type Price struct {
	Base  model.TokenMeta
	Quote model.TokenMeta
	sdk   *core.Price
}

// NewPrice builds numerator/denominator as quote-per-base in raw units.
// denominator must be non-zero.
func NewPrice(base, quote model.TokenMeta, denominator, numerator *big.Int) *Price {
	return &Price{
		Base:  base,
		Quote: quote,
		sdk:   core.NewPrice(sdkToken(base), sdkToken(quote), denominator, numerator),
	}
}

func wrapPrice(base, quote model.TokenMeta, price *core.Price) *Price {
	return &Price{Base: base, Quote: quote, sdk: price}
}

// Raw returns the undecimalized fraction.
func (p *Price) Raw() *big.Rat {
	return new(big.Rat).SetFrac(p.sdk.Numerator, p.sdk.Denominator)
}

// Adjusted returns the fraction scaled by token decimals.
func (p *Price) Adjusted() *big.Rat {
	scalar := new(big.Rat).SetFrac(pow10(int(p.Base.Decimals)), pow10(int(p.Quote.Decimals)))
	return scalar.Mul(scalar, p.Raw())
}

// Invert returns the price of quote in base. The raw fraction must be non-zero.
func (p *Price) Invert() *Price {
	return wrapPrice(p.Quote, p.Base, p.sdk.Invert())
}

// LessThanOne compares the raw fraction with 1.
func (p *Price) LessThanOne() bool {
	return p.sdk.LessThan(core.NewFraction(big.NewInt(1), big.NewInt(1)))
}

// Cmp compares raw fractions of two prices over the same pair.
func (p *Price) Cmp(other *Price) int {
	return p.Raw().Cmp(other.Raw())
}

// Equal reports whether both prices quote the same pair at the same ratio.
func (p *Price) Equal(other *Price) bool {
	if other == nil {
		return false
	}
	return p.Base.Equals(other.Base) && p.Quote.Equals(other.Quote) && p.Cmp(other) == 0
}

// QuoteAmount converts a raw base amount into a raw quote amount, rounding down.
func (p *Price) QuoteAmount(amount *big.Int) (*big.Int, error) {
	quoted, err := p.sdk.Quote(core.FromRawAmount(p.sdk.BaseCurrency, amount))
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", p.Base.Label(), err)
	}
	return quoted.Quotient(), nil
}

// ToSignificant formats the adjusted price with the given number of significant digits.
// Halves round up.
func (p *Price) ToSignificant(digits int) string {
	return formatSignificant(p.Adjusted(), digits)
}

// ToFixed formats the adjusted price with a fixed number of decimal places.
func (p *Price) ToFixed(places int) string {
	adj := p.Adjusted()
	num := decimal.NewFromBigInt(adj.Num(), 0)
	den := decimal.NewFromBigInt(adj.Denom(), 0)
	return num.DivRound(den, int32(places)).StringFixed(int32(places))
}

// Float64 returns the nearest float64 of the adjusted price.
func (p *Price) Float64() float64 {
	f, _ := p.Adjusted().Float64()
	return f
}

func formatSignificant(r *big.Rat, digits int) string {
	if r.Sign() == 0 {
		return "0"
	}
	if digits <= 0 {
		digits = 1
	}

	num := new(big.Int).Abs(r.Num())
	den := r.Denom()

	exp := len(num.String()) - len(den.String())
	if lessThanPow10(num, den, exp) {
		exp--
	}

	places := digits - 1 - exp
	if places >= 0 {
		numDec := decimal.NewFromBigInt(r.Num(), 0)
		return numDec.DivRound(decimal.NewFromBigInt(den, 0), int32(places)).String()
	}

	// Fewer digits than the integer part: round num/(den*10^-places) once, then scale back.
	divisor := new(big.Int).Mul(den, pow10(-places))
	q, rem := new(big.Int).QuoRem(num, divisor, new(big.Int))
	if rem.Lsh(rem, 1).Cmp(divisor) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if r.Sign() < 0 {
		q.Neg(q)
	}
	return decimal.NewFromBigInt(q, int32(-places)).String()
}

// lessThanPow10 reports num/den < 10^exp.
func lessThanPow10(num, den *big.Int, exp int) bool {
	if exp >= 0 {
		return num.Cmp(new(big.Int).Mul(den, pow10(exp))) < 0
	}
	return new(big.Int).Mul(num, pow10(-exp)).Cmp(den) < 0
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// TickToPrice returns the price of base in quote at tick.
func TickToPrice(base, quote model.TokenMeta, tick int32) (*Price, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	if base.Equals(quote) {
		return nil, fmt.Errorf("identical tokens: %s", base.Address)
	}
	price, err := utils.TickToPrice(sdkToken(base), sdkToken(quote), int(tick))
	if err != nil {
		return nil, fmt.Errorf("tick %d price: %w", tick, err)
	}
	return wrapPrice(base, quote, price), nil
}
