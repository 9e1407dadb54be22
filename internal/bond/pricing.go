package bond

import (
	"math"
	"time"
)

// Solver bounds and tolerances for yield-to-maturity
const (
	YieldFloor   = -0.20
	YieldCeiling = 1.00
	DefaultGuess = 0.05

	ytmMaxIter      = 100
	ytmEpsilon      = 1e-7  // forward-difference step
	ytmTolerance    = 1e-8  // |target - price| to accept
	ytmMinDeriv     = 1e-12 // below this Newton is unsafe
	dv01HalfBump    = 0.00005
	accrualDayBasis = 360.0
)

// Price discounts every cash flow at the bond's own compounding frequency.
// Yields at or below -100% return +Inf as a sentinel.
func Price(y float64, sched Schedule, frequency int) float64 {
	if y <= -1.0 {
		return math.Inf(1)
	}

	f := float64(frequency)
	base := 1 + y/f

	var price float64
	for _, cf := range sched {
		price += cf.Amount / math.Pow(base, f*cf.Time)
	}
	return price
}

// YTMResult reports the root-finder outcome
type YTMResult struct {
	Yield      float64 `json:"yield"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"` // target - price at Yield
	Converged  bool    `json:"converged"`
}

// SolveYTM finds the yield whose price equals target.
//
// Hybrid Newton/bisection: a forward-difference Newton step, replaced by the
// midpoint of [YieldFloor, YieldCeiling] when the derivative is tiny or NaN.
// The iterate is clamped to the bounds after every step. Non-convergence
// returns the last iterate with Converged=false.
func SolveYTM(target float64, sched Schedule, frequency int, guess float64) YTMResult {
	y := guess

	for i := 0; i < ytmMaxIter; i++ {
		price := Price(y, sched, frequency)
		deriv := (Price(y+ytmEpsilon, sched, frequency) - price) / ytmEpsilon

		if math.Abs(deriv) < ytmMinDeriv || math.IsNaN(deriv) {
			y = (YieldFloor + YieldCeiling) / 2
		} else {
			diff := target - price
			if math.Abs(diff) < ytmTolerance {
				return YTMResult{Yield: y, Iterations: i + 1, Residual: diff, Converged: true}
			}
			y += diff / deriv
		}

		y = clamp(y, YieldFloor, YieldCeiling)
	}

	return YTMResult{
		Yield:      y,
		Iterations: ytmMaxIter,
		Residual:   target - Price(y, sched, frequency),
		Converged:  false,
	}
}

// YTM is SolveYTM with the default guess, returning only the yield
func YTM(target float64, sched Schedule, frequency int) float64 {
	return SolveYTM(target, sched, frequency, DefaultGuess).Yield
}

// MacaulayDuration is the PV-weighted average time of the cash flows (years)
func MacaulayDuration(y float64, sched Schedule, frequency int) float64 {
	price := Price(y, sched, frequency)
	if price <= 0 || math.IsInf(price, 0) {
		return 0
	}

	f := float64(frequency)
	base := 1 + y/f

	var weighted float64
	for _, cf := range sched {
		pv := cf.Amount / math.Pow(base, f*cf.Time)
		weighted += cf.Time * pv
	}
	return weighted / price
}

// ModifiedDuration converts a Macaulay duration at yield y
func ModifiedDuration(y, macaulay float64, frequency int) float64 {
	return macaulay / (1 + y/float64(frequency))
}

// Convexity = sum(pv * (t^2 + t/f)) / (price * (1+y/f)^2)
func Convexity(y float64, sched Schedule, frequency int) float64 {
	price := Price(y, sched, frequency)
	if price <= 0 || math.IsInf(price, 0) {
		return 0
	}

	f := float64(frequency)
	base := 1 + y/f

	var sum float64
	for _, cf := range sched {
		pv := cf.Amount / math.Pow(base, f*cf.Time)
		sum += pv * (cf.Time*cf.Time + cf.Time/f)
	}
	return sum / (price * base * base)
}

// DV01 is the price change across a symmetric 1bp yield move
func DV01(y float64, sched Schedule, frequency int) float64 {
	return Price(y-dv01HalfBump, sched, frequency) - Price(y+dv01HalfBump, sched, frequency)
}

// AccruedInterest on the annual coupon amount, ACT/360 from the last coupon date.
// Days are counted between calendar dates, so clock changes inside the period do not matter.
func AccruedInterest(principal, coupon float64, lastCoupon, settle time.Time) float64 {
	days := calendarDays(lastCoupon, settle)
	return principal * coupon * float64(days) / accrualDayBasis
}

// calendarDays is the number of calendar dates from a to b, each taken in its own location
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// RiskMetrics is the full sensitivity set implied by a market price
type RiskMetrics struct {
	YTM              float64 `json:"ytm"`
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
	DV01             float64 `json:"dv01"`
	Converged        bool    `json:"converged"`
	Iterations       int     `json:"iterations"`
}

// PriceToRiskMetrics solves the yield implied by price and derives every sensitivity at it
func PriceToRiskMetrics(price float64, t Terms) RiskMetrics {
	return metricsFromSchedule(price, GenerateCashFlows(t), t.Frequency)
}

func metricsFromSchedule(price float64, sched Schedule, frequency int) RiskMetrics {
	res := SolveYTM(price, sched, frequency, DefaultGuess)
	mac := MacaulayDuration(res.Yield, sched, frequency)

	return RiskMetrics{
		YTM:              res.Yield,
		MacaulayDuration: mac,
		ModifiedDuration: ModifiedDuration(res.Yield, mac, frequency),
		Convexity:        Convexity(res.Yield, sched, frequency),
		DV01:             DV01(res.Yield, sched, frequency),
		Converged:        res.Converged,
		Iterations:       res.Iterations,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
