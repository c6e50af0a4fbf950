// Package forecast predicts next-month spending per category from a
// participant's expense history. Computation is pure over an in-memory
// snapshot; nothing here performs I/O or persists results.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/expense"
)

// Trend classifies the direction of a monthly spending series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// relativeSlopeThreshold is the normalized monthly growth rate above which
// a series counts as moving rather than stable.
const relativeSlopeThreshold = 0.05

// MonthAmount is one point of a monthly series.
type MonthAmount struct {
	Month  string  `json:"month"` // "2006-01"
	Amount float64 `json:"amount"`
}

// CategoryForecast is the prediction for one spending category.
type CategoryForecast struct {
	Category            category.Category `json:"category"`
	CurrentPeriodSpent  float64           `json:"current_period_spent"`
	PredictedNextPeriod float64           `json:"predicted_next_period"`
	HistoricalAverage   float64           `json:"historical_average"`
	Trend               Trend             `json:"trend"`
	Confidence          int               `json:"confidence"`
	MonthlyHistory      []MonthAmount     `json:"monthly_history"`
	ReceiptCount        int               `json:"receipt_count"`
}

// Summary aggregates the forecast across all categories. OverallTrend is
// computed from the total-per-month series, not by combining per-category
// trends.
type Summary struct {
	TotalCurrentPeriod       float64 `json:"total_current_period"`
	TotalPredictedNextPeriod float64 `json:"total_predicted_next_period"`
	OverallTrend             Trend   `json:"overall_trend"`
}

// Report is the full forecast output, categories ranked by predicted
// amount descending.
type Report struct {
	Categories []CategoryForecast `json:"categories"`
	Summary    Summary            `json:"summary"`
}

// ComputeTrend fits an ordinary least-squares line over the series indexed
// 0..n-1 and classifies the slope relative to the series mean. Series with
// fewer than two points, or with a zero mean, are stable.
func ComputeTrend(series []float64) Trend {
	n := len(series)
	if n < 2 {
		return TrendStable
	}

	mean := seriesMean(series)
	if mean == 0 {
		return TrendStable
	}

	// OLS slope against x = 0..n-1.
	xMean := float64(n-1) / 2

	var num, den float64

	for i, y := range series {
		dx := float64(i) - xMean
		num += dx * (y - mean)
		den += dx * dx
	}

	relative := (num / den) / mean

	switch {
	case relative > relativeSlopeThreshold:
		return TrendIncreasing
	case relative < -relativeSlopeThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// PredictNext estimates the next month's amount. It smooths the series
// with a linearly weighted moving average (most recent month weighted
// highest), then applies a trend multiplier: the mean of month-over-month
// ratios when the series is moving, 1.0 when stable. Smoothing first damps
// single-month spikes; the multiplier keeps a sustained direction visible.
func PredictNext(series []float64) float64 {
	switch len(series) {
	case 0:
		return 0
	case 1:
		return series[0]
	}

	var weighted, weightSum float64

	for i, y := range series {
		w := float64(i + 1)
		weighted += w * y
		weightSum += w
	}

	smoothed := weighted / weightSum

	return round2(smoothed * trendMultiplier(series))
}

// trendMultiplier averages the month-over-month growth ratios, skipping
// ratios whose denominator month is zero. When no ratio can be computed it
// falls back to a fixed 5% adjustment in the trend's direction.
func trendMultiplier(series []float64) float64 {
	trend := ComputeTrend(series)
	if trend == TrendStable {
		return 1.0
	}

	var sum float64

	count := 0

	for i := 1; i < len(series); i++ {
		if series[i-1] == 0 {
			continue
		}

		sum += series[i] / series[i-1]
		count++
	}

	if count == 0 {
		if trend == TrendIncreasing {
			return 1.05
		}

		return 0.95
	}

	return sum / float64(count)
}

// ComputeConfidence scores how consistent a series is, from 0 to 100.
// The base score is 100 minus the coefficient of variation (as a percent),
// plus a data-volume bonus of 3 points per month capped at 20. A series
// with fewer than two points scores a fixed 30; a zero-mean series carries
// no signal and scores 0.
func ComputeConfidence(series []float64) int {
	if len(series) < 2 {
		return 30
	}

	mean := seriesMean(series)
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, y := range series {
		variance += (y - mean) * (y - mean)
	}

	variance /= float64(len(series))
	cv := math.Sqrt(variance) / mean * 100

	base := clamp(100-cv, 0, 100)
	bonus := math.Min(20, 3*float64(len(series)))

	return int(math.Round(clamp(base+bonus, 0, 100)))
}

// BuildReport aggregates expenses into monthly category series and
// produces the ranked forecast. Months inside the observed range with no
// activity for a category are real zero points, never gaps; categories with
// no activity at all are left out entirely.
func BuildReport(expenses []*expense.Expense) *Report {
	if len(expenses) == 0 {
		return &Report{Summary: Summary{OverallTrend: TrendStable}}
	}

	months := observedMonths(expenses)

	type bucket struct {
		byMonth map[string]float64
		count   int
	}

	buckets := make(map[category.Category]*bucket)

	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = category.Classify(e.Merchant)
		}

		b, ok := buckets[cat]
		if !ok {
			b = &bucket{byMonth: make(map[string]float64)}
			buckets[cat] = b
		}

		b.byMonth[e.Month()] += dollars(e.Amount)
		b.count++
	}

	totals := make([]float64, len(months))

	var categories []CategoryForecast

	for cat, b := range buckets {
		series := make([]float64, len(months))
		history := make([]MonthAmount, len(months))

		allZero := true

		for i, m := range months {
			amount := round2(b.byMonth[m])
			series[i] = amount
			history[i] = MonthAmount{Month: m, Amount: amount}
			totals[i] += amount

			if amount != 0 {
				allZero = false
			}
		}

		if allZero {
			continue
		}

		categories = append(categories, CategoryForecast{
			Category:            cat,
			CurrentPeriodSpent:  series[len(series)-1],
			PredictedNextPeriod: PredictNext(series),
			HistoricalAverage:   round2(seriesMean(series)),
			Trend:               ComputeTrend(series),
			Confidence:          ComputeConfidence(series),
			MonthlyHistory:      history,
			ReceiptCount:        b.count,
		})
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].PredictedNextPeriod != categories[j].PredictedNextPeriod {
			return categories[i].PredictedNextPeriod > categories[j].PredictedNextPeriod
		}

		return categories[i].Category < categories[j].Category
	})

	summary := Summary{OverallTrend: ComputeTrend(totals)}
	for _, c := range categories {
		summary.TotalPredictedNextPeriod += c.PredictedNextPeriod
		summary.TotalCurrentPeriod += c.CurrentPeriodSpent
	}

	summary.TotalCurrentPeriod = round2(summary.TotalCurrentPeriod)
	summary.TotalPredictedNextPeriod = round2(summary.TotalPredictedNextPeriod)

	return &Report{Categories: categories, Summary: summary}
}

// observedMonths returns every month key between the earliest and latest
// expense dates, inclusive and contiguous.
func observedMonths(expenses []*expense.Expense) []string {
	minDate := expenses[0].Date
	maxDate := expenses[0].Date

	for _, e := range expenses[1:] {
		if e.Date.Before(minDate) {
			minDate = e.Date
		}

		if e.Date.After(maxDate) {
			maxDate = e.Date
		}
	}

	start := time.Date(minDate.Year(), minDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(maxDate.Year(), maxDate.Month(), 1, 0, 0, 0, 0, time.UTC)

	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}

	return months
}

func seriesMean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	var sum float64
	for _, y := range series {
		sum += y
	}

	return sum / float64(len(series))
}

func dollars(cents int64) float64 {
	return float64(cents) / 100
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}
