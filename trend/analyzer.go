package trend

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"minitrack/unit"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRange signals to-date earlier than from-date.
	ErrInvalidRange = errors.New("trend: to date is before from date")
	// ErrInvalidGrouping signals an unrecognized time grain.
	ErrInvalidGrouping = errors.New("trend: unrecognized grouping")
)

// GroupBy selects the calendar grain used for bucketing.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
	GroupByYear  GroupBy = "year"
)

func (g GroupBy) valid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return true
	default:
		return false
	}
}

// Params bounds an analysis run. From and To are inclusive.
type Params struct {
	From    time.Time
	To      time.Time
	GroupBy GroupBy
}

// CountPoint is one bucket of an event-count series.
type CountPoint struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// SpendPoint is one bucket of the spending series.
type SpendPoint struct {
	Bucket string          `json:"bucket"`
	Cost   decimal.Decimal `json:"cost"`
}

// TrendAnalysis is the time-bucketed view over the collection's status
// events. Series are sparse: only buckets containing at least one
// qualifying event appear, sorted ascending by bucket.
type TrendAnalysis struct {
	GroupBy           GroupBy      `json:"group_by"`
	PurchasesOverTime []CountPoint `json:"purchases_over_time"`
	SpendingOverTime  []SpendPoint `json:"spending_over_time"`
	// StatusTrends holds one independent series per status token, keyed
	// by the event's to-status.
	StatusTrends   map[unit.PaintingStatus][]CountPoint `json:"status_trends"`
	TotalPurchased int                                  `json:"total_purchased"`
	TotalSpent     decimal.Decimal                      `json:"total_spent"`
	// Monthly averages divide the range totals by the number of whole
	// months spanned, floored at 1 for sub-month ranges.
	AverageMonthlyPurchases float64         `json:"average_monthly_purchases"`
	AverageMonthlySpending  decimal.Decimal `json:"average_monthly_spending"`
	// MostActiveMonth is the bucket key, at the requested grain, with the
	// highest purchase count; earliest bucket wins ties. Empty when the
	// range holds no purchases.
	MostActiveMonth string `json:"most_active_month"`
}

// Analyze buckets every status event across the collection that falls
// inside [From, To]. Events whose to-status is purchased count as
// acquisitions for purchase and spending trends. An empty result is not
// an error: series come back empty and totals zeroed.
func Analyze(units []unit.Unit, params Params) (TrendAnalysis, error) {
	if params.To.Before(params.From) {
		return TrendAnalysis{}, ErrInvalidRange
	}
	if !params.GroupBy.valid() {
		return TrendAnalysis{}, fmt.Errorf("%w: %q", ErrInvalidGrouping, params.GroupBy)
	}

	purchases := map[string]int{}
	spending := map[string]decimal.Decimal{}
	statusCounts := map[unit.PaintingStatus]map[string]int{}
	for _, s := range unit.AllStatuses() {
		statusCounts[s] = map[string]int{}
	}

	out := TrendAnalysis{GroupBy: params.GroupBy, TotalSpent: decimal.Zero}

	for _, u := range units {
		for _, ev := range u.StatusHistory {
			if ev.Date.Before(params.From) || ev.Date.After(params.To) {
				continue
			}
			key := bucketKey(ev.Date, params.GroupBy)
			if buckets, ok := statusCounts[ev.ToStatus]; ok {
				buckets[key]++
			}

			if ev.ToStatus != unit.StatusPurchased {
				continue
			}
			purchases[key]++
			out.TotalPurchased++
			if u.Cost != nil {
				spending[key] = spending[key].Add(*u.Cost)
				out.TotalSpent = out.TotalSpent.Add(*u.Cost)
			}
		}
	}

	out.PurchasesOverTime = countSeries(purchases)
	out.SpendingOverTime = spendSeries(spending)
	out.StatusTrends = make(map[unit.PaintingStatus][]CountPoint, len(statusCounts))
	for s, buckets := range statusCounts {
		out.StatusTrends[s] = countSeries(buckets)
	}

	months := wholeMonths(params.From, params.To)
	out.AverageMonthlyPurchases = math.Round(float64(out.TotalPurchased)/float64(months)*100) / 100
	out.AverageMonthlySpending = out.TotalSpent.DivRound(decimal.NewFromInt(int64(months)), 2)
	out.MostActiveMonth = mostActive(out.PurchasesOverTime)

	return out, nil
}

// bucketKey truncates a timestamp to the grain using calendar semantics.
// Keys sort chronologically as plain strings.
func bucketKey(t time.Time, g GroupBy) string {
	switch g {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	default: // GroupByYear
		return t.Format("2006")
	}
}

// wholeMonths counts full calendar months contained in [from, to], never
// less than one so averages stay divisible.
func wholeMonths(from, to time.Time) int {
	months := 0
	for !from.AddDate(0, months+1, 0).After(to) {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}

func countSeries(buckets map[string]int) []CountPoint {
	out := make([]CountPoint, 0, len(buckets))
	for key, count := range buckets {
		out = append(out, CountPoint{Bucket: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

func spendSeries(buckets map[string]decimal.Decimal) []SpendPoint {
	out := make([]SpendPoint, 0, len(buckets))
	for key, cost := range buckets {
		out = append(out, SpendPoint{Bucket: key, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

// mostActive picks the bucket with the highest count; the series is
// bucket-sorted, so a strict greater-than keeps the earliest on ties.
func mostActive(series []CountPoint) string {
	best := ""
	bestCount := 0
	for _, p := range series {
		if p.Count > bestCount {
			best = p.Bucket
			bestCount = p.Count
		}
	}
	return best
}
