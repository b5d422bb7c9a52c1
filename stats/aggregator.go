package stats

import (
	"math"
	"sort"

	"minitrack/unit"

	"github.com/shopspring/decimal"
)

// CategoryCount is one row of a category breakdown.
type CategoryCount struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CollectionStatistics is a point-in-time summary over a unit collection.
type CollectionStatistics struct {
	TotalUnits      int                         `json:"total_units"`
	TotalModels     int                         `json:"total_models"`
	StatusBreakdown map[unit.PaintingStatus]int `json:"status_breakdown"`
	// CompletionPercentage is the arithmetic mean of each unit's status
	// completion weight, 0-100, rounded to two decimals.
	CompletionPercentage float64         `json:"completion_percentage"`
	FactionBreakdown     []CategoryCount `json:"faction_breakdown"`
	GameSystemBreakdown  []CategoryCount `json:"game_system_breakdown"`
	UnitTypeBreakdown    []CategoryCount `json:"unit_type_breakdown"`
	// TotalCost is absent when no unit carries a cost.
	TotalCost *decimal.Decimal `json:"total_cost,omitempty"`
}

// Summarize computes collection-wide statistics. An empty collection
// yields zeroed fields, never an error.
func Summarize(units []unit.Unit) CollectionStatistics {
	out := CollectionStatistics{
		TotalUnits:      len(units),
		StatusBreakdown: make(map[unit.PaintingStatus]int, len(unit.AllStatuses())),
	}
	for _, s := range unit.AllStatuses() {
		out.StatusBreakdown[s] = 0
	}

	var (
		weightSum float64
		totalCost decimal.Decimal
		hasCost   bool
	)
	factions := map[string]int{}
	systems := map[string]int{}
	types := map[string]int{}

	for _, u := range units {
		out.TotalModels += u.Models()
		out.StatusBreakdown[u.Status]++
		weightSum += u.Status.CompletionWeight()
		factions[u.Faction]++
		systems[u.GameSystem]++
		types[u.UnitType]++
		if u.Cost != nil {
			totalCost = totalCost.Add(*u.Cost)
			hasCost = true
		}
	}

	if out.TotalUnits > 0 {
		out.CompletionPercentage = round2(weightSum / float64(out.TotalUnits))
	}
	if hasCost {
		out.TotalCost = &totalCost
	}
	out.FactionBreakdown = breakdown(factions, out.TotalUnits)
	out.GameSystemBreakdown = breakdown(systems, out.TotalUnits)
	out.UnitTypeBreakdown = breakdown(types, out.TotalUnits)
	return out
}

// SummarizeFiltered restricts the collection to units currently in the
// given status before summarizing. The completion percentage of the
// filtered view comes from the fixed single-status lookup, not the
// aggregate mean: with one status selected the mean is trivially that
// status's weight, and the two tables are kept separate on purpose.
func SummarizeFiltered(units []unit.Unit, status unit.PaintingStatus) (CollectionStatistics, error) {
	if !status.Valid() {
		return CollectionStatistics{}, unit.ErrInvalidStatus
	}

	filtered := make([]unit.Unit, 0, len(units))
	for _, u := range units {
		if u.Status == status {
			filtered = append(filtered, u)
		}
	}

	out := Summarize(filtered)
	out.CompletionPercentage = status.FilteredCompletion()
	return out, nil
}

// breakdown converts raw counts into percentage rows sorted by count
// descending, name ascending on ties, so top-N capping is a prefix slice.
func breakdown(counts map[string]int, total int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for name, count := range counts {
		pct := 0.0
		if total > 0 {
			pct = round2(float64(count) / float64(total) * 100)
		}
		out = append(out, CategoryCount{Name: name, Count: count, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
