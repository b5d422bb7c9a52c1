package unit

// PaintingStatus is a painting-progress stage. Values are stable wire
// tokens compared by value across API and storage boundaries; they must
// not be renamed or reused.
type PaintingStatus string

const (
	StatusWantToBuy   PaintingStatus = "want_to_buy"
	StatusPurchased   PaintingStatus = "purchased"
	StatusAssembled   PaintingStatus = "assembled"
	StatusPrimed      PaintingStatus = "primed"
	StatusGameReady   PaintingStatus = "game_ready"
	StatusParadeReady PaintingStatus = "parade_ready"
)

// allStatuses fixes the conventional display order. Ordering is a UI
// concern only; it carries no transition-legality meaning.
var allStatuses = []PaintingStatus{
	StatusWantToBuy,
	StatusPurchased,
	StatusAssembled,
	StatusPrimed,
	StatusGameReady,
	StatusParadeReady,
}

// AllStatuses returns every status token in display order.
func AllStatuses() []PaintingStatus {
	out := make([]PaintingStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s PaintingStatus) Valid() bool {
	switch s {
	case StatusWantToBuy, StatusPurchased, StatusAssembled, StatusPrimed, StatusGameReady, StatusParadeReady:
		return true
	default:
		return false
	}
}

var statusLabels = map[PaintingStatus]string{
	StatusWantToBuy:   "Want to Buy",
	StatusPurchased:   "Purchased",
	StatusAssembled:   "Assembled",
	StatusPrimed:      "Primed",
	StatusGameReady:   "Game Ready",
	StatusParadeReady: "Parade Ready",
}

var statusColors = map[PaintingStatus]string{
	StatusWantToBuy:   "#9e9e9e",
	StatusPurchased:   "#2196f3",
	StatusAssembled:   "#ff9800",
	StatusPrimed:      "#9c27b0",
	StatusGameReady:   "#4caf50",
	StatusParadeReady: "#ffd700",
}

// completionWeights maps each status to its contribution to the
// whole-collection completion mean.
var completionWeights = map[PaintingStatus]float64{
	StatusWantToBuy:   0,
	StatusPurchased:   10,
	StatusAssembled:   20,
	StatusPrimed:      40,
	StatusGameReady:   80,
	StatusParadeReady: 100,
}

// filteredCompletion is the canonical percentage shown when the
// collection view is filtered to a single status. It is a separate table
// from completionWeights on purpose: the two percentage paths diverge in
// the source behavior and merging them could change displayed values.
var filteredCompletion = map[PaintingStatus]float64{
	StatusWantToBuy:   0,
	StatusPurchased:   10,
	StatusAssembled:   20,
	StatusPrimed:      40,
	StatusGameReady:   80,
	StatusParadeReady: 100,
}

// Label returns the display name for the status.
func (s PaintingStatus) Label() string { return statusLabels[s] }

// Color returns the display color for the status.
func (s PaintingStatus) Color() string { return statusColors[s] }

// CompletionWeight returns the status contribution used by the
// whole-collection completion mean.
func (s PaintingStatus) CompletionWeight() float64 { return completionWeights[s] }

// FilteredCompletion returns the fixed completion percentage used when a
// summary is restricted to this single status.
func (s PaintingStatus) FilteredCompletion() float64 { return filteredCompletion[s] }
