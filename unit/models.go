package unit

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxNotesLen bounds free-text notes on units and log entries.
	MaxNotesLen = 1000
	// MaxNameLen bounds unit names.
	MaxNameLen = 200
)

var (
	// ErrInvalidStatus signals a status token outside the PaintingStatus set.
	ErrInvalidStatus = errors.New("unit: unrecognized painting status")
	// ErrNotesTooLong signals notes exceeding MaxNotesLen.
	ErrNotesTooLong = errors.New("unit: notes exceed maximum length")
	// ErrNameRequired signals an empty or oversized unit name.
	ErrNameRequired = errors.New("unit: name must be 1-200 characters")
)

// StatusEvent is one entry in a unit's status history. The history is an
// unordered set of these records; consumers sort by Date on read.
type StatusEvent struct {
	ID string `json:"id"`
	// FromStatus is nil on the initial event written when the unit is
	// first tracked.
	FromStatus *PaintingStatus `json:"from_status,omitempty"`
	ToStatus   PaintingStatus  `json:"to_status"`
	// Date is the user-visible moment of the transition. Manual entries
	// may carry any past or future date.
	Date     time.Time `json:"date"`
	Notes    *string   `json:"notes,omitempty"`
	IsManual bool      `json:"is_manual"`
	// CreatedAt is the record-creation timestamp; immutable.
	CreatedAt time.Time `json:"created_at"`
}

// Unit is a tracked collection item with one current painting status and
// its full status history.
type Unit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GameSystem string `json:"game_system"`
	Faction    string `json:"faction"`
	UnitType   string `json:"unit_type"`
	Quantity   int    `json:"quantity"`
	// Cost is the purchase price, when known.
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Status        PaintingStatus   `json:"status"`
	Notes         *string          `json:"notes,omitempty"`
	StatusHistory []StatusEvent    `json:"status_history"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Models returns how many physical models the unit represents. Quantity
// below one counts as a single model.
func (u Unit) Models() int {
	if u.Quantity < 1 {
		return 1
	}
	return u.Quantity
}

// ValidateNotes checks optional free text against MaxNotesLen.
func ValidateNotes(notes *string) error {
	if notes != nil && len(*notes) > MaxNotesLen {
		return ErrNotesTooLong
	}
	return nil
}

// ValidateName checks a unit name.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLen {
		return ErrNameRequired
	}
	return nil
}
