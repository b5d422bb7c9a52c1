package ledger

import (
	"errors"
	"time"

	"minitrack/unit"

	"github.com/google/uuid"
)

var (
	// ErrEntryNotFound is returned when no log entry exists for the given id.
	ErrEntryNotFound = errors.New("ledger: log entry not found")
	// ErrImmutableEntry signals an edit or delete aimed at an automatic entry.
	ErrImmutableEntry = errors.New("ledger: automatic log entries cannot be modified")
	// ErrZeroDate signals a manual entry without a usable date.
	ErrZeroDate = errors.New("ledger: manual entry date required")
)

// Ledger applies status changes to units and keeps the automatic trail
// consistent. All operations take a unit snapshot by value and return the
// full updated unit; the caller persists the result. A failed operation
// returns the input unchanged.
type Ledger struct {
	now   func() time.Time
	idGen func() string
}

func New() *Ledger {
	return &Ledger{
		now:   time.Now,
		idGen: func() string { return uuid.NewString() },
	}
}

// WithClock overrides the event clock. Used by tests and backfills.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// WithIDGen overrides event id generation.
func (l *Ledger) WithIDGen(idGen func() string) *Ledger {
	l.idGen = idGen
	return l
}

// InitialEvent builds the automatic entry recorded when a unit is first
// tracked. It is the only event with an absent from-status.
func (l *Ledger) InitialEvent(status unit.PaintingStatus) (unit.StatusEvent, error) {
	if !status.Valid() {
		return unit.StatusEvent{}, unit.ErrInvalidStatus
	}
	now := l.now()
	return unit.StatusEvent{
		ID:        l.idGen(),
		ToStatus:  status,
		Date:      now,
		IsManual:  false,
		CreatedAt: now,
	}, nil
}

// SetStatus moves the unit to next and appends an automatic event with
// the previous status as from-status. Setting the current status again is
// allowed and still appends an event: it is a user-visible touch. Any
// status may follow any other; only token membership is checked.
func (l *Ledger) SetStatus(u unit.Unit, next unit.PaintingStatus) (unit.Unit, error) {
	if !next.Valid() {
		return u, unit.ErrInvalidStatus
	}

	now := l.now()
	prev := u.Status
	ev := unit.StatusEvent{
		ID:         l.idGen(),
		FromStatus: &prev,
		ToStatus:   next,
		Date:       now,
		IsManual:   false,
		CreatedAt:  now,
	}

	u.StatusHistory = appendEvent(u.StatusHistory, ev)
	u.Status = next
	u.UpdatedAt = now
	return u, nil
}

// ManualEntryParams describes a user-authored log entry.
type ManualEntryParams struct {
	FromStatus *unit.PaintingStatus
	ToStatus   unit.PaintingStatus
	// Date is caller-supplied and accepted as-is; backdated and future
	// entries are both legal.
	Date  time.Time
	Notes *string
}

// AddManualEntry records a user-authored event. The unit's current status
// is not touched.
func (l *Ledger) AddManualEntry(u unit.Unit, params ManualEntryParams) (unit.Unit, error) {
	if !params.ToStatus.Valid() {
		return u, unit.ErrInvalidStatus
	}
	if params.FromStatus != nil && !params.FromStatus.Valid() {
		return u, unit.ErrInvalidStatus
	}
	if params.Date.IsZero() {
		return u, ErrZeroDate
	}
	if err := unit.ValidateNotes(params.Notes); err != nil {
		return u, err
	}

	now := l.now()
	ev := unit.StatusEvent{
		ID:         l.idGen(),
		FromStatus: params.FromStatus,
		ToStatus:   params.ToStatus,
		Date:       params.Date,
		Notes:      params.Notes,
		IsManual:   true,
		CreatedAt:  now,
	}

	u.StatusHistory = appendEvent(u.StatusHistory, ev)
	u.UpdatedAt = now
	return u, nil
}

// ManualEntryUpdate carries the only mutable fields of a manual entry.
// Transition fields are immutable after creation; correcting a
// mis-recorded transition means delete and re-add.
type ManualEntryUpdate struct {
	Date  *time.Time
	Notes *string
}

// EditManualEntry updates the date and/or notes of a manual entry.
func (l *Ledger) EditManualEntry(u unit.Unit, eventID string, update ManualEntryUpdate) (unit.Unit, error) {
	idx, err := findEntry(u.StatusHistory, eventID)
	if err != nil {
		return u, err
	}
	if update.Date != nil && update.Date.IsZero() {
		return u, ErrZeroDate
	}
	if err := unit.ValidateNotes(update.Notes); err != nil {
		return u, err
	}

	history := make([]unit.StatusEvent, len(u.StatusHistory))
	copy(history, u.StatusHistory)
	if update.Date != nil {
		history[idx].Date = *update.Date
	}
	if update.Notes != nil {
		history[idx].Notes = update.Notes
	}

	u.StatusHistory = history
	u.UpdatedAt = l.now()
	return u, nil
}

// DeleteManualEntry removes a manual entry from the history. The unit's
// current status is never recomputed from the remaining log.
func (l *Ledger) DeleteManualEntry(u unit.Unit, eventID string) (unit.Unit, error) {
	idx, err := findEntry(u.StatusHistory, eventID)
	if err != nil {
		return u, err
	}

	history := make([]unit.StatusEvent, 0, len(u.StatusHistory)-1)
	history = append(history, u.StatusHistory[:idx]...)
	history = append(history, u.StatusHistory[idx+1:]...)

	u.StatusHistory = history
	u.UpdatedAt = l.now()
	return u, nil
}

// findEntry locates a manual entry by id, enforcing the immutability of
// automatic entries.
func findEntry(history []unit.StatusEvent, eventID string) (int, error) {
	for i, ev := range history {
		if ev.ID != eventID {
			continue
		}
		if !ev.IsManual {
			return 0, ErrImmutableEntry
		}
		return i, nil
	}
	return 0, ErrEntryNotFound
}

// appendEvent copies the history before appending so earlier snapshots of
// the unit stay consistent for concurrent readers.
func appendEvent(history []unit.StatusEvent, ev unit.StatusEvent) []unit.StatusEvent {
	out := make([]unit.StatusEvent, len(history), len(history)+1)
	copy(out, history)
	return append(out, ev)
}
