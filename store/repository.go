package store

import (
	"context"
	"errors"
	"fmt"

	"minitrack/ledger"
	"minitrack/unit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnitNotFound is returned when no unit row exists for the identifier.
	ErrUnitNotFound = errors.New("store: unit not found")
)

// historyFetchConcurrency bounds the per-unit history queries issued by List.
const historyFetchConcurrency = 8

// Repository persists units and their status history in PostgreSQL. The
// ledger and the analytics packages never touch it directly: callers load
// a snapshot, run the in-memory core, and hand the returned unit back to
// Save.
type Repository struct {
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
}

func NewRepository(pool *pgxpool.Pool, led *ledger.Ledger) *Repository {
	if led == nil {
		led = ledger.New()
	}
	return &Repository{pool: pool, ledger: led}
}

// CreateParams enumerates the fields required to start tracking a unit.
type CreateParams struct {
	Name       string
	GameSystem string
	Faction    string
	UnitType   string
	Quantity   int
	Cost       *decimal.Decimal
	Status     unit.PaintingStatus
	Notes      *string
}

const unitColumns = `id, name, game_system, faction, unit_type, quantity, cost, status, notes, created_at, updated_at`

const eventColumns = `id, from_status, to_status, event_date, notes, is_manual, created_at`

// List loads the full collection snapshot with histories. Histories are
// fetched concurrently per unit; event order within a history is
// arbitrary (consumers sort on read).
func (r *Repository) List(ctx context.Context) ([]unit.Unit, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+unitColumns+` FROM units ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list units: %w", err)
	}
	defer rows.Close()

	units := make([]unit.Unit, 0, 16)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate units: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchConcurrency)
	for i := range units {
		g.Go(func() error {
			history, err := r.loadHistory(gctx, units[i].ID)
			if err != nil {
				return err
			}
			units[i].StatusHistory = history
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}

// Get loads one unit with its history.
func (r *Repository) Get(ctx context.Context, id string) (unit.Unit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id)
	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return unit.Unit{}, ErrUnitNotFound
		}
		return unit.Unit{}, fmt.Errorf("store: get unit: %w", err)
	}

	history, err := r.loadHistory(ctx, u.ID)
	if err != nil {
		return unit.Unit{}, err
	}
	u.StatusHistory = history
	return u, nil
}

// Create inserts the unit row together with its initial automatic log
// entry in a single transaction.
func (r *Repository) Create(ctx context.Context, params CreateParams) (unit.Unit, error) {
	if err := unit.ValidateName(params.Name); err != nil {
		return unit.Unit{}, err
	}
	if err := unit.ValidateNotes(params.Notes); err != nil {
		return unit.Unit{}, err
	}
	initial, err := r.ledger.InitialEvent(params.Status)
	if err != nil {
		return unit.Unit{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unit.Unit{}, fmt.Errorf("store: begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	u := unit.Unit{
		ID:         uuid.NewString(),
		Name:       params.Name,
		GameSystem: params.GameSystem,
		Faction:    params.Faction,
		UnitType:   params.UnitType,
		Quantity:   params.Quantity,
		Cost:       params.Cost,
		Status:     params.Status,
		Notes:      params.Notes,
	}
	if u.Quantity < 1 {
		u.Quantity = 1
	}

	const insertSQL = `
        INSERT INTO units (id, name, game_system, faction, unit_type, quantity, cost, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at
    `
	if err := tx.QueryRow(ctx, insertSQL,
		u.ID, u.Name, u.GameSystem, u.Faction, u.UnitType, u.Quantity,
		costValue(u.Cost), string(u.Status), u.Notes,
	).Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return unit.Unit{}, fmt.Errorf("store: insert unit: %w", err)
	}

	if err := insertEvent(ctx, tx, u.ID, initial); err != nil {
		return unit.Unit{}, err
	}
	u.StatusHistory = []unit.StatusEvent{initial}

	if err := tx.Commit(ctx); err != nil {
		return unit.Unit{}, fmt.Errorf("store: commit create: %w", err)
	}
	return u, nil
}

// Save durably stores a unit returned by a ledger operation: the unit row
// is updated and the history rows replaced in one transaction, so readers
// never observe a status inconsistent with its log.
func (r *Repository) Save(ctx context.Context, u unit.Unit) (unit.Unit, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unit.Unit{}, fmt.Errorf("store: begin save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateSQL = `
        UPDATE units
        SET name=$2, game_system=$3, faction=$4, unit_type=$5, quantity=$6,
            cost=$7, status=$8, notes=$9, updated_at=$10
        WHERE id=$1
    `
	tag, err := tx.Exec(ctx, updateSQL,
		u.ID, u.Name, u.GameSystem, u.Faction, u.UnitType, u.Quantity,
		costValue(u.Cost), string(u.Status), u.Notes, u.UpdatedAt,
	)
	if err != nil {
		return unit.Unit{}, fmt.Errorf("store: update unit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return unit.Unit{}, ErrUnitNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM status_log_entries WHERE unit_id = $1`, u.ID); err != nil {
		return unit.Unit{}, fmt.Errorf("store: clear history: %w", err)
	}
	for _, ev := range u.StatusHistory {
		if err := insertEvent(ctx, tx, u.ID, ev); err != nil {
			return unit.Unit{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return unit.Unit{}, fmt.Errorf("store: commit save: %w", err)
	}
	return u, nil
}

// Delete removes the unit; history rows go with it via cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete unit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnitNotFound
	}
	return nil
}

func (r *Repository) loadHistory(ctx context.Context, unitID string) ([]unit.StatusEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM status_log_entries WHERE unit_id = $1`, unitID)
	if err != nil {
		return nil, fmt.Errorf("store: load history: %w", err)
	}
	defer rows.Close()

	history := make([]unit.StatusEvent, 0, 4)
	for rows.Next() {
		var (
			ev   unit.StatusEvent
			from *string
			to   string
		)
		if err := rows.Scan(&ev.ID, &from, &to, &ev.Date, &ev.Notes, &ev.IsManual, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan log entry: %w", err)
		}
		if from != nil {
			fs := unit.PaintingStatus(*from)
			ev.FromStatus = &fs
		}
		ev.ToStatus = unit.PaintingStatus(to)
		history = append(history, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate history: %w", err)
	}
	return history, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, unitID string, ev unit.StatusEvent) error {
	var from *string
	if ev.FromStatus != nil {
		s := string(*ev.FromStatus)
		from = &s
	}
	const insertSQL = `
        INSERT INTO status_log_entries (id, unit_id, from_status, to_status, event_date, notes, is_manual, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `
	if _, err := tx.Exec(ctx, insertSQL,
		ev.ID, unitID, from, string(ev.ToStatus), ev.Date, ev.Notes, ev.IsManual, ev.CreatedAt,
	); err != nil {
		return fmt.Errorf("store: insert log entry: %w", err)
	}
	return nil
}

func scanUnit(row pgx.Row) (unit.Unit, error) {
	var (
		u      unit.Unit
		status string
		cost   decimal.NullDecimal
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.GameSystem, &u.Faction, &u.UnitType, &u.Quantity,
		&cost, &status, &u.Notes, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return unit.Unit{}, err
	}
	u.Status = unit.PaintingStatus(status)
	if cost.Valid {
		u.Cost = &cost.Decimal
	}
	return u, nil
}

func costValue(cost *decimal.Decimal) decimal.NullDecimal {
	if cost == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *cost, Valid: true}
}
