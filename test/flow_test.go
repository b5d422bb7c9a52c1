package test

import (
	"context"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"minitrack/ledger"
	"minitrack/stats"
	"minitrack/store"
	"minitrack/test/infra"
	"minitrack/trend"
	"minitrack/unit"
)

// TestCollectionFlow drives the full path against a real database: units
// are created and mutated through the ledger, persisted, reloaded as a
// snapshot, and fed to the aggregator and trend analyzer.
func TestCollectionFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	switch {
	case os.Getenv("MINITRACK_TEST_PG_DSN") != "":
		dsn = os.Getenv("MINITRACK_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Skipf("no docker and no local postgres: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// A controllable clock makes the event dates, and therefore the trend
	// buckets, deterministic.
	clock := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	led := ledger.New().WithClock(func() time.Time { return clock })
	repo := store.NewRepository(pool, led)

	costKnight := decimal.NewFromInt(50)
	knight, err := repo.Create(ctx, store.CreateParams{
		Name:       "Imperial Knight",
		GameSystem: "warhammer_40k",
		Faction:    "Imperial Knights",
		UnitType:   "vehicle",
		Quantity:   1,
		Cost:       &costKnight,
		Status:     unit.StatusPurchased,
	})
	if err != nil {
		t.Fatalf("create knight: %v", err)
	}

	clock = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	costBoyz := decimal.NewFromInt(30)
	if _, err := repo.Create(ctx, store.CreateParams{
		Name:       "Ork Boyz",
		GameSystem: "warhammer_40k",
		Faction:    "Orks",
		UnitType:   "infantry",
		Quantity:   20,
		Cost:       &costBoyz,
		Status:     unit.StatusPurchased,
	}); err != nil {
		t.Fatalf("create boyz: %v", err)
	}

	clock = time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	if _, err := repo.Create(ctx, store.CreateParams{
		Name:       "Necron Warriors",
		GameSystem: "warhammer_40k",
		Faction:    "Necrons",
		UnitType:   "infantry",
		Quantity:   20,
		Status:     unit.StatusParadeReady,
	}); err != nil {
		t.Fatalf("create warriors: %v", err)
	}

	// The knight reaches the table in February.
	clock = time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC)
	knight, err = led.SetStatus(knight, unit.StatusGameReady)
	if err != nil {
		t.Fatalf("set knight status: %v", err)
	}
	if _, err := repo.Save(ctx, knight); err != nil {
		t.Fatalf("save knight: %v", err)
	}

	units, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units in snapshot, got %d", len(units))
	}
	for _, u := range units {
		initials := 0
		for _, ev := range u.StatusHistory {
			if ev.FromStatus == nil {
				initials++
			}
		}
		if initials != 1 {
			t.Errorf("unit %s: expected exactly one initial event, got %d", u.Name, initials)
		}
	}

	summary := stats.Summarize(units)
	if summary.TotalUnits != 3 || summary.TotalModels != 41 {
		t.Errorf("totals = %d units / %d models", summary.TotalUnits, summary.TotalModels)
	}
	// (10 + 80 + 100) / 3
	if summary.CompletionPercentage != 63.33 {
		t.Errorf("completion = %v", summary.CompletionPercentage)
	}
	if summary.TotalCost == nil || !summary.TotalCost.Equal(decimal.NewFromInt(80)) {
		t.Errorf("total cost = %v", summary.TotalCost)
	}
	if summary.StatusBreakdown[unit.StatusPurchased] != 1 ||
		summary.StatusBreakdown[unit.StatusGameReady] != 1 ||
		summary.StatusBreakdown[unit.StatusParadeReady] != 1 {
		t.Errorf("status breakdown = %+v", summary.StatusBreakdown)
	}

	analysis, err := trend.Analyze(units, trend.Params{
		From:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 2, 28, 23, 59, 59, 0, time.UTC),
		GroupBy: trend.GroupByMonth,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(analysis.PurchasesOverTime) != 1 || analysis.PurchasesOverTime[0].Bucket != "2024-01" || analysis.PurchasesOverTime[0].Count != 2 {
		t.Errorf("purchases = %+v", analysis.PurchasesOverTime)
	}
	if len(analysis.SpendingOverTime) != 1 || !analysis.SpendingOverTime[0].Cost.Equal(decimal.NewFromInt(80)) {
		t.Errorf("spending = %+v", analysis.SpendingOverTime)
	}
	ready := analysis.StatusTrends[unit.StatusGameReady]
	if len(ready) != 1 || ready[0].Bucket != "2024-02" || ready[0].Count != 1 {
		t.Errorf("game_ready trend = %+v", ready)
	}
	if analysis.TotalPurchased != 2 || !analysis.TotalSpent.Equal(decimal.NewFromInt(80)) {
		t.Errorf("totals = %d / %s", analysis.TotalPurchased, analysis.TotalSpent)
	}
	if analysis.MostActiveMonth != "2024-01" {
		t.Errorf("most active month = %q", analysis.MostActiveMonth)
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
