package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Sana-Rashid-135/coach/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestApplyPatchOnlyTouchesSuppliedFields(t *testing.T) {
	log := models.DailyLog{
		UserID:   1,
		Date:     "2026-09-01",
		Morning:  []byte(`{"sleep":7}`),
		PlanText: "old plan",
	}

	applyPatch(&log, DailyLogPatch{PlanText: strPtr("new plan")})

	if log.PlanText != "new plan" {
		t.Errorf("plan = %q, want overwritten", log.PlanText)
	}
	if string(log.Morning) != `{"sleep":7}` {
		t.Errorf("morning = %s, must not be clobbered", log.Morning)
	}
	if log.Evening != nil {
		t.Errorf("evening = %s, want untouched nil", log.Evening)
	}
}

func TestApplyPatchDisjointWritesCompose(t *testing.T) {
	var log models.DailyLog

	morning, _ := json.Marshal(map[string]any{"sleep": 6.5, "notes": "rough night"})
	applyPatch(&log, DailyLogPatch{Morning: morning})
	applyPatch(&log, DailyLogPatch{PlanText: strPtr("1. Rest")})

	if len(log.Morning) == 0 {
		t.Error("first write lost after second patch")
	}
	if log.PlanText != "1. Rest" {
		t.Errorf("plan = %q", log.PlanText)
	}
}

// fakeDailyLogRows keeps rows in a map. Individual calls are atomic but
// nothing serializes a read-merge-write sequence, so a lost update here
// means the store's own per-key locking failed.
type fakeDailyLogRows struct {
	mu     sync.Mutex
	rows   map[string]models.DailyLog
	nextID uint
	// hideFirstGet makes the first get miss even when the row exists,
	// simulating another process inserting between our read and create.
	hideFirstGet bool
}

func newFakeDailyLogRows() *fakeDailyLogRows {
	return &fakeDailyLogRows{rows: make(map[string]models.DailyLog)}
}

func rowKey(userID uint, date string) string {
	return fmt.Sprintf("%d:%s", userID, date)
}

func (f *fakeDailyLogRows) get(ctx context.Context, userID uint, date string) (*models.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hideFirstGet {
		f.hideFirstGet = false
		return nil, ErrNotFound
	}
	row, ok := f.rows[rowKey(userID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (f *fakeDailyLogRows) create(ctx context.Context, log *models.DailyLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := rowKey(log.UserID, log.Date)
	if _, ok := f.rows[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	log.ID = f.nextID
	f.rows[key] = *log
	return nil
}

func (f *fakeDailyLogRows) update(ctx context.Context, log *models.DailyLog, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := rowKey(log.UserID, log.Date)
	row := f.rows[key]
	if v, ok := updates["am_json"]; ok {
		row.Morning = v.(datatypes.JSON)
	}
	if v, ok := updates["pm_json"]; ok {
		row.Evening = v.(datatypes.JSON)
	}
	if v, ok := updates["plan_text"]; ok {
		row.PlanText = v.(string)
	}
	f.rows[key] = row
	return nil
}

func newTestStore(rows dailyLogRows) *GormStore {
	return &GormStore{rows: rows, dayLocks: newKeyedMutex()}
}

func TestUpsertDailyLogCreatesThenMerges(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(newFakeDailyLogRows())

	morning, _ := json.Marshal(map[string]any{"sleep": 7.0, "mood": 4})
	if _, err := st.UpsertDailyLog(ctx, 1, "2026-09-01", DailyLogPatch{Morning: morning}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	got, err := st.UpsertDailyLog(ctx, 1, "2026-09-01", DailyLogPatch{PlanText: strPtr("1. Rest")})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if string(got.Morning) != string(morning) {
		t.Errorf("morning = %s, must survive the plan write", got.Morning)
	}
	if got.PlanText != "1. Rest" {
		t.Errorf("plan = %q, want %q", got.PlanText, "1. Rest")
	}
}

func TestUpsertDailyLogConcurrentDisjointFields(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(newFakeDailyLogRows())

	morning, _ := json.Marshal(map[string]any{"sleep": 6.5})
	patches := []DailyLogPatch{
		{Morning: morning},
		{PlanText: strPtr("1. Rest")},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(patches))
	for i, patch := range patches {
		wg.Add(1)
		go func(i int, patch DailyLogPatch) {
			defer wg.Done()
			_, errs[i] = st.UpsertDailyLog(ctx, 1, "2026-09-01", patch)
		}(i, patch)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	got, err := st.GetDailyLog(ctx, 1, "2026-09-01")
	if err != nil {
		t.Fatalf("GetDailyLog: %v", err)
	}
	if len(got.Morning) == 0 {
		t.Error("morning lost to the concurrent plan write")
	}
	if got.PlanText != "1. Rest" {
		t.Errorf("plan = %q, lost to the concurrent morning write", got.PlanText)
	}
}

func TestUpsertDailyLogMergesAfterLosingCreateRace(t *testing.T) {
	ctx := context.Background()
	rows := newFakeDailyLogRows()

	morning, _ := json.Marshal(map[string]any{"sleep": 8.0})
	seeded := models.DailyLog{UserID: 1, Date: "2026-09-01", Morning: morning}
	if err := rows.create(ctx, &seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows.hideFirstGet = true

	st := newTestStore(rows)
	got, err := st.UpsertDailyLog(ctx, 1, "2026-09-01", DailyLogPatch{PlanText: strPtr("1. Rest")})
	if err != nil {
		t.Fatalf("UpsertDailyLog: %v", err)
	}
	if string(got.Morning) != string(morning) {
		t.Errorf("morning = %s, want the racing writer's payload kept", got.Morning)
	}
	if got.PlanText != "1. Rest" {
		t.Errorf("plan = %q, want merged after duplicate-key retry", got.PlanText)
	}
}
