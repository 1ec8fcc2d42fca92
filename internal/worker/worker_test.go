package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Sana-Rashid-135/coach/internal/models"
	"github.com/Sana-Rashid-135/coach/internal/store"
)

// fakeUserLister implements store.Store; only ListUsers matters to the sweep.
type fakeUserLister struct {
	users []models.User
	err   error
}

func (f *fakeUserLister) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

func (f *fakeUserLister) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserLister) GetOrCreateUser(ctx context.Context, phone, name string) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserLister) LogMessage(ctx context.Context, userID uint, direction, body, providerSID string) (*models.Message, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserLister) GetDailyLog(ctx context.Context, userID uint, date string) (*models.DailyLog, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserLister) UpsertDailyLog(ctx context.Context, userID uint, date string, patch store.DailyLogPatch) (*models.DailyLog, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserLister) SetLastCheckinAt(ctx context.Context, userID uint, at time.Time) error {
	return errors.New("not implemented")
}

type fakeSentGuard struct {
	first bool
	err   error
	calls []string
}

func (f *fakeSentGuard) MarkSent(ctx context.Context, userID uint, date string) (bool, error) {
	f.calls = append(f.calls, date)
	return f.first, f.err
}

type fakeReminderGateway struct {
	sent []string
	err  error
}

func (f *fakeReminderGateway) Send(ctx context.Context, to, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return "SMfake", nil
}

func testUser(id uint, phone, timezone, preferred string, lastCheckin *time.Time) models.User {
	u := models.User{
		Phone:                phone,
		Timezone:             timezone,
		PreferredCheckinTime: preferred,
		LastCheckinAt:        lastCheckin,
	}
	u.ID = id
	return u
}

func newTestSweeper(st store.Store, guard SentGuard, gateway *fakeReminderGateway, now time.Time) *sweeper {
	return &sweeper{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:   st,
		guard:   guard,
		gateway: gateway,
		now:     func() time.Time { return now },
	}
}

func TestSweepSendsAtPreferredMinuteInUserTimezone(t *testing.T) {
	// 10:30 UTC is 06:30 in New York (EDT).
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	lister := &fakeUserLister{users: []models.User{
		testUser(1, "+15550100", "UTC", "10:30", nil),
		testUser(2, "+15550101", "America/New_York", "06:30", nil),
		testUser(3, "+15550102", "UTC", "07:00", nil),
	}}
	guard := &fakeSentGuard{first: true}
	gateway := &fakeReminderGateway{}

	sw := newTestSweeper(lister, guard, gateway, now)
	if err := sw.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(gateway.sent) != 2 {
		t.Fatalf("sent to %d users, want 2: %v", len(gateway.sent), gateway.sent)
	}
	if gateway.sent[0] != "+15550100" || gateway.sent[1] != "+15550101" {
		t.Errorf("sent = %v, want [+15550100 +15550101]", gateway.sent)
	}
	for _, date := range guard.calls {
		if date != "2026-09-01" {
			t.Errorf("guard date = %q, want 2026-09-01", date)
		}
	}
}

func TestSweepSkipsUserWhoCheckedInToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 30, 0, 0, time.UTC)
	earlier := time.Date(2026, 9, 1, 5, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 8, 31, 6, 45, 0, 0, time.UTC)
	lister := &fakeUserLister{users: []models.User{
		testUser(1, "+15550100", "UTC", "06:30", &earlier),
		testUser(2, "+15550101", "UTC", "06:30", &yesterday),
	}}
	guard := &fakeSentGuard{first: true}
	gateway := &fakeReminderGateway{}

	sw := newTestSweeper(lister, guard, gateway, now)
	if err := sw.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(gateway.sent) != 1 || gateway.sent[0] != "+15550101" {
		t.Errorf("sent = %v, want only the user who last checked in yesterday", gateway.sent)
	}
}

func TestSweepGuardSuppressesDuplicateSend(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 30, 0, 0, time.UTC)
	lister := &fakeUserLister{users: []models.User{
		testUser(1, "+15550100", "UTC", "06:30", nil),
	}}
	guard := &fakeSentGuard{first: false}
	gateway := &fakeReminderGateway{}

	sw := newTestSweeper(lister, guard, gateway, now)
	if err := sw.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(guard.calls) != 1 {
		t.Fatalf("guard called %d times, want 1", len(guard.calls))
	}
	if len(gateway.sent) != 0 {
		t.Errorf("sent = %v, want none when the guard reports already sent", gateway.sent)
	}
}

func TestSweepContinuesPastGuardAndSendFailures(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 30, 0, 0, time.UTC)
	lister := &fakeUserLister{users: []models.User{
		testUser(1, "+15550100", "UTC", "06:30", nil),
	}}

	t.Run("guard error skips the user", func(t *testing.T) {
		guard := &fakeSentGuard{err: errors.New("redis down")}
		gateway := &fakeReminderGateway{}
		sw := newTestSweeper(lister, guard, gateway, now)
		if err := sw.run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(gateway.sent) != 0 {
			t.Errorf("sent = %v, want none on guard failure", gateway.sent)
		}
	})

	t.Run("send error does not fail the sweep", func(t *testing.T) {
		guard := &fakeSentGuard{first: true}
		gateway := &fakeReminderGateway{err: errors.New("twilio 500")}
		sw := newTestSweeper(lister, guard, gateway, now)
		if err := sw.run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
	})
}

func TestSweepPropagatesListError(t *testing.T) {
	lister := &fakeUserLister{err: errors.New("db down")}
	sw := newTestSweeper(lister, &fakeSentGuard{first: true}, &fakeReminderGateway{}, time.Now())

	if err := sw.run(context.Background()); err == nil {
		t.Fatal("run returned nil, want error so the task is retried")
	}
}
