package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sana-Rashid-135/coach/internal/messaging"
	"github.com/Sana-Rashid-135/coach/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormStore implements Store on a GORM Postgres connection.
type GormStore struct {
	db *gorm.DB
	// rows is the row-level access UpsertDailyLog composes; tests
	// substitute a map-backed fake to exercise the merge flow without a
	// database.
	rows dailyLogRows
	// dayLocks serializes read-merge-write upserts per (user, date) key.
	// The unique index on daily_logs(user_id, date) backs this up across
	// processes; the mutex closes the in-process lost-update window.
	dayLocks *keyedMutex
}

// New creates a GormStore.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db, rows: gormDailyLogRows{db: db}, dayLocks: newKeyedMutex()}
}

// dailyLogRows abstracts single-row daily log access. get returns
// ErrNotFound for a missing row; create surfaces gorm.ErrDuplicatedKey when
// the unique index rejects the insert.
type dailyLogRows interface {
	get(ctx context.Context, userID uint, date string) (*models.DailyLog, error)
	create(ctx context.Context, log *models.DailyLog) error
	update(ctx context.Context, log *models.DailyLog, updates map[string]interface{}) error
}

type gormDailyLogRows struct {
	db *gorm.DB
}

func (r gormDailyLogRows) get(ctx context.Context, userID uint, date string) (*models.DailyLog, error) {
	var log models.DailyLog
	err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query daily log: %w", err)
	}
	return &log, nil
}

func (r gormDailyLogRows) create(ctx context.Context, log *models.DailyLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r gormDailyLogRows) update(ctx context.Context, log *models.DailyLog, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(log).Updates(updates).Error
}

func (s *GormStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	normalized := messaging.NormalizePhone(phone)

	var user models.User
	err := s.db.WithContext(ctx).Where("phone = ?", normalized).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetOrCreateUser(ctx context.Context, phone, name string) (*models.User, error) {
	normalized := messaging.NormalizePhone(phone)

	user, err := s.GetUserByPhone(ctx, normalized)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := models.User{Phone: normalized, Name: name, Timezone: "UTC"}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the create race; the winner's row is authoritative.
			return s.GetUserByPhone(ctx, normalized)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}

func (s *GormStore) LogMessage(ctx context.Context, userID uint, direction, body, providerSID string) (*models.Message, error) {
	message := models.Message{
		UserID:      userID,
		Direction:   direction,
		Body:        body,
		ProviderSID: providerSID,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to log message: %w", err)
	}
	return &message, nil
}

func (s *GormStore) GetDailyLog(ctx context.Context, userID uint, date string) (*models.DailyLog, error) {
	return s.rows.get(ctx, userID, date)
}

func (s *GormStore) UpsertDailyLog(ctx context.Context, userID uint, date string, patch DailyLogPatch) (*models.DailyLog, error) {
	key := fmt.Sprintf("%d:%s", userID, date)
	s.dayLocks.Lock(key)
	defer s.dayLocks.Unlock(key)

	existing, err := s.rows.get(ctx, userID, date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		created := models.DailyLog{UserID: userID, Date: date}
		applyPatch(&created, patch)
		createErr := s.rows.create(ctx, &created)
		if createErr == nil {
			return &created, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create daily log: %w", createErr)
		}
		// Another writer created the row between our read and insert.
		// Retry once with a fresh read, then merge into that row.
		existing, err = s.rows.get(ctx, userID, date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Morning != nil {
		updates["am_json"] = datatypes.JSON(patch.Morning)
	}
	if patch.Evening != nil {
		updates["pm_json"] = datatypes.JSON(patch.Evening)
	}
	if patch.PlanText != nil {
		updates["plan_text"] = *patch.PlanText
	}

	if err := s.rows.update(ctx, existing, updates); err != nil {
		return nil, fmt.Errorf("failed to update daily log: %w", err)
	}

	return s.rows.get(ctx, userID, date)
}

func (s *GormStore) SetLastCheckinAt(ctx context.Context, userID uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("last_checkin_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last check-in time: %w", err)
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func applyPatch(log *models.DailyLog, patch DailyLogPatch) {
	if patch.Morning != nil {
		log.Morning = datatypes.JSON(patch.Morning)
	}
	if patch.Evening != nil {
		log.Evening = datatypes.JSON(patch.Evening)
	}
	if patch.PlanText != nil {
		log.PlanText = *patch.PlanText
	}
}
