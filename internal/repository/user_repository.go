package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wakeup-bot/internal/model"
)

// UserRepository handles reads and writes of the points ledger.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a new ledger entry with zero points and no award date.
func (r *UserRepository) Create(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	user := model.User{
		TelegramID: telegramID,
		Username:   username,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// RefreshUsername updates the stored display name only.
func (r *UserRepository) RefreshUsername(ctx context.Context, user *model.User, username string) error {
	if user.Username == username {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(user).Update("username", username).Error; err != nil {
		return fmt.Errorf("refresh username: %w", err)
	}
	return nil
}

// Award increments points and stamps the award date in a single conditional
// update keyed by telegram id. The WHERE clause makes the daily invariant
// hold even when two messages from the same user race: only one of them can
// see last_wake_date before day. The second return value reports whether a
// row actually changed; false means the point for day was already claimed.
func (r *UserRepository) Award(ctx context.Context, telegramID int64, username string, day time.Time) (*model.User, bool, error) {
	day = midnight(day)

	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("telegram_id = ? AND (last_wake_date IS NULL OR last_wake_date < ?)", telegramID, day).
		Updates(map[string]interface{}{
			"username":       username,
			"points":         gorm.Expr("points + 1"),
			"last_wake_date": day,
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("award point: %w", res.Error)
	}

	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, fmt.Errorf("reload user: %w", err)
	}
	return user, res.RowsAffected > 0, nil
}

// ListAll returns every ledger entry in registration order (ascending
// internal id). Who-pays and forfeit depend on this ordering.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Ping verifies the database connection is alive.
func (r *UserRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

// midnight truncates t to the start of its calendar day, keeping the zone.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
