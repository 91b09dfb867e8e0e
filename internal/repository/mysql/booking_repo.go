package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/booking"
)

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepository 创建订座仓储
func NewBookingRepository(db *gorm.DB) booking.Repository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]*booking.Booking, error) {
	var list []*booking.Booking
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("starts_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *bookingRepo) ListAll(ctx context.Context) ([]*booking.Booking, error) {
	var list []*booking.Booking
	if err := r.db.WithContext(ctx).
		Order("starts_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *bookingRepo) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&booking.Booking{}).
		Where("status = ? AND created_at < ?", booking.StatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":     booking.StatusExpired,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
