package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/booking"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// bookingRepo 内存订座仓储
type bookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]*booking.Booking
}

// NewBookingRepository 创建内存订座仓储
func NewBookingRepository() booking.Repository {
	return &bookingRepo{bookings: make(map[string]*booking.Booking)}
}

func (r *bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *bookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return repository.ErrNotFound
	}
	b.UpdatedAt = time.Now()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]*booking.Booking, error) {
	return r.list(func(b *booking.Booking) bool { return b.UserID == userID })
}

func (r *bookingRepo) ListAll(ctx context.Context) ([]*booking.Booking, error) {
	return r.list(func(*booking.Booking) bool { return true })
}

func (r *bookingRepo) list(keep func(*booking.Booking) bool) ([]*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *bookingRepo) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.Status == booking.StatusPending && b.CreatedAt.Before(cutoff) {
			b.Status = booking.StatusExpired
			b.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}
