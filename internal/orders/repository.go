package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/kirana/internal/fallback"
	"github.com/example/kirana/internal/models"
)

// PersistedLocation reports which store accepted an order. Callers of the
// HTTP API never observe it; the pipeline uses it for logging and the
// reconciler uses the queue directly.
type PersistedLocation string

const (
	LocationPrimary  PersistedLocation = "primary"
	LocationFallback PersistedLocation = "fallback"
)

var (
	// ErrNotFound is returned when no order exists for an id.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned for a status change that would move
	// an order backward or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// submitAttempts bounds retries of the primary transaction before the order
// is diverted to the fallback queue.
const submitAttempts = 3

// allowedFrom maps a target status to the statuses it may be reached from.
var allowedFrom = map[string][]string{
	models.StatusProcessing: {models.StatusConfirmed},
	models.StatusShipped:    {models.StatusProcessing},
	models.StatusDelivered:  {models.StatusShipped},
	models.StatusCancelled:  {models.StatusConfirmed, models.StatusProcessing, models.StatusShipped},
}

// Repository persists orders to the primary store, diverting to the local
// fallback queue when the primary is unreachable.
type Repository struct {
	db      *gorm.DB
	queue   *fallback.Queue
	nowFunc func() time.Time
}

// NewRepository constructs an orders Repository.
func NewRepository(db *gorm.DB, queue *fallback.Queue) *Repository {
	return &Repository{db: db, queue: queue, nowFunc: time.Now}
}

// Submit records an order and its items exactly once, keyed by order.OrderID.
// The header and items land in one transaction, retried a bounded number of
// times; if the primary store stays unavailable the whole payload is appended
// to the fallback queue instead. Either way the caller gets the accepted
// order back; resubmitting an id that already exists in either store returns
// the existing record untouched.
func (r *Repository) Submit(ctx context.Context, order models.Order, items []models.OrderItem) (PersistedLocation, *models.Order, error) {
	if rec, err := r.queue.Find(order.OrderID); err == nil && rec != nil {
		existing := rec.Order
		existing.Items = rec.Items
		return LocationFallback, &existing, nil
	}

	primaryUp := true
	existing, err := r.Get(ctx, order.OrderID)
	switch {
	case err == nil:
		return LocationPrimary, existing, nil
	case !errors.Is(err, ErrNotFound):
		primaryUp = false
		log.Printf("[Orders] primary lookup for %s failed, treating store as unavailable: %v", order.OrderID, err)
	}

	if primaryUp {
		var lastErr error
		for attempt := 1; attempt <= submitAttempts; attempt++ {
			err := r.insertPrimary(ctx, &order, items)
			if err == nil {
				order.Items = items
				return LocationPrimary, &order, nil
			}
			if isDuplicateKey(err) {
				if existing, gerr := r.Get(ctx, order.OrderID); gerr == nil {
					return LocationPrimary, existing, nil
				}
			}
			lastErr = err
			log.Printf("[Orders] primary submit attempt %d/%d for %s failed: %v",
				attempt, submitAttempts, order.OrderID, err)
		}
		log.Printf("[Orders] primary store exhausted for %s, diverting to fallback: %v", order.OrderID, lastErr)
	}

	rec := fallback.Record{
		OrderID:  order.OrderID,
		Order:    order,
		Items:    items,
		QueuedAt: r.nowFunc(),
	}
	if err := r.queue.Append(rec); err != nil {
		return "", nil, fmt.Errorf("order %s could not be persisted anywhere: %w", order.OrderID, err)
	}

	order.Items = items
	return LocationFallback, &order, nil
}

// insertPrimary writes the order header and all items as one transaction, so
// a header can never be committed without its lines.
func (r *Repository) insertPrimary(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].OrderRef = order.ID
			items[i].OrderID = order.OrderID
		}
		return tx.Create(&items).Error
	})
}

// Get returns the order for an id with its items.
func (r *Repository) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// ListForCustomer returns a customer's orders, newest first.
func (r *Repository) ListForCustomer(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_email = ?", email).
		Order("order_date desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListRecent returns up to limit orders starting at offset, newest first,
// optionally bounded to those placed after since.
func (r *Repository) ListRecent(ctx context.Context, limit, offset int, since *time.Time) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Preload("Items").Model(&models.Order{})
	if since != nil {
		query = query.Where("order_date > ?", *since)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []models.Order
	if err := query.Order("order_date desc").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order forward through its lifecycle. The check and
// the write are one conditional UPDATE, so a concurrent transition cannot
// slip a status backward.
func (r *Repository) UpdateStatus(ctx context.Context, orderID, newStatus string) error {
	preds, ok := allowedFrom[newStatus]
	if !ok {
		return ErrInvalidTransition
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND status IN ?", orderID, preds).
		Update("status", newStatus)
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, orderID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
