package orders

import (
	"context"
	"log"
	"time"

	"github.com/example/kirana/internal/fallback"
)

// Reconciler drains fallback records into the primary store. It runs outside
// the request-serving path; order submission never waits on it.
type Reconciler struct {
	repo     *Repository
	queue    *fallback.Queue
	interval time.Duration
}

// NewReconciler constructs a Reconciler ticking at interval.
func NewReconciler(repo *Repository, queue *fallback.Queue, interval time.Duration) *Reconciler {
	return &Reconciler{repo: repo, queue: queue, interval: interval}
}

// Run drains the queue on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drained, err := r.DrainOnce(ctx)
			if err != nil {
				log.Printf("[Reconciler] drain pass stopped: %v", err)
			}
			if drained > 0 {
				log.Printf("[Reconciler] drained %d fallback order(s) into primary store", drained)
			}
		}
	}
}

// DrainOnce attempts to move every queued record into the primary store.
// A duplicate-key failure means the order already landed primarily (a retry
// that succeeded on both paths) and counts as reconciled. Any other store
// error stops the pass; the primary is assumed to still be down.
func (r *Reconciler) DrainOnce(ctx context.Context) (int, error) {
	records, err := r.queue.All()
	if err != nil {
		return 0, err
	}

	drained := 0
	for _, rec := range records {
		order := rec.Order
		order.Items = nil
		if err := r.repo.insertPrimary(ctx, &order, rec.Items); err != nil && !isDuplicateKey(err) {
			return drained, err
		}
		if err := r.queue.Remove(rec.OrderID); err != nil {
			return drained, err
		}
		drained++
	}
	return drained, nil
}
