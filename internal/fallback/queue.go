package fallback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/kirana/internal/models"
)

// Record is a full serialized snapshot of an order and its items, keyed by the
// same order_id that would have gone to the primary store so a reconciliation
// pass can deduplicate by id.
type Record struct {
	OrderID  string             `json:"order_id"`
	Order    models.Order       `json:"order"`
	Items    []models.OrderItem `json:"items"`
	QueuedAt time.Time          `json:"queued_at"`
}

// Queue is a local append-only durable list used when the primary store is
// unreachable. Records are JSON lines; appends are fsynced before returning.
type Queue struct {
	path string
	mu   sync.Mutex
}

// NewQueue opens a queue at path. The file is created lazily on first append.
func NewQueue(path string) *Queue {
	return &Queue{path: path}
}

// Append durably adds a record to the end of the queue.
func (q *Queue) Append(rec Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if rec.QueuedAt.IsZero() {
		rec.QueuedAt = time.Now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal fallback record: %w", err)
	}

	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open fallback queue: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append fallback record: %w", err)
	}
	return f.Sync()
}

// Find returns the record for orderID, or nil when absent.
func (q *Queue) Find(orderID string) (*Record, error) {
	records, err := q.All()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].OrderID == orderID {
			return &records[i], nil
		}
	}
	return nil, nil
}

// All returns every queued record in append order.
func (q *Queue) All() ([]Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.readAll()
}

// Remove deletes the record for orderID, used by the reconciler after a
// successful drain into the primary store.
func (q *Queue) Remove(orderID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.readAll()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.OrderID != orderID {
			kept = append(kept, rec)
		}
	}

	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open fallback rewrite: %w", err)
	}
	for _, rec := range kept {
		line, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshal fallback record: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("rewrite fallback record: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}

func (q *Queue) readAll() ([]Record, error) {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open fallback queue: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Printf("[Fallback] skipping malformed record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan fallback queue: %w", err)
	}
	return records, nil
}
