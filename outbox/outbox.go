// Package outbox is a file-backed queue for payment-form submissions that
// could not be written to the database. Entries are JSON lines appended to a
// single file; a background replayer drains them once the database is back.
// Replay is idempotent because payment_records.ticket_id is unique.
package outbox

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trucoapp/tournament-manager/models"
)

// Queue persists submissions across process restarts.
type Queue interface {
	// Enqueue appends the record to the file and syncs it to disk.
	Enqueue(record *models.PaymentRecord) error
	// Drain calls submit for every queued entry, keeping the entries submit
	// failed on. Returns how many entries were removed from the queue.
	Drain(submit func(record *models.PaymentRecord) error) (int, error)
	// Len reports how many entries are currently queued.
	Len() (int, error)
}

type fileQueue struct {
	mu   sync.Mutex
	path string
}

func NewFileQueue(path string) (Queue, error) {
	if path == "" {
		return nil, errors.New("outbox path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create outbox directory: %w", err)
		}
	}
	return &fileQueue{path: path}, nil
}

func (q *fileQueue) Enqueue(record *models.PaymentRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode outbox entry: %w", err)
	}

	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open outbox file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append outbox entry: %w", err)
	}
	return f.Sync()
}

func (q *fileQueue) Drain(submit func(record *models.PaymentRecord) error) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.readAll()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	remaining := entries[:0]
	drained := 0
	for i := range entries {
		if submitErr := submit(&entries[i]); submitErr != nil {
			remaining = append(remaining, entries[i])
			continue
		}
		drained++
	}

	if err := q.rewrite(remaining); err != nil {
		return drained, err
	}
	return drained, nil
}

func (q *fileQueue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.readAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (q *fileQueue) readAll() ([]models.PaymentRecord, error) {
	f, err := os.Open(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open outbox file: %w", err)
	}
	defer f.Close()

	var entries []models.PaymentRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec models.PaymentRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// A corrupt line is skipped rather than blocking the whole queue.
			continue
		}
		entries = append(entries, rec)
	}
	return entries, scanner.Err()
}

// rewrite replaces the file atomically so a crash mid-drain never loses
// entries that were not yet submitted.
func (q *fileQueue) rewrite(entries []models.PaymentRecord) error {
	if len(entries) == 0 {
		if err := os.Remove(q.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove drained outbox file: %w", err)
		}
		return nil
	}

	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create outbox temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	for i := range entries {
		line, marshalErr := json.Marshal(&entries[i])
		if marshalErr != nil {
			f.Close()
			return fmt.Errorf("failed to encode outbox entry: %w", marshalErr)
		}
		if _, writeErr := w.Write(append(line, '\n')); writeErr != nil {
			f.Close()
			return fmt.Errorf("failed to write outbox entry: %w", writeErr)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
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
