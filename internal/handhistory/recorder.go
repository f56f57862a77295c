package handhistory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Recorder writes hands to disk on its own goroutine so rooms never block
// on the filesystem. Each hand lands in DIR/ROOM/hand-NNNNNN.phh.
type Recorder struct {
	dir    string
	logger *log.Logger

	mu     sync.Mutex
	closed bool
	queue  chan *HandHistory
	wg     sync.WaitGroup
}

// NewRecorder creates dir if needed and starts the writer
func NewRecorder(dir string, queueSize int, logger *log.Logger) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("handhistory: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("handhistory: %w", err)
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		dir:    dir,
		logger: logger.WithPrefix("history"),
		queue:  make(chan *HandHistory, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r, nil
}

// Record queues a hand. Hands are dropped with a warning when the queue is
// full or the recorder is closed.
func (r *Recorder) Record(hand *HandHistory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- hand:
	default:
		r.logger.Warn("Hand history queue full, dropping hand", "hand", hand.HandID)
	}
}

// Path returns where a hand is written
func (r *Recorder) Path(room string, hand int) string {
	return filepath.Join(r.dir, room, fmt.Sprintf("hand-%06d.phh", hand))
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for hand := range r.queue {
		if err := r.write(hand); err != nil {
			r.logger.Error("Failed to write hand history", "hand", hand.HandID, "error", err)
		}
	}
}

func (r *Recorder) write(hand *HandHistory) error {
	data, err := EncodeToBytes(hand)
	if err != nil {
		return err
	}
	path := r.Path(hand.Table, hand.HandNumber)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	r.logger.Debug("Hand history written", "path", path)
	return nil
}

// Close writes whatever is queued and stops the writer
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// into place, so readers see either no file or the whole hand.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
