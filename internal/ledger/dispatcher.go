package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// DispatcherConfig tunes the asynchronous writer
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration // per call, debits included
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:     2,
		QueueSize:   1024,
		MaxAttempts: 5,
		Backoff:     500 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

// Dispatcher fronts a Ledger for the rooms. Debits run synchronously since a
// player cannot sit before the buy-in clears. Credits and match rounds are
// queued and retried with exponential backoff under a fixed idempotency key,
// so delivery is at least once and the backend applies them at most once.
type Dispatcher struct {
	backend Ledger
	clock   quartz.Clock
	logger  *log.Logger
	cfg     DispatcherConfig

	jobs    chan *job
	quit    chan struct{}
	workers sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type job struct {
	name    string
	userID  string
	key     string
	attempt int
	run     func(ctx context.Context) error
}

func NewDispatcher(backend Ledger, clock quartz.Clock, logger *log.Logger, cfg DispatcherConfig) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if clock == nil {
		clock = quartz.NewReal()
	}

	d := &Dispatcher{
		backend: backend,
		clock:   clock,
		logger:  logger.WithPrefix("ledger"),
		cfg:     cfg,
		jobs:    make(chan *job, cfg.QueueSize),
		quit:    make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workers.Add(1)
		go d.worker()
	}
	return d
}

// Debit charges a buy-in, waiting for the backend
func (d *Dispatcher) Debit(ctx context.Context, userID string, amount int, tag string) (int, error) {
	if IdempotencyKey(ctx) == "" {
		ctx = WithIdempotencyKey(ctx, uuid.NewString())
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	balance, err := d.backend.Debit(ctx, userID, amount, tag)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrUnavailable, err)
		}
		return balance, err
	}
	d.logger.Debug("Debited wallet", "user", userID, "amount", amount, "tag", tag, "balance", balance)
	return balance, nil
}

// Credit queues a cash-out
func (d *Dispatcher) Credit(userID string, amount int, tag, note string) {
	if amount <= 0 {
		return
	}
	d.enqueue(&job{
		name:   "credit",
		userID: userID,
		key:    uuid.NewString(),
		run: func(ctx context.Context) error {
			balance, err := d.backend.Credit(ctx, userID, amount, tag, note)
			if err == nil {
				d.logger.Debug("Credited wallet", "user", userID, "amount", amount, "tag", tag, "balance", balance)
			}
			return err
		},
	})
}

// RecordMatchRound queues one hand result
func (d *Dispatcher) RecordMatchRound(round MatchRound) {
	d.enqueue(&job{
		name:   "match_round",
		userID: round.UserID,
		key:    uuid.NewString(),
		run: func(ctx context.Context) error {
			return d.backend.RecordMatchRound(ctx, round)
		},
	})
}

func (d *Dispatcher) enqueue(j *job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Error("Dropping wallet write after shutdown", "op", j.name, "user", j.userID)
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.logger.Error("Wallet queue full, dropping write", "op", j.name, "user", j.userID)
	}
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for {
		select {
		case j := <-d.jobs:
			d.process(j)
		case <-d.quit:
			for {
				select {
				case j := <-d.jobs:
					d.process(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) process(j *job) {
	ctx, cancel := context.WithTimeout(WithIdempotencyKey(context.Background(), j.key), d.cfg.Timeout)
	err := j.run(ctx)
	cancel()
	if err == nil {
		return
	}

	j.attempt++
	if j.attempt >= d.cfg.MaxAttempts || errors.Is(err, ErrInvalidAmount) {
		d.logger.Error("Wallet write failed", "op", j.name, "user", j.userID, "attempts", j.attempt, "error", err)
		return
	}

	delay := d.cfg.Backoff << (j.attempt - 1)
	d.logger.Warn("Wallet write failed, retrying", "op", j.name, "user", j.userID, "attempt", j.attempt, "delay", delay, "error", err)
	d.clock.AfterFunc(delay, func() { d.enqueue(j) }, "dispatcher", "retry")
}

// Close stops accepting writes once queued ones have been attempted. Retries
// still waiting on their backoff are dropped and logged.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	d.workers.Wait()
	return d.backend.Close()
}
