package pow

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/bmcrypto"
)

// maxWorkers caps the per-search worker count regardless of GOMAXPROCS
// (spec.md §4.5: "one worker per CPU core, capped at 255").
const maxWorkers = 255

// processAdmission is the single admission slot shared by every Engine,
// so at most one search runs at a time in the process.
var processAdmission = make(chan struct{}, 1)

// Config configures an Engine. Zero values resolve to defaults in
// NewEngine, mirroring the teacher's *Config pattern.
type Config struct {
	// Workers is the number of goroutines a single search splits across.
	// Default: runtime.NumCPU(), capped at maxWorkers.
	Workers int

	// LoggerFactory builds the leveled logger used for search progress.
	// A nil factory disables logging.
	LoggerFactory logging.LoggerFactory
}

// Engine runs nonce searches one at a time process-wide; concurrent
// callers queue on admission and are served in arrival order.
type Engine struct {
	workers int
	log     logging.LeveledLogger
	admit   chan struct{}
}

// NewEngine constructs an Engine from config, defaulting Workers to
// the host's core count.
func NewEngine(config Config) *Engine {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("pow")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("pow")
	}

	return &Engine{
		workers: workers,
		log:     log,
		admit:   processAdmission,
	}
}

// Search finds an 8-byte nonce such that the first 8 bytes of
// DoubleSHA512(nonce ‖ initialHash), read as unsigned big-endian, are
// at most target. Only one Search runs at a time across all Engines in
// the process; additional calls block until the current search
// finishes or is cancelled. Cancelling ctx stops every worker at its
// next iteration; Search then releases the admission slot once all
// workers have returned.
func (e *Engine) Search(ctx context.Context, initialHash [64]byte, target uint64) (uint64, error) {
	select {
	case e.admit <- struct{}{}:
	case <-ctx.Done():
		return 0, ErrCancelled
	}
	defer func() { <-e.admit }()

	e.log.Debugf("starting proof-of-work search with %d workers, target=%d", e.workers, target)

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once  sync.Once
		found uint64
	)
	winner := make(chan uint64, 1)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			nonce, ok := e.worker(searchCtx, start, uint64(e.workers), initialHash, target)
			if ok {
				once.Do(func() {
					found = nonce
					winner <- nonce
				})
				cancel()
			}
		}(uint64(i))
	}
	wg.Wait()

	select {
	case <-winner:
		e.log.Debugf("proof-of-work search found nonce %d", found)
		return found, nil
	default:
		return 0, ErrCancelled
	}
}

// worker increments nonce by stride starting at start, checking the
// cooperative cancellation signal between iterations as spec.md §4.5
// requires. It returns ok=false if ctx is cancelled before a valid
// nonce is found.
func (e *Engine) worker(ctx context.Context, start, stride uint64, initialHash [64]byte, target uint64) (uint64, bool) {
	nonce := start
	preimage := make([]byte, 8+len(initialHash))
	copy(preimage[8:], initialHash[:])

	for {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}

		binary.BigEndian.PutUint64(preimage[:8], nonce)
		digest := bmcrypto.DoubleSHA512(preimage)
		if binary.BigEndian.Uint64(digest[:8]) <= target {
			return nonce, true
		}

		nonce += stride
	}
}
