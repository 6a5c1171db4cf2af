package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper removes staged uploads that outlived their request
type Sweeper interface {
	Dir() string
	Sweep(olderThan time.Duration) (int, error)
}

// StagingSweeper periodically clears abandoned files from the upload
// staging directory
type StagingSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewStagingSweeper creates a new sweeper job
func NewStagingSweeper(sweeper Sweeper, interval, maxAge time.Duration) *StagingSweeper {
	if interval == 0 {
		interval = 10 * time.Minute
	}
	if maxAge == 0 {
		maxAge = time.Hour
	}
	return &StagingSweeper{
		sweeper:  sweeper,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop
func (j *StagingSweeper) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("staging sweeper started",
		slog.String("dir", j.sweeper.Dir()),
		slog.Duration("interval", j.interval),
		slog.Duration("max_age", j.maxAge),
	)
}

// Stop gracefully stops the sweep loop
func (j *StagingSweeper) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("staging sweeper stopped")
}

func (j *StagingSweeper) run() {
	defer j.wg.Done()

	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *StagingSweeper) sweep() {
	if _, err := j.RunOnce(context.Background()); err != nil {
		slog.Warn("staging sweep failed", slog.String("error", err.Error()))
	}
}

// RunOnce performs a single sweep and returns the number of files removed
func (j *StagingSweeper) RunOnce(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed, err := j.sweeper.Sweep(j.maxAge)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("swept staged uploads", slog.Int("removed", removed))
	}
	return removed, nil
}

// IsRunning returns whether the sweeper is running
func (j *StagingSweeper) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
