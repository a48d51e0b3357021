// Package scheduler runs background sweeps on a cron schedule: the API's
// RFQ deadline sweep and the dashboard's query cache pruning.
package scheduler

import (
	"context"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc does one pass and reports how many items it changed
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper runs a sweep on a schedule; overlapping runs are skipped.
type Sweeper struct {
	name    string
	sweep   SweepFunc
	timeout time.Duration
	running int32
	cron    *cron.Cron
}

func NewSweeper(name string, sweep SweepFunc, timeout time.Duration) *Sweeper {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Sweeper{
		name:    name,
		sweep:   sweep,
		timeout: timeout,
		cron: cron.New(
			cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
		),
	}
}

// Start schedules the sweep with a standard 5-field cron spec
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce() }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("%s scheduled: %s", s.name, spec)
	return nil
}

// Stop waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs one sweep. It returns false when a previous run is still going.
func (s *Sweeper) RunOnce() bool {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Printf("Previous %s still running. Skipping this run.", s.name)
		return false
	}
	defer atomic.StoreInt32(&s.running, 0)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.sweep(ctx)
	if err != nil {
		log.Printf("%s failed: %v", s.name, err)
		return true
	}
	if n > 0 {
		log.Printf("%s changed %d item(s)", s.name, n)
	}
	return true
}
