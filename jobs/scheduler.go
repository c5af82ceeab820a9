package jobs

import (
	"log"
	"sync"
	"time"
)

// Job is a unit of periodic work owned by the scheduler.
type Job interface {
	Name() string
	Run(now time.Time) error
}

// Scheduler drives registered jobs on a fixed tick. It is created and
// started by the composition root; nothing else holds scheduler state.
type Scheduler struct {
	CheckInterval time.Duration

	jobs   []Job
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		CheckInterval: interval,
		stop:          make(chan struct{}),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start begins ticking in a background goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()
	log.Printf("[scheduler] started with %d job(s), interval %v", len(s.jobs), s.CheckInterval)
}

// Stop halts the ticker and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[scheduler] stopped")
	}
}

// RunNow runs every job immediately, outside the tick.
func (s *Scheduler) RunNow() {
	s.runJobs(time.Now().UTC())
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.runJobs(time.Now().UTC())
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) runJobs(now time.Time) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if err := job.Run(now); err != nil {
			log.Printf("[scheduler] job %s failed: %v", job.Name(), err)
		}
	}
}
