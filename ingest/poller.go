package ingest

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/camden-git/photosyncbackend/repository"
	"github.com/camden-git/photosyncbackend/vcs"
)

// ChangeSource abstracts the repository client for the polling loop
type ChangeSource interface {
	Sync() error
	Changes(sinceRev string) ([]vcs.FileChange, string, error)
}

// FileProcessor abstracts the pipeline for the polling loop
type FileProcessor interface {
	Process(change vcs.FileChange) error
}

// Poller drives the ingestion cycle at a fixed cadence: sync the clone,
// detect changes since the cursor, dispatch each file in commit order, then
// advance the cursor to the new head. cycles never overlap; a cycle that runs
// long simply delays the next tick
type Poller struct {
	source   ChangeSource
	pipeline FileProcessor
	cursors  repository.CursorRepositoryInterface
	interval time.Duration

	scheduler *gocron.Scheduler
}

func NewPoller(source ChangeSource, pipeline FileProcessor, cursors repository.CursorRepositoryInterface, interval time.Duration) *Poller {
	return &Poller{
		source:   source,
		pipeline: pipeline,
		cursors:  cursors,
		interval: interval,
	}
}

// Start begins ticking. the first cycle fires after one interval
func (p *Poller) Start() error {
	s := gocron.NewScheduler(time.UTC)
	// one cycle at a time; a tick arriving mid-cycle waits instead of stacking
	s.SetMaxConcurrentJobs(1, gocron.WaitMode)

	if _, err := s.Every(p.interval).Do(p.RunCycle); err != nil {
		return err
	}
	s.StartAsync()
	p.scheduler = s

	log.Printf("poller: started, polling every %s", p.interval)
	return nil
}

// Stop halts the tick. an in-flight cycle finishes its dispatch
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// RunCycle performs one full polling cycle. every failure path here leaves
// the cursor untouched so the next tick retries from the same revision; only
// a fully dispatched cycle advances it
func (p *Poller) RunCycle() {
	if err := p.source.Sync(); err != nil {
		log.Printf("poller: transient sync failure, skipping cycle: %v", err)
		return
	}

	since, err := p.cursors.Get()
	if err != nil {
		log.Printf("poller: ERROR loading cursor, skipping cycle: %v", err)
		return
	}

	changes, head, err := p.source.Changes(since)
	if err != nil {
		log.Printf("poller: ERROR detecting changes since %q, skipping cycle: %v", since, err)
		return
	}

	if head == since {
		return
	}

	processed, failed := 0, 0
	for _, change := range changes {
		// per-file failures don't stop the cycle; the file stays unindexed
		// until a later upstream change touches its path again
		if err := p.pipeline.Process(change); err != nil {
			failed++
			continue
		}
		processed++
	}

	// cursor advancement is all-or-nothing per cycle: every file has been
	// attempted, successfully or not, before the head is recorded
	if err := p.cursors.Set(head); err != nil {
		log.Printf("poller: ERROR persisting cursor %s: %v", head, err)
		return
	}

	log.Printf("poller: cycle complete at %s: %d file(s) indexed, %d failed", head, processed, failed)
}
