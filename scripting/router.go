package scripting

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/camden-git/photosyncbackend/models"
)

// scheduleTag marks every gocron job owned by the router so a reload can tear
// them all down before re-registering
const scheduleTag = "photoscript"

// ScriptLister is the read surface the router rebuilds its snapshot from
type ScriptLister interface {
	ListAll() ([]models.Script, error)
}

// routeSnapshot is the immutable routing table. it is built whole and swapped
// through an atomic.Value so lookups never observe a partially rebuilt map
type routeSnapshot struct {
	byExtension map[string]models.Script
}

// Router owns the extension-to-script routing table and the recurring
// schedules for daily and interval scripts. Reload() rebuilds everything from
// the scripts table; in-flight script executions are unaffected
type Router struct {
	scripts   ScriptLister
	executor  *Executor
	scheduler *gocron.Scheduler
	snapshot  atomic.Value // routeSnapshot

	reloadMu sync.Mutex // serializes rebuilds, not lookups
}

func NewRouter(scripts ScriptLister, executor *Executor) *Router {
	r := &Router{
		scripts:   scripts,
		executor:  executor,
		scheduler: gocron.NewScheduler(time.Local),
	}
	r.snapshot.Store(routeSnapshot{byExtension: map[string]models.Script{}})
	return r
}

// Start performs the initial load and begins firing schedules
func (r *Router) Start() error {
	if err := r.Reload(); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

// Stop halts the schedulers. in-flight executions run to their timeout
func (r *Router) Stop() {
	r.scheduler.Stop()
}

// Reload rebuilds the routing table and schedules from the full set of script
// rows and swaps the new snapshot in atomically. malformed rows are skipped
// with a warning; the rest still load. on a load error the old snapshot and
// schedules stay in place
func (r *Router) Reload() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	scripts, err := r.scripts.ListAll()
	if err != nil {
		return fmt.Errorf("router: failed to load scripts: %w", err)
	}

	byExtension := make(map[string]models.Script)
	for _, script := range scripts {
		if script.FileExtension == nil || *script.FileExtension == "" {
			continue
		}
		ext := normalizeExtension(*script.FileExtension)
		if existing, ok := byExtension[ext]; ok {
			log.Printf("router: Warning - scripts %q and %q both claim extension %s, keeping %q", existing.Name, script.Name, ext, existing.Name)
			continue
		}
		byExtension[ext] = script
	}

	// tear down old schedules before registering the new set. RemoveByTag
	// errors when no jobs carry the tag yet, which is fine on first load
	if err := r.scheduler.RemoveByTag(scheduleTag); err != nil {
		log.Printf("router: no existing schedules to remove: %v", err)
	}

	scheduled := 0
	for _, script := range scripts {
		if r.schedule(script) {
			scheduled++
		}
	}

	r.snapshot.Store(routeSnapshot{byExtension: byExtension})
	log.Printf("router: loaded %d script(s): %d extension route(s), %d schedule(s)", len(scripts), len(byExtension), scheduled)
	return nil
}

// schedule registers one script's recurring trigger, if any. a script with
// both a daily time and an interval runs daily only
func (r *Router) schedule(script models.Script) bool {
	hasDaily := script.RunAtTime != nil && *script.RunAtTime != ""
	hasInterval := script.IntervalMinutes != nil && *script.IntervalMinutes > 0

	if hasDaily && script.IntervalMinutes != nil {
		log.Printf("router: Warning - script %q has both run_at_time and interval_minutes; daily time takes precedence", script.Name)
		hasInterval = false
	}

	switch {
	case hasDaily:
		if _, err := time.Parse("15:04", *script.RunAtTime); err != nil {
			log.Printf("router: Warning - script %q has invalid run_at_time %q, skipping schedule: %v", script.Name, *script.RunAtTime, err)
			return false
		}
		job := script // capture by value; the closure outlives the reload
		if _, err := r.scheduler.Every(1).Day().At(*script.RunAtTime).Tag(scheduleTag).Do(func() { r.fire(job) }); err != nil {
			log.Printf("router: ERROR scheduling daily script %q: %v", script.Name, err)
			return false
		}
		return true

	case hasInterval:
		job := script
		if _, err := r.scheduler.Every(*script.IntervalMinutes).Minutes().Tag(scheduleTag).Do(func() { r.fire(job) }); err != nil {
			log.Printf("router: ERROR scheduling interval script %q: %v", script.Name, err)
			return false
		}
		return true

	case script.IntervalMinutes != nil && *script.IntervalMinutes <= 0:
		log.Printf("router: Warning - script %q has non-positive interval_minutes, skipping schedule", script.Name)
	}
	return false
}

// fire runs a scheduled script. nothing may propagate out of a firing; the
// outcome lands in the execution log either way
func (r *Router) fire(script models.Script) {
	log.Printf("router: firing scheduled script %q", script.Name)
	if err := r.executor.Execute(script, "", nil); err != nil {
		log.Printf("router: scheduled script %q failed: %v", script.Name, err)
	}
}

// SelectForExtension returns the script routed for a file extension, if any.
// lock-free: reads whatever snapshot is current
func (r *Router) SelectForExtension(ext string) (models.Script, bool) {
	snap := r.snapshot.Load().(routeSnapshot)
	script, ok := snap.byExtension[normalizeExtension(ext)]
	return script, ok
}

// ExecuteForPhoto runs the extension-routed script against a photo through
// the shared executor
func (r *Router) ExecuteForPhoto(script models.Script, photoPath string, photoID *uint) error {
	return r.executor.Execute(script, photoPath, photoID)
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
