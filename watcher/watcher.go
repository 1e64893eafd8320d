// Package watcher re-runs the pipeline when the source changes or on a schedule.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"

	"house-flipping/utils"
)

// DefaultDebounce is the quiet period after the last write before a refresh.
const DefaultDebounce = 2 * time.Second

// RefreshFunc performs one refresh. Failures are handled by the callee.
type RefreshFunc func(ctx context.Context)

// FileWatcher triggers a refresh when the watched file is written or created.
// Bursts of events within the debounce period cause a single refresh.
type FileWatcher struct {
	logger   *utils.Logger
	path     string
	debounce time.Duration
	refresh  RefreshFunc
}

// NewFileWatcher watches path. A non-positive debounce means DefaultDebounce.
func NewFileWatcher(logger *utils.Logger, path string, debounce time.Duration, refresh RefreshFunc) *FileWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{logger: logger, path: path, debounce: debounce, refresh: refresh}
}

// Run watches the directory of the file until ctx is done. Watching the
// directory keeps working when editors replace the file instead of writing it.
func (fw *FileWatcher) Run(ctx context.Context) error {
	target, err := filepath.Abs(fw.path)
	if err != nil {
		return fmt.Errorf("watcher: resolve %q: %w", fw.path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watcher: watch %q: %w", filepath.Dir(target), err)
	}
	fw.logger.Info("[watcher] Watching %s", target)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fw.logger.Debug("[watcher] %s", event)
			if timer == nil {
				timer = time.AfterFunc(fw.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(fw.debounce)
			}

		case <-fire:
			fw.logger.Info("[watcher] %s changed, refreshing", target)
			fw.refresh(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("[watcher] %v", err)
		}
	}
}

// Scheduler triggers a refresh on a cron schedule such as "@every 1h".
type Scheduler struct {
	logger *utils.Logger
	cron   *cron.Cron
}

// NewScheduler registers refresh under the cron expression spec. The schedule
// starts with Start.
func NewScheduler(ctx context.Context, logger *utils.Logger, spec string, refresh RefreshFunc) (*Scheduler, error) {
	c := cron.New()
	err := c.AddFunc(spec, func() {
		logger.Info("[scheduler] Scheduled refresh (%s)", spec)
		refresh(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{logger: logger, cron: c}, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule. A refresh already running is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
