// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schedule

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"
	"gopkg.in/yaml.v2"
)

// reloadSettle is how long the source waits after a file event before
// re-reading the configuration, so a writer can finish its write.
const reloadSettle = 100 * time.Millisecond

// Logger represents the methods the source uses to log.
type Logger interface {
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
}

// Snapshot is a scoped, read-only view of the schedule. It must be
// released before the holder sleeps; a held snapshot blocks
// configuration reloads.
type Snapshot struct {
	schedule *Schedule
	release  func()
}

// NewSnapshot wraps sched for handing to a snapshot consumer. The
// release func may be nil; when present it runs exactly once, however
// many times Release is called.
func NewSnapshot(sched *Schedule, release func()) *Snapshot {
	return &Snapshot{schedule: sched, release: release}
}

// Schedule returns the snapshot's schedule.
func (s *Snapshot) Schedule() *Schedule {
	return s.schedule
}

// Release releases the snapshot. It is safe to call more than once.
func (s *Snapshot) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// document is the on-disk configuration shape.
type document struct {
	Schedule     map[string]QueryConfig `yaml:"schedule"`
	SplayPercent *int                   `yaml:"schedule_splay_percent,omitempty"`
}

// FileSourceConfig holds the dependencies of a FileSource.
type FileSourceConfig struct {
	// Path names the yaml configuration file.
	Path string

	// SplayPercent jitters query intervals; the file may override it.
	SplayPercent int

	Clock  clock.Clock
	Logger Logger
}

// Validate returns an error if the config cannot drive a FileSource.
func (config FileSourceConfig) Validate() error {
	if config.Path == "" {
		return errors.NotValidf("empty Path")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// FileSource supplies schedule snapshots from a yaml file, reloading
// it when the file changes. It runs as a worker; a reload that fails
// validation keeps the previous schedule in place.
type FileSource struct {
	catacomb catacomb.Catacomb
	config   FileSourceConfig
	perf     *Performance

	mu       sync.RWMutex
	schedule *Schedule
}

// NewFileSource loads the file at config.Path and starts watching it.
// A file that fails to load at startup is a hard error; later reload
// failures only log.
func NewFileSource(config FileSourceConfig) (*FileSource, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	s := &FileSource{
		config: config,
		perf:   NewPerformance(),
	}
	sched, err := s.load()
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.schedule = sched
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &s.catacomb,
		Work: s.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return s, nil
}

// Kill is part of the worker.Worker interface.
func (s *FileSource) Kill() {
	s.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (s *FileSource) Wait() error {
	return s.catacomb.Wait()
}

// Acquire returns a read-only snapshot of the current schedule. The
// caller must Release it before sleeping.
func (s *FileSource) Acquire() *Snapshot {
	s.mu.RLock()
	return &Snapshot{schedule: s.schedule, release: s.mu.RUnlock}
}

// Performance returns the recorder fed by monitored query runs.
func (s *FileSource) Performance() *Performance {
	return s.perf
}

func (s *FileSource) loop() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Trace(err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors and config
	// management tools typically replace the file wholesale.
	if err := watcher.Add(filepath.Dir(s.config.Path)); err != nil {
		return errors.Annotatef(err, "watching %q", s.config.Path)
	}

	for {
		select {
		case <-s.catacomb.Dying():
			return s.catacomb.ErrDying()
		case event := <-watcher.Events:
			if !s.relevant(event) {
				continue
			}
			select {
			case <-s.catacomb.Dying():
				return s.catacomb.ErrDying()
			case <-s.config.Clock.After(reloadSettle):
			}
			s.reload()
		case err := <-watcher.Errors:
			s.config.Logger.Warningf("configuration watcher: %v", err)
		}
	}
}

func (s *FileSource) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(s.config.Path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (s *FileSource) reload() {
	sched, err := s.load()
	if err != nil {
		s.config.Logger.Warningf("keeping previous schedule: %v", err)
		return
	}
	s.mu.Lock()
	s.schedule = sched
	s.mu.Unlock()
	s.config.Logger.Infof("reloaded schedule from %q (%d queries)", s.config.Path, sched.Len())
}

func (s *FileSource) load() (*Schedule, error) {
	data, err := os.ReadFile(s.config.Path)
	if err != nil {
		return nil, errors.Annotate(err, "reading configuration")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "parsing configuration")
	}
	splay := s.config.SplayPercent
	if doc.SplayPercent != nil {
		splay = *doc.SplayPercent
	}
	sched, err := NewSchedule(doc.Schedule, splay)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return sched, nil
}
