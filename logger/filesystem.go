// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package logger

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/lumberjack/v2"

	"github.com/Heyvaert/osquery/core"
)

// Result log file names within the sink directory.
const (
	resultsFileName   = "osqueryd.results.log"
	snapshotsFileName = "osqueryd.snapshots.log"
)

// FilesystemSinkConfig configures a FilesystemSink.
type FilesystemSinkConfig struct {
	// Directory receives the result log files.
	Directory string

	// MaxSizeMB and MaxBackups bound each log file's rotation. Zero
	// values take lumberjack's defaults.
	MaxSizeMB  int
	MaxBackups int
}

// Validate returns an error if the config cannot drive a sink.
func (config FilesystemSinkConfig) Validate() error {
	if config.Directory == "" {
		return errors.NotValidf("empty Directory")
	}
	return nil
}

// FilesystemSink appends result items as JSON lines to rotated log
// files, one file for differential results and one for snapshots.
type FilesystemSink struct {
	mu        sync.Mutex
	results   io.WriteCloser
	snapshots io.WriteCloser
}

// NewFilesystemSink returns a sink writing under config.Directory.
func NewFilesystemSink(config FilesystemSinkConfig) (*FilesystemSink, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	open := func(name string) io.WriteCloser {
		return &lumberjack.Logger{
			Filename:   filepath.Join(config.Directory, name),
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
		}
	}
	return &FilesystemSink{
		results:   open(resultsFileName),
		snapshots: open(snapshotsFileName),
	}, nil
}

// LogDifferential implements ResultSink.
func (s *FilesystemSink) LogDifferential(item core.QueryLogItem) error {
	return s.write(s.results, item)
}

// LogSnapshot implements ResultSink.
func (s *FilesystemSink) LogSnapshot(item core.QueryLogItem) error {
	return s.write(s.snapshots, item)
}

func (s *FilesystemSink) write(w io.Writer, item core.QueryLogItem) error {
	line, err := json.Marshal(item)
	if err != nil {
		return errors.Annotatef(err, "encoding result for query %q", item.Name)
	}
	line = append(line, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := w.Write(line); err != nil {
		return errors.Annotatef(err, "writing result for query %q", item.Name)
	}
	return nil
}

// Close closes both log files.
func (s *FilesystemSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.results.Close()
	if cerr := s.snapshots.Close(); err == nil {
		err = cerr
	}
	return errors.Trace(err)
}
