// Package pipeline runs SASS sources through the injector: a directory
// source feeds records to the injector stage, and a sink writes the results.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alevsk/sass-inject/internal/injector"
	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Settings holds everything a run needs
type Settings struct {
	Source   string
	Options  *SourceOptions
	Injector *injector.Injector
	Sink     Sink
	// Output names the sink destination in reports
	Output string
}

// Entry describes one record that went through a run
type Entry struct {
	Path     string        `json:"path" yaml:"path"`
	Kind     injector.Kind `json:"kind" yaml:"kind"`
	Injected bool          `json:"injected" yaml:"injected"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
}

// Report summarizes a run
type Report struct {
	RunID        string        `json:"runId" yaml:"runId"`
	Source       string        `json:"source" yaml:"source"`
	Output       string        `json:"output" yaml:"output"`
	Mode         string        `json:"mode" yaml:"mode"`
	Declarations string        `json:"declarations" yaml:"declarations"`
	Started      time.Time     `json:"started" yaml:"started"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Entries      []Entry       `json:"entries" yaml:"entries"`
}

// Injected returns the number of records that received the declarations
func (r *Report) Injected() int {
	n := 0
	for _, e := range r.Entries {
		if e.Injected {
			n++
		}
	}
	return n
}

// Run walks the source, injects every record and writes it to the sink.
// Source, stage and sink run concurrently joined by unbuffered channels,
// so records are processed one at a time in walk order. The first error
// cancels the run.
func Run(ctx context.Context, set Settings) (*Report, error) {
	if set.Injector == nil || set.Sink == nil {
		return nil, fmt.Errorf("pipeline: injector and sink are required")
	}
	src, err := NewDirSource(set.Source, set.Options)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:        uuid.NewString(),
		Source:       src.Root(),
		Output:       set.Output,
		Mode:         src.opts.Mode,
		Declarations: set.Injector.Declarations(),
		Started:      time.Now(),
	}
	logger.Debug().Str("run", report.RunID).Str("source", report.Source).Str("mode", report.Mode).Msg("pipeline started")

	files := make(chan *injector.File)
	processed := make(chan *injector.File)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(files)
		return src.Emit(gctx, files)
	})
	g.Go(func() error {
		return set.Injector.Run(gctx, files, processed)
	})
	g.Go(func() error {
		for file := range processed {
			n, err := set.Sink.Write(gctx, file)
			if err != nil {
				return fmt.Errorf("error writing %s: %w", file.Path, err)
			}
			entry := Entry{
				Path:     relPath(file),
				Kind:     file.Kind(),
				Injected: !file.IsNull() && report.Declarations != "",
				Bytes:    n,
			}
			report.Entries = append(report.Entries, entry)
			logger.Debug().Str("run", report.RunID).Str("path", entry.Path).
				Str("kind", string(entry.Kind)).Bool("injected", entry.Injected).Msg("file processed")
		}
		return nil
	})

	err = g.Wait()
	report.Duration = time.Since(report.Started)
	if err != nil {
		return report, err
	}

	logger.Info().Str("run", report.RunID).Int("files", len(report.Entries)).
		Int("injected", report.Injected()).Dur("duration", report.Duration).Msg("pipeline finished")
	return report, nil
}

func relPath(file *injector.File) string {
	rel, err := filepath.Rel(file.Base, file.Path)
	if err != nil {
		return file.Path
	}
	return filepath.ToSlash(rel)
}
