package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alevsk/sass-inject/internal/injector"
)

// Sink consumes the records leaving the pipeline
type Sink interface {
	// Write persists file and returns the number of content bytes written.
	// Stream contents are closed by the sink.
	Write(ctx context.Context, file *injector.File) (int64, error)
}

// DirSink mirrors records into a directory, keeping paths relative to
// each record's Base.
type DirSink struct {
	Dir string
}

// NewDirSink creates a DirSink writing below dir
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Write implements Sink
func (s *DirSink) Write(ctx context.Context, file *injector.File) (int64, error) {
	rel, err := filepath.Rel(file.Base, file.Path)
	if err != nil {
		closeContents(file)
		return 0, fmt.Errorf("failed to resolve output path for %s: %w", file.Path, err)
	}
	dest := filepath.Join(s.Dir, rel)

	if file.IsDir() {
		if err := os.MkdirAll(dest, 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
		return 0, nil
	}
	if file.IsNull() {
		return 0, nil
	}

	switch c := file.Contents.(type) {
	case injector.Buffer:
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(dest, c, filePerm(file)); err != nil {
			return 0, fmt.Errorf("failed to write file: %w", err)
		}
		return int64(len(c)), nil
	case *injector.Stream:
		defer c.Close()
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm(file))
		if err != nil {
			return 0, fmt.Errorf("failed to create file: %w", err)
		}
		n, err := io.Copy(out, contextReader{ctx: ctx, r: c})
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return n, fmt.Errorf("failed to write file: %w", err)
		}
		return n, nil
	default:
		return 0, nil
	}
}

// WriterSink concatenates record contents onto a single writer, e.g. stdout.
type WriterSink struct {
	W io.Writer
}

// Write implements Sink
func (s *WriterSink) Write(ctx context.Context, file *injector.File) (int64, error) {
	if file.IsNull() {
		return 0, nil
	}
	switch c := file.Contents.(type) {
	case injector.Buffer:
		n, err := s.W.Write(c)
		return int64(n), err
	case *injector.Stream:
		defer c.Close()
		return io.Copy(s.W, contextReader{ctx: ctx, r: c})
	default:
		return 0, nil
	}
}

func filePerm(file *injector.File) os.FileMode {
	if perm := file.Mode.Perm(); perm != 0 {
		return perm
	}
	return 0644
}

func closeContents(file *injector.File) {
	if stream, ok := file.Contents.(*injector.Stream); ok {
		stream.Close()
	}
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
