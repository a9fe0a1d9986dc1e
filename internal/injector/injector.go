// Package injector prepends SASS variable declarations to the contents of
// files flowing through a pipeline.
package injector

import (
	"context"

	"github.com/alevsk/sass-inject/internal/variables"
)

// Options holds configuration for the injector
type Options struct {
	// Files lists path substrings meant to restrict injection. It is
	// accepted for compatibility and currently has no effect: every file
	// with content receives the declarations.
	Files []string
}

// Option configures an Injector
type Option func(*Options)

// WithFiles sets the path filter list. See Options.Files.
func WithFiles(files ...string) Option {
	return func(o *Options) {
		o.Files = append(o.Files, files...)
	}
}

// Injector prepends a fixed declaration block to file contents.
// It holds no mutable state and is safe for concurrent use.
type Injector struct {
	declarations string
	opts         Options
}

// New creates an Injector for already serialized declarations
func New(declarations string, opts ...Option) *Injector {
	inj := &Injector{declarations: declarations}
	for _, opt := range opts {
		opt(&inj.opts)
	}
	return inj
}

// FromVariables serializes vars once and creates an Injector for the result.
func FromVariables(vars *variables.Map, opts ...Option) *Injector {
	return New(variables.Serialize(vars), opts...)
}

// Declarations returns the text prepended to every file
func (i *Injector) Declarations() string {
	return i.declarations
}

// Options returns a copy of the injector options
func (i *Injector) Options() Options {
	return Options{Files: append([]string(nil), i.opts.Files...)}
}

// Process returns file with the declarations prepended to its contents.
// Files are passed through unchanged when there is nothing to inject or
// no content to inject into. Only the Contents field of the returned copy
// differs from file. Process is not idempotent.
func (i *Injector) Process(file *File) *File {
	if file == nil || i.declarations == "" {
		return file
	}

	switch c := file.Contents.(type) {
	case *Stream:
		if c == nil || c.Reader == nil {
			return file
		}
		out := *file
		out.Contents = NewStream(newPrefixReader(i.declarations, c))
		return &out
	case Buffer:
		buf := make(Buffer, len(i.declarations)+len(c))
		n := copy(buf, i.declarations)
		copy(buf[n:], c)
		out := *file
		out.Contents = buf
		return &out
	default:
		// nil and unrecognized contents
		return file
	}
}

// Callback receives the result of a Transform call
type Callback func(file *File, err error)

// Transform is the callback form of Process used by push-style hosts. The
// encoding hint is ignored. done is called exactly once before Transform
// returns, and err is always nil.
func (i *Injector) Transform(file *File, encoding string, done Callback) {
	done(i.Process(file), nil)
}

// Run processes files from in and sends the results to out, one output per
// input, in arrival order. out is closed when in is drained or ctx is done.
func (i *Injector) Run(ctx context.Context, in <-chan *File, out chan<- *File) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case file, ok := <-in:
			if !ok {
				return nil
			}
			processed := i.Process(file)
			select {
			case out <- processed:
			case <-ctx.Done():
				// the record is dropped, release its file handle
				if processed != nil {
					if stream, ok := processed.Contents.(*Stream); ok {
						stream.Close()
					}
				}
				return ctx.Err()
			}
		}
	}
}
