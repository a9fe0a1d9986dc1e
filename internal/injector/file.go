package injector

import (
	"io"
	"io/fs"
	"time"
)

// Contents is the payload of a File. A nil Contents means the file has no
// content (a directory entry, for instance). Known representations are
// Buffer and *Stream.
type Contents interface {
	contents()
}

// Buffer holds fully materialized file content
type Buffer []byte

func (Buffer) contents() {}

// Stream holds content that has not been read yet.
type Stream struct {
	io.Reader
}

func (*Stream) contents() {}

// NewStream wraps r as stream contents
func NewStream(r io.Reader) *Stream {
	return &Stream{Reader: r}
}

// Close closes the underlying reader when it is an io.Closer.
func (s *Stream) Close() error {
	if s == nil {
		return nil
	}
	if c, ok := s.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Kind names a content representation
type Kind string

const (
	KindNull   Kind = "null"
	KindBuffer Kind = "buffer"
	KindStream Kind = "stream"
)

// File is a unit flowing through the pipeline
type File struct {
	// Path is the full path of the file
	Path string
	// Base is the directory Path is relative to
	Base    string
	Mode    fs.FileMode
	ModTime time.Time
	// Contents is nil, Buffer or *Stream
	Contents Contents
}

// Kind reports the representation of the file contents. Unrecognized
// representations report KindNull.
func (f *File) Kind() Kind {
	switch c := f.Contents.(type) {
	case Buffer:
		return KindBuffer
	case *Stream:
		if c == nil || c.Reader == nil {
			return KindNull
		}
		return KindStream
	default:
		return KindNull
	}
}

// IsNull reports whether the file carries no usable content
func (f *File) IsNull() bool { return f.Kind() == KindNull }

// IsBuffer reports whether the content is materialized in memory
func (f *File) IsBuffer() bool { return f.Kind() == KindBuffer }

// IsStream reports whether the content is a stream
func (f *File) IsStream() bool { return f.Kind() == KindStream }

// IsDir reports whether the file describes a directory
func (f *File) IsDir() bool { return f.Mode.IsDir() }
