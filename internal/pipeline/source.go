package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alevsk/sass-inject/internal/config"
	"github.com/alevsk/sass-inject/internal/injector"
)

// Source modes, shared with the configuration
const (
	ModeBuffer = config.ModeBuffer
	ModeStream = config.ModeStream
)

// Error types for pipeline sources
var (
	ErrInvalidSource = errors.New("invalid source")
	ErrInvalidMode   = config.ErrInvalidMode
)

// SourceOptions controls which files a source emits and how
type SourceOptions struct {
	// Extensions lists the file extensions to pick up, e.g. ".scss"
	Extensions []string
	// FollowSymlinks determines if symlinks should be followed during directory traversal
	FollowSymlinks bool
	// Mode selects buffer or stream contents
	Mode string
	// Exclude lists directories that are never entered
	Exclude []string
}

// DefaultSourceOptions returns the default source options
func DefaultSourceOptions() *SourceOptions {
	return &SourceOptions{
		Extensions: []string{".scss", ".sass"},
		Mode:       ModeBuffer,
	}
}

// DirSource walks a directory and emits one record per sub-directory and
// per matching file. Directories carry no contents.
type DirSource struct {
	root string
	opts *SourceOptions
}

// NewDirSource creates a DirSource rooted at root
func NewDirSource(root string, opts *SourceOptions) (*DirSource, error) {
	if root == "" {
		return nil, ErrInvalidSource
	}
	if opts == nil {
		opts = DefaultSourceOptions()
	}
	if err := config.ValidateMode(opts.Mode); err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidSource, root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", root, err)
	}
	return &DirSource{root: abs, opts: opts}, nil
}

// Root returns the absolute source directory
func (s *DirSource) Root() string {
	return s.root
}

// Emit walks the source and sends records to files in walk order. It stops
// with ctx.Err() when ctx is cancelled.
func (s *DirSource) Emit(ctx context.Context, files chan<- *injector.File) error {
	// Resolved directories currently walked through a symlink
	active := make(map[string]bool)

	baseWalkFunc := s.buildWalkFunc(ctx, s.root, files)

	var walkWithSymlinks func(string, fs.DirEntry, error) error
	walkWithSymlinks = func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Handle symlinks if enabled
		if s.opts.FollowSymlinks && d.Type()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("failed to evaluate symlink %s: %w", path, err)
			}
			targetInfo, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("failed to stat symlink target %s: %w", target, err)
			}

			// Directory symlinks are walked under their link path
			if targetInfo.IsDir() {
				parent, err := filepath.EvalSymlinks(filepath.Dir(path))
				if err != nil {
					return fmt.Errorf("failed to evaluate directory %s: %w", filepath.Dir(path), err)
				}
				// A link to an ancestor, or to a directory already being walked, is a cycle
				if active[target] || isWithin(parent, target) {
					return nil
				}
				active[target] = true
				defer delete(active, target)

				return filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
					rel, relErr := filepath.Rel(target, p)
					if relErr != nil {
						return relErr
					}
					return walkWithSymlinks(filepath.Join(path, rel), d, err)
				})
			}

			return s.emitFile(ctx, path, targetInfo, files)
		}

		return baseWalkFunc(path, d, err)
	}

	if err := filepath.WalkDir(s.root, walkWithSymlinks); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	return nil
}

// buildWalkFunc creates a WalkDirFunc that emits directories and matching files
func (s *DirSource) buildWalkFunc(ctx context.Context, root string, files chan<- *injector.File) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if s.excluded(path) {
				return filepath.SkipDir
			}
			if path == root {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return s.emitFile(ctx, path, info, files)
	}
}

func (s *DirSource) emitFile(ctx context.Context, path string, info fs.FileInfo, files chan<- *injector.File) error {
	file := &injector.File{
		Path:    path,
		Base:    s.root,
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() || !s.matches(path) {
			return nil
		}
		contents, err := s.open(path)
		if err != nil {
			return err
		}
		file.Contents = contents
	}

	select {
	case files <- file:
		return nil
	case <-ctx.Done():
		if stream, ok := file.Contents.(*injector.Stream); ok {
			stream.Close()
		}
		return ctx.Err()
	}
}

func (s *DirSource) open(path string) (injector.Contents, error) {
	if s.opts.Mode == ModeStream {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return injector.NewStream(f), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return injector.Buffer(data), nil
}

func (s *DirSource) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.opts.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// isWithin reports whether path is dir or lies below it
func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *DirSource) excluded(path string) bool {
	for _, dir := range s.opts.Exclude {
		if abs, err := filepath.Abs(dir); err == nil && abs == path {
			return true
		}
	}
	return false
}
