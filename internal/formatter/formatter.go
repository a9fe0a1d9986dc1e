// Package formatter renders pipeline run reports
package formatter

import (
	"encoding/json"
	"fmt"

	"github.com/alevsk/sass-inject/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for formatting run reports
type Formatter interface {
	Format(report *pipeline.Report) (string, error)
}

// Type represents the type of formatter
type Type string

const (
	// TypeJSON formats data as JSON
	TypeJSON Type = "json"
	// TypeYAML formats data as YAML
	TypeYAML Type = "yaml"
	// TypeTable formats data as a table
	TypeTable Type = "table"
	// TypeMarkdown formats data as markdown
	TypeMarkdown Type = "markdown"
)

// Options configures formatters
type Options struct {
	// IncludeMetadata adds the run metadata to the output
	IncludeMetadata bool
}

// DefaultOptions returns the default formatter options
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

// JSON implements JSON formatting
type JSON struct {
	opts *Options
}

// YAML implements YAML formatting
type YAML struct {
	opts *Options
}

// Table implements table formatting
type Table struct {
	opts *Options
}

// Markdown implements markdown formatting
type Markdown struct {
	opts *Options
}

// summary is the serialized form of a report
type summary struct {
	RunID        string           `json:"runId,omitempty" yaml:"runId,omitempty"`
	Source       string           `json:"source,omitempty" yaml:"source,omitempty"`
	Output       string           `json:"output,omitempty" yaml:"output,omitempty"`
	Mode         string           `json:"mode,omitempty" yaml:"mode,omitempty"`
	Declarations string           `json:"declarations,omitempty" yaml:"declarations,omitempty"`
	Duration     string           `json:"duration,omitempty" yaml:"duration,omitempty"`
	Injected     int              `json:"injected" yaml:"injected"`
	Files        []pipeline.Entry `json:"files" yaml:"files"`
}

func summarize(report *pipeline.Report, opts *Options) summary {
	s := summary{
		Injected: report.Injected(),
		Files:    report.Entries,
	}
	if s.Files == nil {
		s.Files = []pipeline.Entry{}
	}
	if opts.IncludeMetadata {
		s.RunID = report.RunID
		s.Source = report.Source
		s.Output = report.Output
		s.Mode = report.Mode
		s.Declarations = report.Declarations
		s.Duration = report.Duration.String()
	}
	return s
}

// Format formats the report as JSON
func (j *JSON) Format(report *pipeline.Report) (string, error) {
	bytes, err := json.MarshalIndent(summarize(report, j.opts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("error formatting as JSON: %w", err)
	}
	return string(bytes), nil
}

// Format formats the report as YAML
func (y *YAML) Format(report *pipeline.Report) (string, error) {
	bytes, err := yaml.Marshal(summarize(report, y.opts))
	if err != nil {
		return "", fmt.Errorf("error formatting as YAML: %w", err)
	}
	return string(bytes), nil
}

// Format formats the report as tables using go-pretty/v6/table
func (t *Table) Format(report *pipeline.Report) (string, error) {
	metadata, files := buildTables(report)
	out := files.Render() + "\n"
	if t.opts.IncludeMetadata {
		out = metadata.Render() + "\n\n" + out
	}
	return out, nil
}

// Format formats the report as markdown tables
func (m *Markdown) Format(report *pipeline.Report) (string, error) {
	metadata, files := buildTables(report)
	out := files.RenderMarkdown() + "\n"
	if m.opts.IncludeMetadata {
		out = metadata.RenderMarkdown() + "\n\n" + out
	}
	return out, nil
}

// ParseType converts a string to a Type
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeJSON, TypeYAML, TypeTable, TypeMarkdown:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown formatter type: %s", s)
	}
}

// NewFormatter creates a new formatter of the specified type
func NewFormatter(t Type, opts *Options) (Formatter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch t {
	case TypeJSON:
		return &JSON{opts: opts}, nil
	case TypeYAML:
		return &YAML{opts: opts}, nil
	case TypeTable:
		return &Table{opts: opts}, nil
	case TypeMarkdown:
		return &Markdown{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", t)
	}
}
