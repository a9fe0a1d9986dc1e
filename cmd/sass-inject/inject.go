package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alevsk/sass-inject/internal/config"
	"github.com/alevsk/sass-inject/internal/formatter"
	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/alevsk/sass-inject/internal/pipeline"
	"github.com/spf13/cobra"
)

// stdoutDir selects the stdout sink
const stdoutDir = "-"

type injectOptions struct {
	out            string
	mode           string
	extensions     []string
	files          []string
	followSymlinks bool
	watch          bool
	format         string
	quiet          bool
	noMetadata     bool
}

func newInjectCmd(ro *rootOptions) *cobra.Command {
	opts := &injectOptions{}

	cmd := &cobra.Command{
		Use:   "inject [source-dir]",
		Short: "Prepend variables to every stylesheet of a directory",
		Long: `Walk a source directory and write every stylesheet to the output directory
with the configured SASS variables prepended. Directories are recreated as-is.

Examples:
  # Inject the variables of config.yml into ./styles, writing to ./dist
  sass-inject inject ./styles

  # Inject variables given on the command line and print the result
  sass-inject inject ./styles --var primary=#336699 --var 'font=Helvetica, sans-serif' --out -

  # Stream files instead of loading them in memory and rebuild on change
  sass-inject inject ./styles --mode stream --watch`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Override config values with flags if provided
			cfg := ro.cfg
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = opts.out
			}
			if cmd.Flags().Changed("mode") {
				cfg.Source.Mode = opts.mode
			}
			if cmd.Flags().Changed("ext") {
				cfg.Source.Extensions = opts.extensions
			}
			if cmd.Flags().Changed("files") {
				cfg.Files = opts.files
			}
			if cmd.Flags().Changed("follow-symlinks") {
				cfg.Source.FollowSymlinks = opts.followSymlinks
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.Format = opts.format
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "."
			if len(args) > 0 {
				source = args[0]
			}
			return runInject(cmd, ro, opts, source)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.out, "out", "d", "dist", "output directory, - writes to stdout")
	flags.StringVar(&opts.mode, "mode", config.ModeBuffer, "content mode (buffer, stream)")
	flags.StringSliceVar(&opts.extensions, "ext", []string{".scss", ".sass"}, "file extensions to process")
	flags.StringSliceVar(&opts.files, "files", nil, "path substrings to restrict injection (accepted, currently has no effect)")
	flags.BoolVar(&opts.followSymlinks, "follow-symlinks", false, "follow symbolic links during directory traversal")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "run again whenever the source directory changes")
	flags.StringVarP(&opts.format, "output", "o", "table", "report format (table, json, yaml, markdown)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the run report")
	flags.BoolVar(&opts.noMetadata, "no-metadata", false, "leave run metadata (id, source, mode, duration) out of the report")

	return cmd
}

func runInject(cmd *cobra.Command, ro *rootOptions, opts *injectOptions, source string) error {
	cfg := ro.cfg

	reportType, err := formatter.ParseType(cfg.Output.Format)
	if err != nil {
		return err
	}
	fmtOpts := formatter.DefaultOptions()
	fmtOpts.IncludeMetadata = !opts.noMetadata
	fmtr, err := formatter.NewFormatter(reportType, fmtOpts)
	if err != nil {
		return err
	}

	inj, err := ro.injector()
	if err != nil {
		return fmt.Errorf("error resolving variables: %w", err)
	}

	srcOpts := &pipeline.SourceOptions{
		Extensions:     cfg.Source.Extensions,
		FollowSymlinks: cfg.Source.FollowSymlinks,
		Mode:           cfg.Source.Mode,
	}
	set := pipeline.Settings{
		Source:   source,
		Options:  srcOpts,
		Injector: inj,
		Output:   cfg.Output.Dir,
	}

	reportOut := cmd.OutOrStdout()
	if cfg.Output.Dir == stdoutDir {
		set.Sink = &pipeline.WriterSink{W: cmd.OutOrStdout()}
		// keep stdout for stylesheet content
		reportOut = cmd.ErrOrStderr()
	} else {
		set.Sink = pipeline.NewDirSink(cfg.Output.Dir)
		srcOpts.Exclude = []string{cfg.Output.Dir}
	}

	printReport := func(report *pipeline.Report) error {
		if opts.quiet || report == nil {
			return nil
		}
		formatted, err := fmtr.Format(report)
		if err != nil {
			return err
		}
		_, err = io.WriteString(reportOut, formatted)
		return err
	}

	if !opts.watch {
		report, err := pipeline.Run(contextOrBackground(cmd), set)
		if err != nil {
			return fmt.Errorf("injection failed: %w", err)
		}
		return printReport(report)
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt)
	defer stop()

	return pipeline.Watch(ctx, set, cfg.Watch.Debounce, func(report *pipeline.Report, err error) {
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Err(err).Msg("injection failed")
			}
			return
		}
		if err := printReport(report); err != nil {
			logger.Error().Err(err).Msg("failed to print report")
		}
	})
}

// contextOrBackground guards commands invoked without Execute
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
