package main

import (
	"fmt"
	"os"

	"github.com/alevsk/sass-inject/internal/config"
	"github.com/alevsk/sass-inject/internal/injector"
	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/alevsk/sass-inject/internal/variables"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags and the loaded configuration
type rootOptions struct {
	configPath string
	debug      bool
	vars       []string
	varsFile   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: &config.Config{}}

	rootCmd := &cobra.Command{
		Use:   "sass-inject",
		Short: "sass-inject - prepend SASS variables to stylesheets",
		Long: GetBanner() + `
sass-inject serializes a set of variables into SASS variable declarations
and prepends them to every stylesheet of a source tree.`,
		SilenceErrors: true, // We'll handle error printing ourselves
		SilenceUsage:  true, // We'll handle usage printing ourselves
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			// Load configuration from file or environment variable
			opts.cfg, err = config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			// flags override config due to highest precedence
			if opts.debug {
				opts.cfg.Debug = true
			}
			if opts.varsFile != "" {
				opts.cfg.VariablesFile = opts.varsFile
			}

			// Initialize logger
			logger.Console(cmd.ErrOrStderr())
			logger.Init(opts.cfg)

			// Print configuration source
			if opts.configPath != "" || os.Getenv(config.SassInjectConfigPathEnvVar) != "" {
				logger.Debug().Msgf("Using config file: %s", opts.configPath)
			} else {
				logger.Debug().Msg("Using default configuration")
			}

			return nil
		},
	}

	// Add global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default: config.yml in current directory)")
	flags.BoolVar(&opts.debug, "debug", false, "enable verbose logging and additional debug information")
	flags.StringArrayVar(&opts.vars, "var", nil, "variable as name=value, repeatable; overrides configured variables")
	flags.StringVar(&opts.varsFile, "vars-file", "", "YAML or JSON file with variables, merged over the config file variables")

	rootCmd.AddCommand(
		newInjectCmd(opts),
		newRenderCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
		newCompletionCmd(),
	)

	return rootCmd
}

// variables resolves the variables from config, variables file and flags, in
// increasing precedence.
func (o *rootOptions) variables() (*variables.Map, error) {
	vars, err := o.cfg.ResolveVariables()
	if err != nil {
		return nil, err
	}
	fromFlags, err := variables.ParseAssignments(o.vars)
	if err != nil {
		return nil, err
	}
	return variables.Merge(vars, fromFlags), nil
}

// injector builds the injector for the resolved variables
func (o *rootOptions) injector() (*injector.Injector, error) {
	vars, err := o.variables()
	if err != nil {
		return nil, err
	}
	if len(o.cfg.Files) > 0 {
		logger.Warn().Strs("files", o.cfg.Files).Msg("files filter is not supported, declarations are injected into every file")
	}
	if variables.IsEmpty(vars) {
		logger.Warn().Msg("no variables configured, files pass through unchanged")
	}
	return injector.FromVariables(vars, injector.WithFiles(o.cfg.Files...)), nil
}

func main() {
	rootCmd := newRootCmd()
	// Custom error handling to show usage before error
	if err := rootCmd.Execute(); err != nil {
		// Get the most recent command
		cmd := rootCmd
		if c, _, err2 := rootCmd.Find(os.Args[1:]); err2 == nil {
			cmd = c
		}
		// Show usage first
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		// Then show the error
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
