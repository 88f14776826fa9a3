package cmd

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/harrison/builder/internal/config"
	"github.com/harrison/builder/internal/display"
	"github.com/harrison/builder/internal/logger"
	"github.com/harrison/builder/internal/menu"
	"github.com/harrison/builder/internal/prompt"
	"github.com/harrison/builder/internal/session"
	"github.com/harrison/builder/internal/store"
	"github.com/harrison/builder/internal/terminal"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for builder
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builder",
		Short: "Copy project trees into build destinations",
		Long: `Builder copies a project directory into a destination directory,
optionally skipping chosen top-level entries and clearing the destination
first. Build definitions can be saved by name and re-run from the menu.

Menu keys:
  a       run a build (new or saved)
  r       re-run the latest build
  m       show the menu again
  q       quit (also Ctrl-C)

At any question, Ctrl-D or ":q" cancels the current build.

Saved builds and logs live in $BUILDER_HOME, by default
<user config dir>/personal-cli-builder.`,
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	cmd.Flags().String("config", "", "Path to config file (default: $BUILDER_HOME/config.yaml)")
	cmd.Flags().String("log-level", "", "File log level: trace, debug, info, warn, error")
	cmd.Flags().String("store", "", "Build store backend: yaml or sqlite")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar while copying")

	return cmd
}

// loadConfig resolves the config file and applies flag overrides
func loadConfig(cmd *cobra.Command, home string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetConfigPath(home)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	var logLevel, backend *string
	var noProgress *bool
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	if cmd.Flags().Changed("store") {
		v, _ := cmd.Flags().GetString("store")
		backend = &v
	}
	if cmd.Flags().Changed("no-progress") {
		v, _ := cmd.Flags().GetBool("no-progress")
		noProgress = &v
	}
	cfg.MergeWithFlags(logLevel, backend, noProgress)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runRoot wires the session and starts the menu loop
func runRoot(cmd *cobra.Command, args []string) error {
	home, err := config.GetBuilderHome()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, home)
	if err != nil {
		return err
	}

	// Console stays at warn so log lines do not interleave with prompts
	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), "warn")
	log := logger.NewMultiLogger(consoleLog)

	fileLog, err := logger.NewFileLogger(config.GetLogDir(home, cfg), cfg.LogLevel)
	if err != nil {
		consoleLog.LogWarn(fmt.Sprintf("File logging disabled: %v", err))
	} else {
		defer fileLog.Close()
		log = logger.NewMultiLogger(consoleLog, fileLog)
	}

	st, err := store.Open(cfg.Store, home)
	if err != nil {
		return fmt.Errorf("failed to open build store: %w", err)
	}
	defer st.Close()
	log.LogInfo(fmt.Sprintf("Builder %s started (home %s, %s store at %s)", Version, home, cfg.Store.Backend, st.Path()))

	out := cmd.OutOrStdout()
	console := terminal.NewConsole(cmd.InOrStdin())
	if !console.Interactive() {
		log.LogDebug("Input is not a terminal, reading menu keys line by line")
	}
	prompter := prompt.New(console.Reader(), out)

	sess := session.New(osfs.New("/"), st, prompter, out, log)
	sess.ShowProgress = cfg.ShowProgress

	display.ClearScreen(out)
	err = menu.New(console, sess, out, log).Run(cmd.Context())
	log.LogInfo("Builder exiting")
	return err
}
