package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap-gate/internal/config"
	"github.com/kingrea/roadmap-gate/internal/gate"
	"github.com/kingrea/roadmap-gate/internal/logging"
	"github.com/kingrea/roadmap-gate/internal/report"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// errChecksFailed marks a run whose violations were already printed.
var errChecksFailed = errors.New("checks failed")

// app holds the persistent flags and the environment built from them.
type app struct {
	root     string
	config   string
	logLevel string
	noColor  bool

	stdout io.Writer
	stderr io.Writer

	env     *gate.Env
	printer *report.Printer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Release-readiness gate for the compiler roadmap",
		Long: `roadmap checks the roadmap's release invariants and exits non-zero when any
of them is violated:

  - milestone dependencies are known, acyclic and never done ahead of a parent
  - capability support states are consistent and only ever move forward
  - implemented capabilities carry their proof, test and benchmark evidence
  - every mandatory readiness dimension is ready

Every violation is printed, one per line, before the verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.root, "root", ".", "Repository root that relative paths resolve against")
	flags.StringVar(&a.config, "config", "", "Configuration file (default: roadmap.yaml under --root, optional)")
	flags.StringVar(&a.logLevel, "log-level", "", "Diagnostics level on stderr: debug, info, warn or error (default from config, else warn)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored verdict lines")

	cmd.AddCommand(
		a.validateMilestonesCmd(),
		a.validateRegistryCmd(),
		a.validateObligationsCmd(),
		a.checkAllCmd(),
		a.readinessCmd(),
		a.versionCmd(),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.root, a.config)
	if err != nil {
		return err
	}
	level := a.logLevel
	if level == "" {
		level = cfg.LogLevel()
	}
	var log *logging.Logger
	if f, ok := a.stderr.(*os.File); ok && f == os.Stderr {
		log, err = logging.New(level)
	} else {
		log, err = logging.NewWriter(a.stderr, level)
	}
	if err != nil {
		return err
	}
	if cfg.Loaded {
		log.Debugf("using configuration %s", cfg.Path)
	}
	a.env = gate.NewEnv(cfg, log)
	a.printer = report.NewPrinter(a.stdout, a.colorEnabled())
	return nil
}

// close flushes the logger. cobra skips post-run hooks when a command
// fails, so run calls this itself.
func (a *app) close() {
	if a.env != nil {
		_ = a.env.Log.Close()
	}
}

func (a *app) colorEnabled() bool {
	if a.noColor {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// print writes reports in order and turns any violation into
// errChecksFailed.
func (a *app) print(reports ...*report.Report) error {
	failed := false
	for _, r := range reports {
		if err := a.printer.Print(r); err != nil {
			return err
		}
		failed = failed || !r.IsValid()
	}
	if failed {
		return errChecksFailed
	}
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roadmap version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "roadmap %s\n", version)
			return err
		},
	}
}
