// pattern: Imperative Shell
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"agentwt/internal/cli"
	"agentwt/internal/config"
	"agentwt/internal/failure"
	"agentwt/internal/gitcli"
	"agentwt/internal/logging"
	"agentwt/internal/worktree"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv))
}

// run parses the global flags, builds the per-invocation settings and hands
// the remaining arguments to the CLI app. It returns the exit code.
func run(args []string, stdout, stderr io.Writer, lookupEnv config.LookupEnvFunc) int {
	fs := flag.NewFlagSet("agentwt", flag.ContinueOnError)
	// Stop at the subcommand so that its flags reach its own flag set.
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "config file (default: $XDG_CONFIG_HOME/agentwt/config.yaml)")
	shell := fs.Bool("shell", false, "emit a cd directive for the shell wrapper")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	logLevel := fs.String("log-level", "", "log file level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cli.BuildApp(cli.Deps{Version: version, Stdout: stdout, Stderr: stderr}).PrintHelp(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "[error] %v\n", err)
		return failure.Input.ExitCode()
	}

	if _, ok := lookupEnv("NO_COLOR"); ok {
		*noColor = true
	}

	cfg, cfgErr := config.Load(config.Path(*configPath, lookupEnv))

	var global config.Overrides
	if fs.Changed("log-level") {
		global.LogLevel = logLevel
	}
	settings := config.Resolve(cfg, lookupEnv, global)

	logs, closeLogs, logErr := openLogs(settings, lookupEnv)
	defer closeLogs()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "[error] %v\n", err)
		return failure.Environment.ExitCode()
	}

	app := cli.BuildApp(cli.Deps{
		Version:   version,
		Config:    cfg,
		LookupEnv: lookupEnv,
		Logs:      logs,
		Stdout:    stdout,
		Stderr:    stderr,
		NoColor:   *noColor,
		Shell:     *shell,
		Overrides: global,
		OpenRepo: func(s config.Settings) worktree.Repository {
			return gitcli.New(cwd,
				gitcli.WithRemote(s.Remote),
				gitcli.WithLogger(logs.For("git")),
			)
		},
	})

	if cfgErr != nil {
		app.Printer().Warn(fmt.Sprintf("ignoring config file: %v", cfgErr))
	}
	if logErr != nil {
		app.Printer().Warn(fmt.Sprintf("logging disabled: %v", logErr))
	}

	logger := logs.For("app")
	logger.Info("invocation", "args", fs.Args(), "version", version)
	code := app.Execute(fs.Args())
	logger.Info("exit", "code", code)
	return code
}

// openLogs opens the rotating log file. Failure leaves a no-op provider in
// place; logging never stops a command.
func openLogs(settings config.Settings, lookupEnv config.LookupEnvFunc) (logging.LoggerProvider, func(), error) {
	path := settings.LogFile
	if path == "" {
		path = logging.DefaultPath(lookupEnv)
	}
	lm, err := logging.NewManager(logging.Config{
		FilePath:   path,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Level:      settings.LogLevel,
		RunID:      uuid.NewString(),
	})
	if err != nil {
		return logging.NopProvider(), func() {}, err
	}
	return lm, func() { _ = lm.Close() }, nil
}
