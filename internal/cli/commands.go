// pattern: Imperative Shell
package cli

import (
	"fmt"
	"io"
	"strings"

	"agentwt/internal/config"
	"agentwt/internal/failure"
	"agentwt/internal/logging"
	"agentwt/internal/worktree"
)

// Deps is everything the commands take from the process. main builds it
// once per invocation.
type Deps struct {
	Version   string
	Config    config.Config
	LookupEnv config.LookupEnvFunc
	Logs      logging.LoggerProvider

	Stdout  io.Writer
	Stderr  io.Writer
	NoColor bool

	// Shell is the caller-context capability: set when the shell wrapper
	// from shell-init invoked us and will eval a cd directive.
	Shell bool

	// Global overrides already taken from the global flags.
	Overrides config.Overrides

	// OpenRepo returns the repository the controller works on.
	OpenRepo func(settings config.Settings) worktree.Repository
}

func (d Deps) settings(local config.Overrides) config.Settings {
	ov := d.Overrides
	if local.Root != nil {
		ov.Root = local.Root
	}
	if local.BranchPrefix != nil {
		ov.BranchPrefix = local.BranchPrefix
	}
	if local.DirPrefix != nil {
		ov.DirPrefix = local.DirPrefix
	}
	if local.Lock != nil {
		ov.Lock = local.Lock
	}
	return config.Resolve(d.Config, d.LookupEnv, ov)
}

func (d Deps) controller(settings config.Settings, reporter worktree.Reporter) *worktree.Controller {
	return worktree.New(d.OpenRepo(settings), settings,
		worktree.WithReporter(reporter),
		worktree.WithLogger(d.Logs.For("worktree")),
	)
}

// BuildApp creates and configures the CLI application with all commands.
func BuildApp(d Deps) *App {
	if d.Logs == nil {
		d.Logs = logging.NopProvider()
	}
	theme := d.Config.Theme
	app := NewApp(d.Version, NewPrinter(d.Stdout, d.Stderr, theme, d.NoColor))

	registerWorktreeCommands(app, d)

	app.AddCommand(&Command{
		Name:    "help",
		Summary: "Show help for agentwt or one command",
		Usage:   "Usage: agentwt help [command]",
		Run: func(args []string) error {
			if len(args) == 0 {
				app.PrintHelp(d.Stdout)
				return nil
			}
			return app.PrintCommandHelp(d.Stdout, args[0])
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: agentwt version",
		Run: func(args []string) error {
			fmt.Fprintln(d.Stdout, d.Version)
			return nil
		},
	})

	app.AddCommand(&Command{
		Name:    "shell-init",
		Summary: "Print a shell function that lets create change directory",
		Usage: "Usage: agentwt shell-init [bash|zsh]\n\n" +
			"Add to your shell rc file:\n" +
			"  eval \"$(agentwt shell-init bash)\"",
		Run: func(args []string) error {
			shell := "bash"
			if len(args) > 0 {
				shell = args[0]
			}
			script, err := ShellInit(shell)
			if err != nil {
				return err
			}
			fmt.Fprint(d.Stdout, script)
			return nil
		},
	})

	return app
}

const shellFunction = `agentwt() {
  if [ "$1" = "create" ]; then
    local __agentwt_out
    __agentwt_out="$(command agentwt --shell "$@")" || return $?
    case "$__agentwt_out" in
      "cd -- "*) eval "$__agentwt_out" && printf '%s\n' "$PWD" ;;
      *) [ -n "$__agentwt_out" ] && printf '%s\n' "$__agentwt_out" ;;
    esac
  else
    command agentwt "$@"
  fi
}
`

// ShellInit returns the wrapper function for shell. Only the create
// command is routed through eval; everything else runs unchanged.
func ShellInit(shell string) (string, error) {
	switch shell {
	case "bash", "zsh", "sh":
		return shellFunction, nil
	default:
		return "", failure.New(failure.Input, "shell-init", fmt.Errorf("unsupported shell %q", shell)).
			WithHint("supported shells: bash, zsh")
	}
}

// ChangeDirDirective is the line the shell wrapper evals to enter path.
func ChangeDirDirective(path string) string {
	return "cd -- " + shellQuote(path)
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
