// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"agentwt/internal/failure"
)

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// App dispatches the first argument to a registered command and maps the
// returned error onto an exit code.
type App struct {
	commands map[string]*Command
	order    []string
	version  string
	printer  *Printer
}

// NewApp creates a new CLI application with the given version.
func NewApp(version string, printer *Printer) *App {
	return &App{
		commands: make(map[string]*Command),
		version:  version,
		printer:  printer,
	}
}

// AddCommand registers a command. Help lists commands in registration order.
func (a *App) AddCommand(cmd *Command) {
	if _, ok := a.commands[cmd.Name]; !ok {
		a.order = append(a.order, cmd.Name)
	}
	a.commands[cmd.Name] = cmd
}

// Printer returns the printer commands report through.
func (a *App) Printer() *Printer {
	return a.printer
}

// Execute runs the command named by args[0] and returns the process exit
// code: 0 on success, the failure kind's code otherwise.
func (a *App) Execute(args []string) int {
	if len(args) == 0 {
		a.PrintHelp(a.printer.Err)
		return failure.Input.ExitCode()
	}

	cmdName := args[0]
	if cmdName == "-h" || cmdName == "--help" {
		a.PrintHelp(a.printer.Out)
		return 0
	}

	cmd, ok := a.commands[cmdName]
	if !ok {
		err := failure.New(failure.Input, "agentwt", fmt.Errorf("unknown command %q", cmdName)).
			WithHint("run `agentwt help` for the list of commands")
		a.printer.Error(err)
		return failure.ExitCode(err)
	}

	if err := cmd.Run(args[1:]); err != nil {
		a.printer.Error(err)
		return failure.ExitCode(err)
	}
	return 0
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: agentwt [options] <command> [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range a.order {
		fmt.Fprintf(w, "  %-10s %s\n", name, a.commands[name].Summary)
	}
	fmt.Fprintf(w, "\nUse \"agentwt help <command>\" for command details.\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprintf(w, "  --config path       config file (default: $XDG_CONFIG_HOME/agentwt/config.yaml)\n")
	fmt.Fprintf(w, "  --shell             emit a cd directive for the shell wrapper (see shell-init)\n")
	fmt.Fprintf(w, "  --no-color          disable coloured output\n")
	fmt.Fprintf(w, "  --log-level level   log file level (debug, info, warn, error)\n")
}

// PrintCommandHelp prints the usage of one command, or returns an Input
// failure when no such command exists.
func (a *App) PrintCommandHelp(w io.Writer, name string) error {
	cmd, ok := a.commands[name]
	if !ok {
		return failure.New(failure.Input, "help", fmt.Errorf("unknown command %q", name))
	}
	fmt.Fprintln(w, cmd.Usage)
	return nil
}

// parseFlags parses args into fs. It reports done=true when the user asked
// for help, after printing usage to w. Flag errors become Input failures.
func parseFlags(fs *flag.FlagSet, args []string, usage string, w io.Writer) (done bool, err error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(w, usage)
			return true, nil
		}
		return true, failure.New(failure.Input, fs.Name(), err).
			WithHint("run `agentwt help " + fs.Name() + "`")
	}
	return false, nil
}
