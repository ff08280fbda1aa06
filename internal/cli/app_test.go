// pattern: Functional Core
package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"

	"agentwt/internal/failure"
)

func newTestApp() (*App, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return NewApp("1.0.0", NewPrinter(stdout, stderr, "mocha", true)), stdout, stderr
}

func TestApp_PrintHelp_ListsCommandsInOrder(t *testing.T) {
	app, _, _ := newTestApp()
	app.AddCommand(&Command{Name: "create", Summary: "Create"})
	app.AddCommand(&Command{Name: "remove", Summary: "Remove"})

	buf := &bytes.Buffer{}
	app.PrintHelp(buf)
	output := buf.String()

	if !strings.Contains(output, "Usage: agentwt") {
		t.Errorf("help missing usage line: %s", output)
	}
	if strings.Index(output, "create") > strings.Index(output, "remove") {
		t.Errorf("commands out of registration order: %s", output)
	}
	if !strings.Contains(output, "--shell") {
		t.Errorf("help missing global options: %s", output)
	}
}

func TestApp_Execute_NoArgs_IsInputError(t *testing.T) {
	app, stdout, stderr := newTestApp()

	if code := app.Execute(nil); code != failure.Input.ExitCode() {
		t.Errorf("Execute(nil) = %d, want %d", code, failure.Input.ExitCode())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Usage: agentwt") {
		t.Errorf("stderr should carry help, got %q", stderr.String())
	}
}

func TestApp_Execute_HelpFlag(t *testing.T) {
	app, stdout, _ := newTestApp()
	if code := app.Execute([]string{"--help"}); code != 0 {
		t.Errorf("Execute(--help) = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Commands:") {
		t.Errorf("help not printed to stdout: %q", stdout.String())
	}
}

func TestApp_Execute_UnknownCommand(t *testing.T) {
	app, _, stderr := newTestApp()

	if code := app.Execute([]string{"frobnicate"}); code != failure.Input.ExitCode() {
		t.Errorf("exit code = %d, want %d", code, failure.Input.ExitCode())
	}
	if !strings.HasPrefix(stderr.String(), "[error] ") || !strings.Contains(stderr.String(), "frobnicate") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestApp_Execute_DispatchesWithArgs(t *testing.T) {
	app, _, _ := newTestApp()
	var got []string
	app.AddCommand(&Command{
		Name: "create",
		Run: func(args []string) error {
			got = args
			return nil
		},
	})

	if code := app.Execute([]string{"create", "task1", "--fetch"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if len(got) != 2 || got[0] != "task1" || got[1] != "--fetch" {
		t.Errorf("args = %v", got)
	}
}

func TestApp_Execute_MapsErrorsToExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"collision", failure.New(failure.Collision, "create", failure.ErrPathExists), 5},
		{"policy refusal", failure.New(failure.PolicyRefusal, "remove", failure.ErrBranchUnmerged), 8},
		{"environment", failure.New(failure.Environment, "create", failure.ErrNotInRepository), 3},
		{"unclassified", errors.New("boom"), failure.ExternalTool.ExitCode()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, stderr := newTestApp()
			app.AddCommand(&Command{Name: "x", Run: func([]string) error { return tt.err }})

			if code := app.Execute([]string{"x"}); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
			if !strings.Contains(stderr.String(), tt.err.Error()) {
				t.Errorf("stderr %q does not carry %q", stderr.String(), tt.err.Error())
			}
		})
	}
}

func TestApp_PrintCommandHelp(t *testing.T) {
	app, _, _ := newTestApp()
	app.AddCommand(&Command{Name: "create", Usage: "Usage: agentwt create <name>"})

	buf := &bytes.Buffer{}
	if err := app.PrintCommandHelp(buf, "create"); err != nil {
		t.Fatalf("PrintCommandHelp() error = %v", err)
	}
	if !strings.Contains(buf.String(), "agentwt create <name>") {
		t.Errorf("got %q", buf.String())
	}

	err := app.PrintCommandHelp(buf, "nope")
	if failure.KindOf(err) != failure.Input {
		t.Errorf("unknown command help: kind = %v", failure.KindOf(err))
	}
}

func TestParseFlags(t *testing.T) {
	newFS := func() (*flag.FlagSet, *bool) {
		fs := flag.NewFlagSet("remove", flag.ContinueOnError)
		return fs, fs.Bool("force", false, "")
	}

	t.Run("help", func(t *testing.T) {
		fs, _ := newFS()
		buf := &bytes.Buffer{}
		done, err := parseFlags(fs, []string{"--help"}, "Usage: agentwt remove", buf)
		if !done || err != nil {
			t.Errorf("done=%v err=%v, want done without error", done, err)
		}
		if !strings.Contains(buf.String(), "Usage: agentwt remove") {
			t.Errorf("usage not printed: %q", buf.String())
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		fs, _ := newFS()
		done, err := parseFlags(fs, []string{"--bogus"}, "", &bytes.Buffer{})
		if !done || failure.KindOf(err) != failure.Input {
			t.Errorf("done=%v kind=%v, want Input failure", done, failure.KindOf(err))
		}
	})

	t.Run("flags after positional", func(t *testing.T) {
		fs, force := newFS()
		done, err := parseFlags(fs, []string{"task1", "--force"}, "", &bytes.Buffer{})
		if done || err != nil {
			t.Fatalf("done=%v err=%v", done, err)
		}
		if !*force || fs.Arg(0) != "task1" {
			t.Errorf("force=%v arg=%q", *force, fs.Arg(0))
		}
	})
}
