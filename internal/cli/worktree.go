// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"agentwt/internal/config"
	"agentwt/internal/failure"
	"agentwt/internal/worktree"
)

// rootFlags are the naming flags shared by create, remove and list.
type rootFlags struct {
	root         string
	dirPrefix    string
	branchPrefix string
	lock         bool
}

func (r *rootFlags) register(fs *flag.FlagSet, withBranchPrefix, withLock bool) {
	fs.StringVar(&r.root, "root", "", "directory worktrees live under (env "+config.EnvRoot+")")
	fs.StringVar(&r.dirPrefix, "dir-prefix", config.DefaultDirPrefix, "worktree directory prefix (env "+config.EnvDirPrefix+")")
	if withBranchPrefix {
		fs.StringVar(&r.branchPrefix, "branch-prefix", config.DefaultBranchPrefix, "branch name prefix (env "+config.EnvBranchPrefix+")")
	}
	if withLock {
		fs.BoolVar(&r.lock, "lock", false, "hold an advisory lock on the root while checking and mutating")
	}
}

// overrides returns only the flags the user actually passed.
func (r *rootFlags) overrides(fs *flag.FlagSet) config.Overrides {
	var ov config.Overrides
	if fs.Changed("root") {
		ov.Root = &r.root
	}
	if fs.Changed("dir-prefix") {
		ov.DirPrefix = &r.dirPrefix
	}
	if fs.Changed("branch-prefix") {
		ov.BranchPrefix = &r.branchPrefix
	}
	if fs.Changed("lock") {
		ov.Lock = &r.lock
	}
	return ov
}

type createFlags struct {
	rootFlags
	from        string
	branch      string
	useExisting bool
	noCD        bool
	fetch       bool
}

func newCreateFlags() (*flag.FlagSet, *createFlags) {
	f := &createFlags{}
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.StringVar(&f.from, "from", "", "base ref for the new branch (default: main, master, <remote>/main, <remote>/master, HEAD)")
	fs.StringVar(&f.branch, "branch", "", "branch name (default: <branch-prefix><name>)")
	fs.BoolVar(&f.useExisting, "use-existing-branch", false, "attach an existing branch instead of creating one")
	fs.BoolVar(&f.noCD, "no-cd", false, "do not change into the new worktree")
	fs.BoolVar(&f.fetch, "fetch", false, "fetch and prune all remotes first")
	f.register(fs, true, true)
	return fs, f
}

type removeFlags struct {
	rootFlags
	force        bool
	deleteBranch bool
	deleteForce  bool
}

func newRemoveFlags() (*flag.FlagSet, *removeFlags) {
	f := &removeFlags{}
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.BoolVar(&f.force, "force", false, "remove even with uncommitted changes")
	fs.BoolVar(&f.deleteBranch, "delete-branch", false, "also delete the branch if it is fully merged")
	fs.BoolVar(&f.deleteForce, "delete-branch-force", false, "also delete the branch unconditionally")
	f.register(fs, false, true)
	return fs, f
}

type listFlags struct {
	rootFlags
	branches bool
}

func newListFlags() (*flag.FlagSet, *listFlags) {
	f := &listFlags{}
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.BoolVar(&f.branches, "branches", false, "also list prefixed branches that have no worktree")
	f.register(fs, true, false)
	return fs, f
}

func usage(line string, fs *flag.FlagSet) string {
	return line + "\n\nFlags:\n" + strings.TrimRight(fs.FlagUsages(), "\n")
}

func registerWorktreeCommands(app *App, d Deps) {
	createFS, _ := newCreateFlags()
	createUsage := usage("Usage: agentwt create <name> [flags]", createFS)
	app.AddCommand(&Command{
		Name:    "create",
		Summary: "Create a worktree and branch for a task",
		Usage:   createUsage,
		Run: func(args []string) error {
			return runCreate(app.Printer(), d, args, createUsage)
		},
	})

	removeFS, _ := newRemoveFlags()
	removeUsage := usage("Usage: agentwt remove <name> [flags]", removeFS)
	app.AddCommand(&Command{
		Name:    "remove",
		Summary: "Remove a task's worktree and optionally its branch",
		Usage:   removeUsage,
		Run: func(args []string) error {
			return runRemove(app.Printer(), d, args, removeUsage)
		},
	})

	listFS, _ := newListFlags()
	listUsage := usage("Usage: agentwt list [flags]", listFS)
	app.AddCommand(&Command{
		Name:    "list",
		Summary: "List the repository's worktrees",
		Usage:   listUsage,
		Run: func(args []string) error {
			return runList(app.Printer(), d, args, listUsage)
		},
	})
}

// taskArg returns the single positional task name.
func taskArg(cmd string, fs *flag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 1:
		return fs.Arg(0), nil
	case 0:
		return "", failure.New(failure.Input, cmd, fmt.Errorf("missing task name")).
			WithHint("usage: agentwt " + cmd + " <name>")
	default:
		return "", failure.New(failure.Input, cmd, fmt.Errorf("expected one task name, got %d arguments", fs.NArg())).
			WithHint("quote names that contain spaces")
	}
}

func runCreate(p *Printer, d Deps, args []string, usageText string) error {
	fs, f := newCreateFlags()
	if done, err := parseFlags(fs, args, usageText, p.Out); done {
		return err
	}
	name, err := taskArg("create", fs)
	if err != nil {
		return err
	}

	// stdout carries only the path (or cd directive); progress goes to stderr
	out := p.ForResult()
	settings := d.settings(f.overrides(fs))
	log := d.Logs.For("cli").With("command", "create", "task", name)
	log.Info("command started", "root_source", settings.RootSource, "shell", d.Shell)

	res, err := d.controller(settings, out).Create(context.Background(), worktree.CreateRequest{
		TaskName:          name,
		BaseRef:           f.from,
		Branch:            f.branch,
		UseExistingBranch: f.useExisting,
		AutoChangeDir:     !f.noCD,
		FetchFirst:        f.fetch,
		CanChangeDir:      d.Shell,
	})
	if err != nil {
		log.Warn("command failed", "error", err, "kind", failure.KindOf(err).String())
		return err
	}

	if res.ChangeDir {
		out.Result(ChangeDirDirective(res.Path))
	} else {
		out.Result(res.Path)
	}
	log.Info("command finished", "path", res.Path, "branch", res.Branch)
	return nil
}

func runRemove(p *Printer, d Deps, args []string, usageText string) error {
	fs, f := newRemoveFlags()
	if done, err := parseFlags(fs, args, usageText, p.Out); done {
		return err
	}
	name, err := taskArg("remove", fs)
	if err != nil {
		return err
	}

	settings := d.settings(f.overrides(fs))
	log := d.Logs.For("cli").With("command", "remove", "task", name)
	log.Info("command started", "root_source", settings.RootSource)

	res, err := d.controller(settings, p).Remove(context.Background(), worktree.RemoveRequest{
		TaskName:          name,
		Force:             f.force,
		DeleteBranch:      f.deleteBranch,
		DeleteBranchForce: f.deleteForce,
	})
	if err != nil {
		log.Warn("command failed", "error", err,
			"worktree_removed", res.WorktreeRemoved,
			"branch", res.BranchOutcome.String())
		return err
	}
	if res.BranchOutcome == worktree.BranchKept && res.Branch != "" {
		p.Info("kept branch " + res.Branch)
	}
	log.Info("command finished", "path", res.Path, "branch", res.BranchOutcome.String())
	return nil
}

func runList(p *Printer, d Deps, args []string, usageText string) error {
	fs, f := newListFlags()
	if done, err := parseFlags(fs, args, usageText, p.Out); done {
		return err
	}
	if fs.NArg() > 0 {
		return failure.New(failure.Input, "list", fmt.Errorf("unexpected argument %q", fs.Arg(0)))
	}

	settings := d.settings(f.overrides(fs))
	ctrl := d.controller(settings, p)
	ctx := context.Background()

	entries, err := ctrl.List(ctx)
	if err != nil {
		return err
	}

	rows := [][]string{{p.Bold("PATH"), p.Bold("BRANCH"), p.Bold("HEAD"), p.Bold("MANAGED")}}
	for _, e := range entries {
		rows = append(rows, []string{e.Path, branchCell(p, e), shortHead(e.Head), managedCell(p, e.Managed)})
	}
	fmt.Fprint(p.Out, renderTable(rows))

	if !f.branches {
		return nil
	}
	orphans, err := ctrl.OrphanBranches(ctx)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}
	fmt.Fprintf(p.Out, "\n%s\n", p.Bold("BRANCHES WITHOUT A WORKTREE"))
	for _, b := range orphans {
		fmt.Fprintf(p.Out, "  %s\n", b)
	}
	return nil
}

func branchCell(p *Printer, e worktree.ListEntry) string {
	switch {
	case e.Bare:
		return p.Dim("(bare)")
	case e.Detached || e.Branch == "":
		return p.Dim("(detached)")
	default:
		return e.Branch
	}
}

func shortHead(head string) string {
	if len(head) > 7 {
		return head[:7]
	}
	return head
}

func managedCell(p *Printer, managed bool) string {
	if managed {
		return p.Accent("yes")
	}
	return p.Dim("-")
}
