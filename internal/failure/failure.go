// pattern: Functional Core

// Package failure classifies everything that can go wrong while creating or
// removing a worktree. Each failure carries a Kind that maps to a process
// exit code, plus enough context (the conflicting path, the offending ref)
// for the caller to correct the request.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a failure.
type Kind int

const (
	Unknown Kind = iota
	Environment
	Input
	Ref
	Collision
	NotFound
	ExternalTool
	PolicyRefusal
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	Environment:   "environment",
	Input:         "input",
	Ref:           "ref",
	Collision:     "collision",
	NotFound:      "not found",
	ExternalTool:  "external tool",
	PolicyRefusal: "policy refusal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode returns the process exit code for the kind. Success is never a Kind.
func (k Kind) ExitCode() int {
	switch k {
	case Input:
		return 2
	case Environment:
		return 3
	case Ref:
		return 4
	case Collision:
		return 5
	case NotFound:
		return 6
	case ExternalTool:
		return 7
	case PolicyRefusal:
		return 8
	default:
		return 1
	}
}

// Sentinel causes. Match them with errors.Is.
var (
	ErrNotInRepository   = errors.New("not inside a git repository")
	ErrEmptyName         = errors.New("name is empty after sanitization")
	ErrInvalidBranchName = errors.New("invalid branch name")
	ErrBaseRefNotFound   = errors.New("base ref does not resolve to a commit")
	ErrPathExists        = errors.New("worktree path already exists")
	ErrBranchExists      = errors.New("branch already exists")
	ErrBranchInUse       = errors.New("branch is checked out in another worktree")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrPathNotFound      = errors.New("worktree path not found")
	ErrBranchUnmerged    = errors.New("branch has unmerged work")
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "create"
	Subject string // the path, ref or name the failure is about
	Hint    string // what the caller can do next
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString(e.Kind.String())
	}
	if e.Subject != "" {
		fmt.Fprintf(&sb, " (%s)", e.Subject)
	}
	if e.Hint != "" {
		sb.WriteString("; ")
		sb.WriteString(e.Hint)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// About sets the subject and returns the receiver.
func (e *Error) About(subject string) *Error {
	e.Subject = subject
	return e
}

// WithHint sets the hint and returns the receiver.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf reports the Kind of err. Unclassified errors count as ExternalTool
// because every failure not caught by validation comes from the git call.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ExternalTool
}

// ExitCode maps err to a process exit code; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
