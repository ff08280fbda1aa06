// pattern: Functional Core
package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestPadRight_IgnoresEscapes(t *testing.T) {
	styled := "\x1b[1mab\x1b[0m"
	got := padRight(styled, 4)
	if ansi.Strip(got) != "ab  " {
		t.Errorf("padRight(styled, 4) = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should never truncate, got %q", got)
	}
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([][]string{
		{"PATH", "BRANCH", "HEAD"},
		{"/a/long/path", "\x1b[1mmain\x1b[0m", "abc1234"},
		{"/b", "x", "def5678"},
	})
	lines := strings.Split(strings.TrimSuffix(ansi.Strip(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	col := strings.Index(lines[0], "BRANCH")
	for _, line := range lines[1:] {
		if idx := strings.IndexAny(line[col:col+1], "mx"); idx != 0 {
			t.Errorf("branch column misaligned in %q", line)
		}
	}
	if strings.HasSuffix(lines[0], " ") {
		t.Errorf("last column should not be padded: %q", lines[0])
	}
}
