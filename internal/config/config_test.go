package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envFrom(m map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func strPtr(s string) *string { return &s }

func TestLoadFullConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
branch_prefix: bot/
dir_prefix: wt-
root: /srv/worktrees
remote: upstream
log_level: debug
theme: latte
lock: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Config{
		BranchPrefix: "bot/",
		DirPrefix:    "wt-",
		Root:         "/srv/worktrees",
		Remote:       "upstream",
		LogLevel:     "debug",
		Theme:        "latte",
		Lock:         true,
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("branch_prefix: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BranchPrefix != "" {
		t.Errorf("explicit empty branch_prefix not honoured: %q", cfg.BranchPrefix)
	}
	if cfg.DirPrefix != DefaultDirPrefix {
		t.Errorf("DirPrefix = %q, want default", cfg.DirPrefix)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("branch_prefix: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() should fail on invalid YAML")
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() on error = %+v, want defaults", cfg)
	}
}

func TestResolve_Precedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/from/config"
	cfg.BranchPrefix = "cfg/"

	tests := []struct {
		name       string
		env        map[string]string
		flags      Overrides
		wantRoot   string
		wantSource string
		wantPrefix string
	}{
		{"config only", nil, Overrides{}, "/from/config", "config", "cfg/"},
		{
			"env beats config",
			map[string]string{EnvRoot: "/from/env", EnvBranchPrefix: "env/"},
			Overrides{},
			"/from/env", "env", "env/",
		},
		{
			"flag beats env",
			map[string]string{EnvRoot: "/from/env", EnvBranchPrefix: "env/"},
			Overrides{Root: strPtr("/from/flag"), BranchPrefix: strPtr("flag/")},
			"/from/flag", "flag", "flag/",
		},
		{
			"empty env root ignored",
			map[string]string{EnvRoot: ""},
			Overrides{},
			"/from/config", "config", "cfg/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Resolve(cfg, envFrom(tt.env), tt.flags)
			if s.Root != tt.wantRoot || s.RootSource != tt.wantSource {
				t.Errorf("Root = %q (%s), want %q (%s)", s.Root, s.RootSource, tt.wantRoot, tt.wantSource)
			}
			if s.BranchPrefix != tt.wantPrefix {
				t.Errorf("BranchPrefix = %q, want %q", s.BranchPrefix, tt.wantPrefix)
			}
		})
	}
}

func TestResolve_FlagCanClearPrefix(t *testing.T) {
	s := Resolve(DefaultConfig(), envFrom(nil), Overrides{DirPrefix: strPtr("")})
	if s.DirPrefix != "" {
		t.Errorf("DirPrefix = %q, want empty", s.DirPrefix)
	}
	if s.RootSource != "default" {
		t.Errorf("RootSource = %q, want default", s.RootSource)
	}
}

func TestDefaultRoot(t *testing.T) {
	tests := []struct {
		top  string
		want string
	}{
		{"/home/dev/repo", "/home/dev/.worktrees/repo"},
		{"/home/dev/repo/", "/home/dev/.worktrees/repo"},
		{"/repo", "/.worktrees/repo"},
	}
	for _, tt := range tests {
		if got := DefaultRoot(tt.top); got != tt.want {
			t.Errorf("DefaultRoot(%q) = %q, want %q", tt.top, got, tt.want)
		}
	}
}

func TestWorktreeRoot(t *testing.T) {
	s := Settings{}
	got, err := s.WorktreeRoot("/home/dev/repo")
	if err != nil || got != "/home/dev/.worktrees/repo" {
		t.Errorf("WorktreeRoot() = %q, %v", got, err)
	}

	s.Root = "relative/wt"
	got, err = s.WorktreeRoot("/ignored")
	if err != nil {
		t.Fatalf("WorktreeRoot() error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("WorktreeRoot() = %q, want absolute path", got)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		s.Root = "~/wt"
		if got, _ := s.WorktreeRoot("/ignored"); got != filepath.Join(home, "wt") {
			t.Errorf("WorktreeRoot(~/wt) = %q", got)
		}
	}
}

func TestPath(t *testing.T) {
	if got := Path("/explicit.yaml", envFrom(map[string]string{EnvConfig: "/env.yaml"})); got != "/explicit.yaml" {
		t.Errorf("Path() = %q, want explicit", got)
	}
	if got := Path("", envFrom(map[string]string{EnvConfig: "/env.yaml"})); got != "/env.yaml" {
		t.Errorf("Path() = %q, want env", got)
	}
	if got := Path("", envFrom(map[string]string{"XDG_CONFIG_HOME": "/xdg"})); got != "/xdg/agentwt/config.yaml" {
		t.Errorf("Path() = %q, want XDG", got)
	}
}
