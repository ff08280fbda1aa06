package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBranchPrefix = "agent/"
	DefaultDirPrefix    = "worktree_"
	DefaultRemote       = "origin"
	DefaultTheme        = "mocha"

	EnvRoot         = "AGENTWT_ROOT"
	EnvBranchPrefix = "AGENTWT_BRANCH_PREFIX"
	EnvDirPrefix    = "AGENTWT_DIR_PREFIX"
	EnvConfig       = "AGENTWT_CONFIG"
)

// Config is the on-disk configuration file.
type Config struct {
	BranchPrefix string `yaml:"branch_prefix"`
	DirPrefix    string `yaml:"dir_prefix"`
	Root         string `yaml:"root"`
	Remote       string `yaml:"remote"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	Theme        string `yaml:"theme"`
	Lock         bool   `yaml:"lock"`
}

// LookupEnvFunc is the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

func DefaultConfig() Config {
	return Config{
		BranchPrefix: DefaultBranchPrefix,
		DirPrefix:    DefaultDirPrefix,
		Remote:       DefaultRemote,
		LogLevel:     "info",
		Theme:        DefaultTheme,
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}

	return cfg, nil
}

// Path returns the config file location: explicit, then $AGENTWT_CONFIG,
// then $XDG_CONFIG_HOME/agentwt/config.yaml, then ~/.config/agentwt/config.yaml.
func Path(explicit string, lookupEnv LookupEnvFunc) string {
	if explicit != "" {
		return explicit
	}
	if p, ok := lookupEnv(EnvConfig); ok && p != "" {
		return p
	}
	if xdgConfig, ok := lookupEnv("XDG_CONFIG_HOME"); ok && xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentwt", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "agentwt", "config.yaml")
	}
	return filepath.Join(home, ".config", "agentwt", "config.yaml")
}

// Overrides carries values given explicitly on the command line. Nil means
// the flag was not passed.
type Overrides struct {
	Root         *string
	BranchPrefix *string
	DirPrefix    *string
	Lock         *bool
	LogLevel     *string
}

// Settings is the effective configuration of one invocation. It is built
// once by Resolve and passed down; nothing below main reads flags or the
// environment directly.
type Settings struct {
	BranchPrefix string
	DirPrefix    string
	Root         string // explicit root, empty when it must be computed from the repository
	RootSource   string // "flag", "env", "config" or "default"
	Remote       string
	Lock         bool
	LogLevel     string
	LogFile      string
	Theme        string
}

// Resolve layers flag > environment > config file > built-in default.
func Resolve(cfg Config, lookupEnv LookupEnvFunc, flags Overrides) Settings {
	s := Settings{
		BranchPrefix: cfg.BranchPrefix,
		DirPrefix:    cfg.DirPrefix,
		Root:         cfg.Root,
		RootSource:   "default",
		Remote:       cfg.Remote,
		Lock:         cfg.Lock,
		LogLevel:     cfg.LogLevel,
		LogFile:      cfg.LogFile,
		Theme:        cfg.Theme,
	}
	if cfg.Root != "" {
		s.RootSource = "config"
	}

	if v, ok := lookupEnv(EnvBranchPrefix); ok {
		s.BranchPrefix = v
	}
	if v, ok := lookupEnv(EnvDirPrefix); ok {
		s.DirPrefix = v
	}
	if v, ok := lookupEnv(EnvRoot); ok && v != "" {
		s.Root = v
		s.RootSource = "env"
	}

	if flags.BranchPrefix != nil {
		s.BranchPrefix = *flags.BranchPrefix
	}
	if flags.DirPrefix != nil {
		s.DirPrefix = *flags.DirPrefix
	}
	if flags.Root != nil && *flags.Root != "" {
		s.Root = *flags.Root
		s.RootSource = "flag"
	}
	if flags.Lock != nil {
		s.Lock = *flags.Lock
	}
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		s.LogLevel = *flags.LogLevel
	}

	return s
}

// DefaultRoot is <parent of topLevel>/.worktrees/<basename of topLevel>.
func DefaultRoot(topLevel string) string {
	topLevel = filepath.Clean(topLevel)
	return filepath.Join(filepath.Dir(topLevel), ".worktrees", filepath.Base(topLevel))
}

// WorktreeRoot returns the absolute root that worktrees live under.
func (s Settings) WorktreeRoot(topLevel string) (string, error) {
	if s.Root == "" {
		return DefaultRoot(topLevel), nil
	}
	root := s.Root
	if root == "~" || strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", root, err)
		}
		root = filepath.Join(home, strings.TrimPrefix(root, "~"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	return abs, nil
}
