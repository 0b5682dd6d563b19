package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/lmmx/reswirl"
	reswirlhttp "github.com/lmmx/reswirl/http"
	"github.com/lmmx/reswirl/pypi"
	"github.com/lmmx/reswirl/resolve"
	reswirlslog "github.com/lmmx/reswirl/slog"
	"github.com/lmmx/reswirl/sqlite"
	"github.com/lmmx/reswirl/toml"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, reswirl.ErrorMessage(err))
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps every failure kind to a distinct non-zero process exit
// code so scripts can branch on the cause.
func ExitCode(err error) int {
	switch reswirl.ErrorCode(err) {
	case "":
		return 0
	case reswirl.ENOTFOUND:
		return 2
	case reswirl.EAMBIGUOUS:
		return 3
	case reswirl.EFETCH:
		return 4
	case reswirl.ETIMEOUT:
		return 5
	case reswirl.EFORMAT:
		return 6
	default:
		return 1
	}
}

// Main represents the program.
type Main struct {
	// Config file path. Set before calling Run().
	ConfigPath string

	// Cache database path. Overrides the config file when set.
	CachePath string

	// SQLite database backing the resolution cache.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	m := &Main{}
	if path, err := toml.DefaultPath(); err == nil {
		m.ConfigPath = path
	}
	return m
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("reswirl"),
		kong.Description("Resolve a package's Sphinx object inventory into a symbol table."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return reswirl.Errorf(reswirl.EINVALID, "no command specified. Run 'reswirl --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return reswirl.Errorf(reswirl.EINVALID, "%v", err)
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	cfg, err := toml.Load(m.ConfigPath)
	if err != nil {
		return err
	}
	ttl, err := cfg.ParseTTL()
	if err != nil {
		return err
	}
	deps.Concurrency = cfg.Concurrency

	// A broken cache never blocks a resolution; it only costs re-fetches.
	var cache reswirl.Cache
	if path, err := m.cachePath(cfg); err == nil {
		m.DB = sqlite.NewDB(path)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "warning: cache unavailable at %q, continuing without cache: %v\n", path, err)
			m.DB = nil
		} else {
			deps.Cache = sqlite.NewCacheService(m.DB)
			cache = reswirlslog.NewLoggingCache(deps.Cache, logger)
		}
	} else {
		fmt.Fprintf(stderr, "warning: no cache directory available, continuing without cache: %v\n", err)
	}
	defer m.Close()

	fetcher := reswirlslog.NewLoggingFetcher(reswirlhttp.NewFetcher(), logger)
	defer fetcher.Close()

	deps.Resolver = &resolve.Resolver{
		Metadata:      pypi.NewMetadataService(),
		Fetcher:       fetcher,
		Cache:         cache,
		TTL:           ttl,
		FallbackHosts: cfg.FallbackHosts,
		Logger:        logger,
	}

	return kongCtx.Run(deps)
}

// cachePath picks the cache database location: explicit override, then
// config file, then the user cache directory.
func (m *Main) cachePath(cfg *toml.Config) (string, error) {
	if m.CachePath != "" {
		return m.CachePath, nil
	}
	if cfg.CachePath != "" {
		return cfg.CachePath, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "reswirl", "cache.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}
