package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmmx/reswirl/resolve"
	"github.com/lmmx/reswirl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Resolver *resolve.Resolver

	// Cache is nil when the cache database could not be opened; commands
	// degrade to no-cache mode.
	Cache *sqlite.CacheService

	// Concurrency is the enrichment fan-out bound from config.
	Concurrency int
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Inventory InventoryCmd `cmd:"" help:"Fetch and print a package's symbol inventory"`
	Locate    LocateCmd    `cmd:"" help:"Print the resolved inventory URL for a package"`
	Cache     CacheCmd     `cmd:"" help:"Inspect or clear the resolution cache"`

	Verbose bool `short:"v" help:"Enable debug logging"`
}

// InventoryCmd is the "inventory" subcommand.
type InventoryCmd struct {
	Package      string        `arg:"" help:"Package name on PyPI"`
	Format       string        `short:"f" default:"table" enum:"table,csv,jsonl" help:"Output format: table, csv, or jsonl"`
	Enrich       bool          `short:"e" help:"Fetch per-symbol documentation text"`
	ForceRefresh bool          `short:"r" help:"Bypass the cache and re-fetch"`
	Timeout      time.Duration `short:"t" default:"30s" help:"Timeout for the inventory fetch"`
	Fallback     []string      `short:"F" name:"fallback" help:"Fallback documentation base URL, may contain {package} (repeatable)"`
	Concurrency  int           `short:"c" help:"Concurrent documentation fetch limit"`
	Domain       string        `help:"Only symbols in this domain (e.g. py)"`
	Role         string        `help:"Only symbols with this role (e.g. class)"`
	Contains     string        `help:"Only symbols whose name contains this substring"`
}

// LocateCmd is the "locate" subcommand.
type LocateCmd struct {
	Package string `arg:"" help:"Package name on PyPI"`
}

// CacheCmd groups the cache maintenance subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove cache entries"`
	Info  CacheInfoCmd  `cmd:"" help:"List cache entries"`
}

// CacheClearCmd is the "cache clear" subcommand.
type CacheClearCmd struct {
	Package string `arg:"" optional:"" help:"Only clear entries for this package"`
}

// CacheInfoCmd is the "cache info" subcommand.
type CacheInfoCmd struct{}
