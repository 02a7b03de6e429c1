// Package main is the modelindex CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/modelindex/internal/cli"
	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/keyword"
	mcpserver "github.com/hyperjump/modelindex/internal/mcp"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/processor"
	"github.com/hyperjump/modelindex/internal/project"
	"github.com/hyperjump/modelindex/internal/search"
	"github.com/hyperjump/modelindex/internal/server"
	"github.com/hyperjump/modelindex/internal/storage"
	"github.com/hyperjump/modelindex/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

// loadConfig loads config from path. An empty path looks for modelindex.yaml in
// the current directory and falls back to built-in defaults rooted there.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	fallback := filepath.Join(cwd, config.DefaultFileName)
	if _, statErr := os.Stat(fallback); statErr == nil {
		cfg, loadErr := config.Load(fallback)
		if loadErr != nil {
			return nil, "", loadErr
		}
		return cfg, fallback, nil
	}
	return config.Default(cwd), "", nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "index":
		runIndex()
	case "refs":
		runRefs()
	case "lint":
		runLint()
	case "search":
		runSearch()
	case "mcp":
		runMCP()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("modelindex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags shared by every subcommand that reads the index.
type commonFlags struct {
	config *string
	debug  *bool
	root   *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config: fs.String("config", "", "config file path (default: ./"+config.DefaultFileName+" if present)"),
		debug:  fs.Bool("debug", false, "enable debug logging"),
		root:   fs.String("root", "", "project root (overrides project.root)"),
	}
}

// setup loads config and builds components for a subcommand.
func setup(f commonFlags) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(*f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *f.root != "" {
		abs, err := filepath.Abs(*f.root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid root: %v\n", err)
			os.Exit(1)
		}
		cfg.Project.Root = abs
	}
	debugMode := cfg.Debug || *f.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.String("root", cfg.Project.Root))

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func parseFormatOrExit(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := addCommonFlags(fs)
	watch := fs.Bool("watch", false, "watch the project root and reindex changed files")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(common)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := components.Project.RestoreOrReindex(ctx)
	if err != nil {
		logger.Fatal("Initial indexing failed", zap.Error(err))
	}
	logger.Info("index ready", zap.String("pass_id", store.PassID()), zap.Int("files", store.Len()))

	if cfg.Project.Watch || *watch {
		w, err := components.Project.Watch(ctx)
		if err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("watching project", zap.Strings("directories", w.Directories()))
	}

	srv := server.NewServer(components.Project, components.KeywordIndex, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// runMCP serves the index as MCP tools on stdio. Logs go to stderr so they
// never interleave with protocol messages on stdout.
func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	common := addCommonFlags(fs)
	watch := fs.Bool("watch", false, "watch the project root and reindex changed files")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(common)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := components.Project.RestoreOrReindex(ctx); err != nil {
		logger.Fatal("Initial indexing failed", zap.Error(err))
	}
	if cfg.Project.Watch || *watch {
		w, err := components.Project.Watch(ctx)
		if err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("watching project", zap.Strings("directories", w.Directories()))
	}

	srv := mcpserver.NewServer(components.Project, components.KeywordIndex, &cfg.Search, version, logger)
	if err := srv.Serve(ctx); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() > 0 && *common.root == "" {
		*common.root = fs.Arg(0)
	}
	format := parseFormatOrExit(*output)

	_, logger, components := setup(common)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	// Publishing the previous snapshot first lets the keyword index drop files
	// that disappeared since the last run.
	if _, err := components.Project.Restore(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("previous snapshot not restored", zap.Error(err))
	}
	store, err := components.Project.Reindex(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIndexSummary(os.Stdout, cli.NewIndexSummary(store), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// currentStore returns the persisted index, or runs a full pass when fresh is
// set or nothing was persisted yet.
func currentStore(ctx context.Context, p *project.Project, fresh bool) (*indexer.Store, error) {
	if fresh {
		return p.Reindex(ctx)
	}
	return p.RestoreOrReindex(ctx)
}

func runRefs() {
	fs := flag.NewFlagSet("refs", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("format", "text", "output format: text or json")
	serverURL := fs.String("server", "", "query a running server instead of the local index")
	fresh := fs.Bool("fresh", false, "reindex the project before answering")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: modelindex refs [flags] <id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	format := parseFormatOrExit(*output)

	var report *cli.RefsReport
	if *serverURL != "" {
		report = &cli.RefsReport{}
		if err := getJSON(*serverURL, "/api/v1/references/"+url.PathEscape(id), report); err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, logger, components := setup(common)
		defer logger.Sync()
		defer components.Close()
		store, err := currentStore(context.Background(), components.Project, *fresh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Loading index failed: %v\n", err)
			os.Exit(1)
		}
		report = cli.NewRefsReport(store, id)
	}
	if err := cli.WriteRefs(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// lintExitCode is 1 when the report has errors or unresolved links, or
// warnings when they count.
func lintExitCode(r *cli.LintReport, warningsFail bool) int {
	if len(r.Errors) > 0 || len(r.Unresolved) > 0 || (warningsFail && len(r.Warnings) > 0) {
		return 1
	}
	return 0
}

func runLint() {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("format", "text", "output format: text or json")
	cached := fs.Bool("cached", false, "lint the persisted index instead of reindexing")
	warningsFail := fs.Bool("strict", false, "exit non-zero on warnings too")
	_ = fs.Parse(os.Args[2:])
	format := parseFormatOrExit(*output)

	_, logger, components := setup(common)
	defer logger.Sync()
	defer components.Close()

	store, err := currentStore(context.Background(), components.Project, !*cached)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loading index failed: %v\n", err)
		os.Exit(1)
	}
	report := cli.NewLintReport(store)
	if err := cli.WriteLint(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	// Deferred cleanups do not run after os.Exit.
	if code := lintExitCode(report, *warningsFail); code != 0 {
		components.Close()
		_ = logger.Sync()
		os.Exit(code)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: modelindex search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. It matches declared ids, script names and link targets.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  modelindex search order process
  modelindex search -type bpmn invoice
  modelindex search -fuzzy ordr                   # typo-tolerant search (also tried automatically when nothing matches)
  modelindex search -server http://localhost:8090 review-form
`)
}

// joinQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func joinQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	common := addCommonFlags(fs)
	serverURL := fs.String("server", "", "query a running server (the server holds the keyword index lock)")
	limit := fs.Int("limit", 0, "number of results (default: search.default_limit)")
	typ := fs.String("type", "", "only files of this type: bpmn, dmn, form or rpa")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	output := fs.String("format", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	query := &models.SearchQuery{
		Query:        joinQuery(fs.Args()),
		Limit:        *limit,
		Type:         *typ,
		FuzzyEnabled: *fuzzy,
	}
	if query.Query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := parseFormatOrExit(*output)

	var resp *models.SearchResponse
	var err error
	if *serverURL != "" {
		resp, err = searchViaHTTP(*serverURL, query)
	} else {
		cfg, logger, components := setup(common)
		defer logger.Sync()
		defer components.Close()
		resp, err = searchLocal(context.Background(), components, &cfg.Search, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearch(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchLocal(ctx context.Context, c *Components, cfg *config.SearchConfig, query *models.SearchQuery) (*models.SearchResponse, error) {
	store, err := c.Project.RestoreOrReindex(ctx)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(c.KeywordIndex, cfg).Search(ctx, store, query)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	v := url.Values{}
	v.Set("q", query.Query)
	if query.Limit > 0 {
		v.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Type != "" {
		v.Set("type", query.Type)
	}
	if query.FuzzyEnabled {
		v.Set("fuzzy", "true")
	}
	var resp models.SearchResponse
	if err := getJSON(serverURL, "/api/v1/search?"+v.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// getJSON issues GET serverURL+path and decodes a 200 response into out.
func getJSON(serverURL, path string, out interface{}) error {
	resp, err := http.Get(strings.TrimSuffix(serverURL, "/") + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])
	path := config.DefaultFileName
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// writeDefaultConfig writes a config with relative defaults so the file can be
// committed alongside the project.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return config.Save(path, &cfg)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex keyword.Index
	Registry     *processor.Registry
	Indexer      *indexer.Indexer
	Project      *project.Project
}

// Close releases storage and index handles.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
		c.Storage = nil
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
		c.KeywordIndex = nil
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	reg, err := processor.NewRegistry(processor.Default()...)
	if err != nil {
		_ = store.Close()
		_ = keywordIndex.Close()
		return nil, fmt.Errorf("failed to register processors: %w", err)
	}

	idxOpts := []indexer.Option{
		indexer.WithWorkers(cfg.Indexer.Workers),
		indexer.WithCacheSize(cfg.Indexer.CacheSize),
		indexer.WithKeywordIndex(keywordIndex),
	}
	projOpts := []project.Option{project.WithStorage(store)}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
		projOpts = append(projOpts, project.WithLogger(logger))
	}
	idx, err := indexer.New(reg, idxOpts...)
	if err != nil {
		_ = store.Close()
		_ = keywordIndex.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Registry:     reg,
		Indexer:      idx,
		Project:      project.New(cfg.Project, reg, idx, projOpts...),
	}, nil
}

func printUsage() {
	fmt.Println(`modelindex - Cross-reference index for BPMN, DMN, form and RPA files

Usage:
  modelindex serve [flags]           Start the HTTP query API
  modelindex index [flags] [root]    Index the project and persist the result
  modelindex refs [flags] <id>       Show where an id is declared and referenced
  modelindex lint [flags]            Report parse errors and unresolved links
  modelindex search [flags] <query>  Search ids, script names and link targets
  modelindex mcp [flags]             Serve the index as MCP tools on stdio
  modelindex init [path]             Write a default modelindex.yaml
  modelindex version                 Show version
  modelindex help                    Show this help

Common Flags:
  --config string    Config file path (default: ./modelindex.yaml if present, else built-in defaults)
  --root string      Project root (overrides project.root)
  --debug            Enable debug logging

Serve / MCP Flags:
  --watch            Watch the project root and apply changes incrementally

Refs / Lint / Search / Index Flags:
  --format string    Output format: text or json (default: text)
  --server string    (refs, search) Query a running server instead of the local index
  --fresh            (refs) Reindex before answering
  --cached           (lint) Lint the persisted index instead of reindexing
  --strict           (lint) Exit non-zero on warnings too
  --limit int        (search) Number of results (default: search.default_limit)
  --type string      (search) Only files of this type
  --fuzzy            (search) Enable fuzzy matching

Examples:
  modelindex index ./models
  modelindex refs review-form
  modelindex lint --format json
  modelindex search --fuzzy ordr
  modelindex serve --watch`)
}
