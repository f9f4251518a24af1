package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/folio-blog/folio/pkg/build"
	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/process"
	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/search"
	"github.com/folio-blog/folio/pkg/site"
	"github.com/folio-blog/folio/pkg/sitemap"
	"github.com/folio-blog/folio/pkg/storage"
	"github.com/folio-blog/folio/pkg/theme"
	"github.com/folio-blog/folio/pkg/utils"
	"github.com/folio-blog/folio/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "build":
		runBuild(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-posts":
		runListPosts(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("folio %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `folio - Portfolio and blog site server

Usage:
  folio <command> [options]

Commands:
  serve       Serve the site with live scroll sync
  build       Export the site as static files
  validate    Validate configuration and content
  list-posts  List posts by category
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'folio <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// runServe handles the serve subcommand
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	addr := fs.String("addr", "", "Listen address (overrides listen_addr)")
	noWatch := fs.Bool("no-watch", false, "Do not reload content when files change")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folio serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  folio serve -config config.yaml\n")
		fmt.Fprintf(os.Stderr, "  folio serve -addr :3000 -no-watch\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	appCfg := loadAndValidateConfig(*configFile, log)
	if *addr != "" {
		appCfg.ListenAddr = *addr
	}
	if *noWatch {
		disabled := false
		appCfg.WatchContent = &disabled
	}
	logAppConfig(appCfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := handleSignals(cancel, log)
	defer stop()

	if err := serve(ctx, appCfg, log); err != nil {
		log.Errorf("Server finished with error: %v (%s)", err, utils.CategorizeError(err))
		os.Exit(1)
	}
	log.Info("Server stopped.")
}

// serve wires the preference store, theme, content and watcher into the site server
// and blocks until ctx is canceled.
func serve(ctx context.Context, appCfg *config.AppConfig, log *logrus.Logger) error {
	store, err := storage.Open(ctx, appCfg, log.WithField("component", "storage"))
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer store.Close()

	themeCtx := theme.Load(ctx, store, log.WithField("component", "theme"))

	lib, err := content.LoadLibrary(appCfg, log.WithField("component", "content"))
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	log.Infof("Loaded %d posts in %d categories", len(lib.Posts), len(lib.Categories))

	srv, err := site.NewServer(appCfg, lib, themeCtx, log.WithField("component", "site"))
	if err != nil {
		return err
	}

	if config.GetEffectiveWatchContent(*appCfg) {
		w, err := watch.New(appCfg.ContentDir, appCfg.WatchDebounce, srv.Reload, log.WithField("component", "watch"))
		if err != nil {
			log.Warnf("Content watching disabled: %v", err)
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					log.Errorf("Content watcher stopped: %v", err)
				}
			}()
		}
	}

	return srv.Run(ctx, appCfg.ListenAddr)
}

// runBuild handles the build subcommand
func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	outDir := fs.String("out", "", "Output directory (overrides output_dir)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	noSections := fs.Bool("no-sections", false, "Skip writing sections.jsonl")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folio build [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := handleSignals(cancel, logrus.StandardLogger())
	defer stop()

	os.Exit(doBuild(ctx, *configFile, *outDir, *logLevel, !*noSections, os.Stdout, os.Stderr))
}

// doBuild exports the site. Logs go to stderr, the summary to stdout.
// Returns exit code (0 = success, 1 = error).
func doBuild(ctx context.Context, configPath, outDir, logLevel string, withSections bool, stdout, stderr io.Writer) int {
	log := setupLogger(logLevel)
	log.SetOutput(stderr)

	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if outDir != "" {
		appCfg.OutputDir = outDir
	}
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	lib, err := content.LoadLibrary(appCfg, log.WithField("component", "content"))
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	pages, err := site.NewPages(appCfg, render.New(render.Options{UniqueAnchors: appCfg.UniqueAnchors}))
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	var splitter *process.Splitter
	if withSections {
		counter, err := process.NewTokenCounter(appCfg.TokenizerEncoding)
		if err != nil {
			log.Warnf("Tokenizer unavailable, estimating token counts: %v", err)
			counter = nil
		}
		splitter = process.NewSplitter(appCfg.Chunking, counter)
	}

	exporter := build.NewExporter(appCfg, pages, splitter, log.WithField("component", "build"))
	meta, err := exporter.Export(ctx, lib)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Build canceled.")
		} else {
			fmt.Fprintf(stderr, "ERROR: %v (%s)\n", err, utils.CategorizeError(err))
		}
		return 1
	}

	fmt.Fprintf(stdout, "Exported %d posts in %d categories to %s (%v)\n",
		meta.TotalPosts, len(meta.Categories), appCfg.OutputDir,
		meta.BuildEndTime.Sub(meta.BuildStartTime).Round(time.Millisecond))
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folio validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	lib, err := content.LoadLibrary(appCfg, quietLogger(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: [content] %v\n", err)
		return 1
	}
	for _, slug := range lib.DuplicateSlugs() {
		fmt.Fprintf(stdout, "WARN: [content] slug %q is used by more than one post\n", slug)
	}
	fmt.Fprintf(stdout, "OK: [content] %d posts in %d categories\n", len(lib.Posts), len(lib.Categories))

	if appCfg.RobotsTxt != "" {
		paths := sitemap.Paths(lib, func(name string) string { return site.CategoryURL(name, true) })
		blocked, err := sitemap.Blocked(appCfg.RobotsTxt, paths)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: [robots] %v\n", err)
			return 1
		}
		for _, p := range blocked {
			fmt.Fprintf(stdout, "WARN: [robots] robots_txt disallows %s\n", p)
		}
	}

	if _, err := process.NewTokenCounter(appCfg.TokenizerEncoding); err != nil {
		fmt.Fprintf(stdout, "WARN: [tokenizer] %v\n", err)
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListPosts handles the list-posts subcommand
func runListPosts(args []string) {
	fs := flag.NewFlagSet("list-posts", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	category := fs.String("category", "", "Only list posts in this category")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folio list-posts [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doListPosts(*configFile, *category, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doListPosts lists posts grouped by category in display order.
// Returns exit code (0 = success, 1 = error).
func doListPosts(configPath, category string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	lib, err := content.LoadLibrary(appCfg, quietLogger(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	categories := lib.Categories
	if category != "" {
		if !lib.HasCategory(category) {
			fmt.Fprintf(stderr, "Error: category '%s' not found. Available categories: %v\n", category, lib.Categories)
			return 1
		}
		categories = []string{category}
	}

	fmt.Fprintf(stdout, "Posts in %s:\n\n", config.GetEffectiveManifestPath(*appCfg))
	for _, name := range categories {
		fmt.Fprintf(stdout, "  %s (%d)\n", name, lib.Counts[name])
		for _, p := range search.Filter(lib.Posts, name, "") {
			date := p.DisplayDate()
			if date == "" {
				date = "undated"
			}
			fmt.Fprintf(stdout, "    %-30s %s  [%s]\n", p.Slug, p.Title, date)
		}
		fmt.Fprintln(stdout)
	}
	return 0
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Setting log level to: %s", level.String())
	}

	return log
}

// quietLogger reports only content warnings, on w.
func quietLogger(w io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log.WithField("component", "content")
}

// loadAndValidateConfig loads the config file, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	appWarnings, err := appCfg.Validate()
	for _, w := range appWarnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	return appCfg
}

// handleSignals cancels on SIGINT/SIGTERM and forces exit on a second signal.
// The returned func stops signal delivery.
func handleSignals(cancel context.CancelFunc, log *logrus.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("PANIC in signal handler: %v", r)
			}
		}()
		sig, ok := <-sigChan
		if !ok {
			return
		}
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig, ok = <-sigChan:
			if ok {
				log.Warnf("Received second signal: %v. Forcing exit.", sig)
				os.Exit(1)
			}
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return func() {
		signal.Stop(sigChan)
	}
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Site: %q, Home:%s, ContentDir:%s, Manifest:%s",
		appCfg.SiteTitle, appCfg.Home, appCfg.ContentDir, config.GetEffectiveManifestPath(*appCfg))
	log.Infof("Categories: Default:%q, Preferred:%v", appCfg.DefaultCategory, appCfg.PreferredCategories)
	log.Infof("Server: Listen:%s, LiveSync:%t, RootMargin:%q, UniqueAnchors:%t",
		appCfg.ListenAddr, config.GetEffectiveLiveSync(*appCfg), appCfg.RootMargin, appCfg.UniqueAnchors)
	log.Infof("Preferences: Store:%s, StateDir:%s", appCfg.PreferenceStore, appCfg.StateDir)
	log.Infof("Watch: Enabled:%t, Debounce:%v", config.GetEffectiveWatchContent(*appCfg), appCfg.WatchDebounce)
	log.Infof("HTTP: Read:%v, Write:%v, Idle:%v, Shutdown:%v",
		appCfg.HTTPServerSettings.ReadTimeout, appCfg.HTTPServerSettings.WriteTimeout,
		appCfg.HTTPServerSettings.IdleTimeout, appCfg.HTTPServerSettings.ShutdownTimeout)
}
