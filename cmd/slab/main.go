package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	storage "github.com/hylla/slab/internal/adapters/storage/diskv"
	"github.com/hylla/slab/internal/app"
	"github.com/hylla/slab/internal/config"
	"github.com/hylla/slab/internal/export"
	"github.com/hylla/slab/internal/measure"
	"github.com/hylla/slab/internal/platform"
	"github.com/hylla/slab/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("slab", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		storeDir   string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SLAB_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("SLAB_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "slab"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&storeDir, "store", "", "path to workspace store directory")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "slab %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "store: %s\n", paths.StoreDir)
		return nil
	case "", "export", "import", "export-png":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	storeOverridden := strings.TrimSpace(storeDir) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SLAB_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !storeOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SLAB_STORE_DIR")); envPath != "" {
			storeDir = envPath
		} else {
			storeDir = paths.StoreDir
		}
	}

	defaultCfg := config.Default(storeDir)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if storeOverridden {
		cfg.Storage.Dir = storeDir
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the canvas is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "store_dir", cfg.Storage.Dir)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	repo, err := storage.Open(cfg.Storage.Dir)
	if err != nil {
		logger.Error("store open failed", "store_dir", cfg.Storage.Dir, "err", err)
		return fmt.Errorf("open workspace store: %w", err)
	}
	logger.Info("workspace store ready", "store_dir", cfg.Storage.Dir)

	svc := app.NewService(repo, uuid.NewString)
	if err := svc.Load(ctx); err != nil {
		// A corrupt store should not brick the app: warn and start fresh.
		logger.Warn("workspace load failed, starting with empty state", "err", err)
	}
	if _, err := svc.EnsureDefaultWorkspace(ctx); err != nil {
		return fmt.Errorf("ensure default workspace: %w", err)
	}

	switch command {
	case "":
		logger.Info("command flow start", "command", "tui")
	case "export":
		if err := runExport(svc, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "export", "err", err)
			return fmt.Errorf("run export command: %w", err)
		}
		logger.Info("command flow complete", "command", "export")
		return nil
	case "import":
		if err := runImport(ctx, svc, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "import", "err", err)
			return fmt.Errorf("run import command: %w", err)
		}
		logger.Info("command flow complete", "command", "import")
		return nil
	case "export-png":
		if err := runExportPNG(svc, fs.Args()[1:]); err != nil {
			logger.Error("command flow failed", "command", "export-png", "err", err)
			return fmt.Errorf("run export-png command: %w", err)
		}
		logger.Info("command flow complete", "command", "export-png")
		return nil
	}

	m := tui.NewModel(
		svc,
		tui.WithKeyConfig(cfg.Keys),
		tui.WithCanvasConfig(cfg.Canvas),
		tui.WithMetrics(measure.DefaultMetrics()),
		tui.WithClipboard(clipboard.WriteAll),
		tui.WithLogger(logger),
	)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runExport runs the requested command flow.
func runExport(svc *app.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("slab export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var outPath string
	fs.StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse export flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected export arguments: %v", fs.Args())
	}

	encoded, err := svc.ExportDocument()
	if err != nil {
		return fmt.Errorf("export document: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write document to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport runs the requested command flow.
func runImport(ctx context.Context, svc *app.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("slab import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var inPath string
	fs.StringVar(&inPath, "in", "", "input document JSON file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse import flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected import arguments: %v", fs.Args())
	}
	if inPath == "" {
		return fmt.Errorf("--in is required")
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	result, err := svc.ImportDocument(ctx, content)
	if err != nil {
		return fmt.Errorf("import document: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "imported %d workspaces, overwrote %d\n", len(result.Imported), len(result.Overwritten))
	return nil
}

// runExportPNG rasterizes the current workspace to a PNG file.
func runExportPNG(svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("slab export-png", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		outPath     string
		workspaceID string
	)
	fs.StringVar(&outPath, "out", "slab.png", "output PNG file path")
	fs.StringVar(&workspaceID, "workspace", "", "workspace id to render (default: current)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse export-png flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected export-png arguments: %v", fs.Args())
	}

	ws, ok := svc.CurrentWorkspace()
	if workspaceID != "" {
		ok = false
		for _, candidate := range svc.Workspaces() {
			if candidate.ID == workspaceID {
				ws, ok = candidate, true
				break
			}
		}
		if !ok {
			return fmt.Errorf("workspace %q not found", workspaceID)
		}
	}
	if !ok {
		return fmt.Errorf("no current workspace")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png file: %w", err)
	}
	defer out.Close()
	renderer := export.NewRenderer(measure.DefaultMetrics())
	if err := renderer.EncodePNG(ws, out); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
