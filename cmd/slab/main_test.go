package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/slab/internal/app"
	"github.com/hylla/slab/internal/config"
	"github.com/hylla/slab/internal/domain"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("SLAB_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// writeTestDocument writes one importable document with a single workspace.
func writeTestDocument(t *testing.T, path string) {
	t.Helper()
	doc := app.Document{
		"ws-import": {
			ID:   "ws-import",
			Name: "Imported",
			Cards: map[string]domain.Card{
				"card-import": {
					ID:       "card-import",
					Text:     "imported card",
					Position: domain.Point{X: 100, Y: 100},
					Size:     domain.DefaultCardSize(),
				},
			},
			ViewState: domain.DefaultViewState(),
			CardOrder: []string{"card-import"},
		},
	}
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "slab") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	programFactory = func(_ tea.Model) program {
		return fakeProgram{}
	}

	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "missing.toml")
	err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--unknown-flag"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--app", "slabx", "--dev", "paths"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "app: slabx") {
		t.Fatalf("expected app name in paths output, got %q", output)
	}
	if !strings.Contains(output, "dev_mode: true") {
		t.Fatalf("expected dev mode in paths output, got %q", output)
	}
}

// TestRunExportCommandWritesDocument verifies behavior for the covered scenario.
func TestRunExportCommandWritesDocument(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "missing.toml")
	outPath := filepath.Join(tmp, "document.json")
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var doc app.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("expected one bootstrapped workspace in export, got %d", len(doc))
	}
	for _, ws := range doc {
		if ws.Name != "My Workspace" {
			t.Fatalf("expected default workspace name, got %q", ws.Name)
		}
	}
}

// TestRunImportCommandReadsDocument verifies behavior for the covered scenario.
func TestRunImportCommandReadsDocument(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "missing.toml")
	inPath := filepath.Join(tmp, "in.json")
	writeTestDocument(t, inPath)

	var out strings.Builder
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "import", "--in", inPath}, &out, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	if !strings.Contains(out.String(), "imported 1 workspaces") {
		t.Fatalf("expected import summary, got %q", out.String())
	}

	outPath := filepath.Join(tmp, "out.json")
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var doc app.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	ws, ok := doc["ws-import"]
	if !ok {
		t.Fatalf("expected imported workspace in exported document, got %#v", doc)
	}
	if _, ok := ws.Cards["card-import"]; !ok {
		t.Fatalf("expected imported card in exported workspace, got %#v", ws.Cards)
	}
}

// TestRunExportToStdoutAndImportErrors verifies behavior for the covered scenario.
func TestRunExportToStdoutAndImportErrors(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "export", "--out", "-"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export stdout) error = %v", err)
	}
	if !strings.Contains(out.String(), "My Workspace") {
		t.Fatalf("expected document json on stdout, got %q", out.String())
	}

	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "import"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import error for missing --in")
	}

	badIn := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(badIn, []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "import", "--in", badIn}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import decode error")
	}
}

// TestRunExportPNGCommand verifies behavior for the covered scenario.
func TestRunExportPNGCommand(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "missing.toml")
	inPath := filepath.Join(tmp, "in.json")
	writeTestDocument(t, inPath)

	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "import", "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	outPath := filepath.Join(tmp, "canvas.png")
	if err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath, "export-png", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export-png) error = %v", err)
	}

	file, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Fatalf("expected non-empty png, got bounds %v", img.Bounds())
	}
}

// TestRunConfigAndStoreEnvOverrides verifies behavior for the covered scenario.
func TestRunConfigAndStoreEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "env-store")
	cfgPath := filepath.Join(tmp, "env.toml")
	cfgContent := "[canvas]\npan_step = 2\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("SLAB_CONFIG", cfgPath)
	t.Setenv("SLAB_STORE_DIR", storeDir)

	err := run(context.Background(), []string{"export", "--out", filepath.Join(tmp, "out.json")}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(export with env paths) error = %v", err)
	}
	entries, err := os.ReadDir(storeDir)
	if err != nil {
		t.Fatalf("expected store created at env path, ReadDir error %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected persisted workspace files in %s", storeDir)
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	cfgPath := filepath.Join(tmp, "slab.toml")
	cfgContent := "[logging]\nlevel = \"verbose\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := run(context.Background(), []string{"--store", storeDir, "--config", cfgPath}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected invalid logging level error")
	}
	if !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies TUI runtime logs stay out of stderr and persist to the dev log file.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }

	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "store")
	logDir := filepath.Join(tmp, "logs")
	cfgPath := filepath.Join(tmp, "slab.toml")
	cfgContent := "[logging]\nlevel = \"info\"\n\n[logging.dev_file]\nenabled = true\ndir = " + strconv.Quote(logDir) + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--dev", "--store", storeDir, "--config", cfgPath}, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var logPath string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		logPath = filepath.Join(logDir, entry.Name())
		break
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	logOutput := string(content)
	if !strings.Contains(logOutput, "starting tui program loop") {
		t.Fatalf("expected runtime log file to include TUI lifecycle entries, got %q", logOutput)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("SLAB_BOOL_TEST", "true")
	got, ok := parseBoolEnv("SLAB_BOOL_TEST")
	if !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}

	t.Setenv("SLAB_BOOL_TEST", "not-bool")
	_, ok = parseBoolEnv("SLAB_BOOL_TEST")
	if ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

// TestDevLogFilePathPrefersConfiguredDir verifies dev log paths favor the configured directory.
func TestDevLogFilePathPrefersConfiguredDir(t *testing.T) {
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	got := devLogFilePath("/tmp/custom-logs", "/tmp/fallback-logs", "slab", now)
	if got != filepath.Join("/tmp/custom-logs", "slab-20260222.log") {
		t.Fatalf("unexpected configured dev log path %q", got)
	}

	got = devLogFilePath("  ", "/tmp/fallback-logs", "slab", now)
	if got != filepath.Join("/tmp/fallback-logs", "slab-20260222.log") {
		t.Fatalf("unexpected fallback dev log path %q", got)
	}
}

// TestSanitizeLogFileStem verifies app name normalization for log file names.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"slab":      "slab",
		"my app":    "my-app",
		"a/b\\c:d":  "a-b-c-d",
		"   ":       "slab",
		"///":       "slab",
		" slab-dev": "slab-dev",
	}
	for input, want := range cases {
		if got := sanitizeLogFileStem(input); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", input, got, want)
		}
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies console output can be suppressed while other sinks remain active.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default(t.TempDir()).Logging
	cfg.Level = "info"

	logger, err := newRuntimeLogger(&console, "slab", false, cfg, t.TempDir(), func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") {
		t.Fatalf("expected console log to include 'before', got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include 'after', got %q", out)
	}
}
