// Package testutil provides the shared integration-test harness: a
// thread-safe log buffer, a programmable fake builder, and a helper that
// writes bake files to a temp directory and runs the app against them.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/bakeplan/internal/app"
	"github.com/vk/bakeplan/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
	Runner    *FakeRunner
}

// RunBake writes the given bake files into a temp directory, builds the app
// around a FakeRunner, and executes a full run. The cfg's Files field is
// filled in with the temp directory unless the test set it explicitly.
func RunBake(t *testing.T, files map[string]string, cfg app.Config, runner *FakeRunner) *HarnessResult {
	t.Helper()
	return RunBakeWithContext(context.Background(), t, files, cfg, runner)
}

// RunBakeWithContext is RunBake with a caller-provided context.
func RunBakeWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, runner *FakeRunner) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	if len(cfg.Files) == 0 {
		cfg.Files = []string{tmpDir}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	if runner == nil {
		runner = &FakeRunner{}
	}

	outBuf := &SafeBuffer{}
	logBuf := &SafeBuffer{}

	bakeApp, err := app.NewApp(outBuf, logBuf, appConfig, hcl.NewLoader(), runner)
	if err != nil {
		return &HarnessResult{
			Output:    outBuf.String(),
			LogOutput: logBuf.String(),
			Err:       err,
			Runner:    runner,
		}
	}

	runErr := bakeApp.Run(ctx)
	return &HarnessResult{
		Output:    outBuf.String(),
		LogOutput: logBuf.String(),
		Err:       runErr,
		App:       bakeApp,
		Runner:    runner,
	}
}
