package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/bakeplan/internal/ctxlog"
)

// ExecRunner drives builds by shelling out to the docker CLI.
type ExecRunner struct {
	docker string
	stdout io.Writer
	stderr io.Writer
}

// NewExecRunner locates the docker binary and returns a runner that streams
// build output to the given writers.
func NewExecRunner(stdout, stderr io.Writer) (*ExecRunner, error) {
	docker, err := exec.LookPath("docker")
	if err != nil {
		return nil, fmt.Errorf("docker binary not found in PATH: %w", err)
	}
	return &ExecRunner{docker: docker, stdout: stdout, stderr: stderr}, nil
}

// Build runs `docker buildx build` for the invocation and reports the built
// image ID via an iidfile.
func (r *ExecRunner) Build(ctx context.Context, inv Invocation) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("target", inv.Target)

	iidFile, err := os.CreateTemp("", "bakeplan-iid-*")
	if err != nil {
		return Result{}, err
	}
	iidPath := iidFile.Name()
	iidFile.Close()
	defer os.Remove(iidPath)

	args := BuildArgs(inv, iidPath)
	logger.Debug("Invoking external builder.", "argv", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.docker, args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("docker buildx build exited with an error: %w", err)
	}

	id, err := os.ReadFile(iidPath)
	if err != nil {
		// The build succeeded; a missing iidfile only costs us the ID.
		logger.Warn("Could not read image ID file.", "error", err)
		return Result{}, nil
	}
	return Result{ImageID: strings.TrimSpace(string(id))}, nil
}

// BuildArgs assembles the docker CLI argument list for an invocation. The
// ordering is deterministic so plans diff cleanly between runs.
func BuildArgs(inv Invocation, iidPath string) []string {
	args := []string{"buildx", "build"}

	dockerfile := inv.Dockerfile
	if !filepath.IsAbs(dockerfile) {
		dockerfile = filepath.Join(inv.Context, dockerfile)
	}
	args = append(args, "--file", dockerfile)

	for _, tag := range inv.Tags {
		args = append(args, "--tag", tag)
	}
	for _, key := range sortedKeys(inv.Args) {
		args = append(args, "--build-arg", key+"="+inv.Args[key])
	}
	for _, key := range sortedKeys(inv.Labels) {
		args = append(args, "--label", key+"="+inv.Labels[key])
	}
	if len(inv.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(inv.Platforms, ","))
	}
	for _, spec := range inv.CacheFrom {
		args = append(args, "--cache-from", spec)
	}
	for _, spec := range inv.CacheTo {
		args = append(args, "--cache-to", spec)
	}
	if inv.Stage != "" {
		args = append(args, "--target", inv.Stage)
	}
	if inv.NoCache {
		args = append(args, "--no-cache")
	}
	if inv.Push {
		args = append(args, "--push")
	}
	if iidPath != "" {
		args = append(args, "--iidfile", iidPath)
	}

	return append(args, inv.Context)
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
