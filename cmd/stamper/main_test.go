package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/stamper"
)

type testApp struct {
	app
	stdout, stderr *bytes.Buffer
	calls          atomic.Int32
}

func newTestApp(t *testing.T, files ...string) *testApp {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/photos", 0o755))
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, "/photos/"+f, []byte("x"), 0o644))
	}

	ta := &testApp{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ta.app = app{
		stdout: ta.stdout,
		stderr: ta.stderr,
		fs:     fs,
		numCPU: 4,
		runner: stamper.RunnerFunc(func(context.Context, []string) (int, error) {
			ta.calls.Add(1)
			return 0, nil
		}),
	}
	return ta
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		t.Run(arg, func(t *testing.T) {
			a := newTestApp(t)
			require.Equal(t, exitOK, a.run(t.Context(), []string{arg}))
			require.Contains(t, a.stdout.String(), "Usage:")
			require.Contains(t, a.stdout.String(), "--strategy")
			require.Equal(t, int32(0), a.calls.Load())
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "thread count not a number", args: []string{"/photos", "many"}},
		{name: "zero threads", args: []string{"/photos", "0"}},
		{name: "negative threads", args: []string{"/photos", "-2"}},
		{name: "too many arguments", args: []string{"/photos", "2", "extra"}},
		{name: "unknown flag", args: []string{"--fast", "/photos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, "a.jpg")
			require.Equal(t, exitUsage, a.run(t.Context(), tt.args))
			require.Contains(t, a.stderr.String(), "Error:")
			require.Contains(t, a.stderr.String(), "Usage:")
			require.Equal(t, int32(0), a.calls.Load())
		})
	}
}

func TestRun_ProcessesEveryFile(t *testing.T) {
	for _, strategy := range []string{stamper.StrategyPool, stamper.StrategyBatch} {
		t.Run(strategy, func(t *testing.T) {
			a := newTestApp(t, "a.jpg", "b.JPG", "c.jpg", "d.jpg", "e.jpg", "skip.png")
			code := a.run(t.Context(), []string{"--strategy", strategy, "/photos", "2"})
			require.Equal(t, exitOK, code, a.stderr.String())
			require.Equal(t, int32(5), a.calls.Load())
			require.Contains(t, a.stderr.String(), "hardware_concurrency=4")
			require.Contains(t, a.stderr.String(), "threads=2")
			require.Contains(t, a.stderr.String(), "run complete")
		})
	}
}

func TestRun_NoFiles(t *testing.T) {
	a := newTestApp(t, "notes.txt")
	require.Equal(t, exitOK, a.run(t.Context(), []string{"/photos"}))
	require.Contains(t, a.stderr.String(), "No files to process. Exiting.")
	require.Equal(t, int32(0), a.calls.Load())
}

func TestRun_ListingFailure(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, exitFatal, a.run(t.Context(), []string{"/missing", "2"}))
	require.Contains(t, a.stderr.String(), "Cannot get files to timestamp")
}

func TestRun_SpawnFailure(t *testing.T) {
	a := newTestApp(t, "a.jpg", "b.jpg")
	a.runner = stamper.RunnerFunc(func(_ context.Context, argv []string) (int, error) {
		return -1, fmt.Errorf("%w: %s", stamper.ErrSpawnFailed, argv[0])
	})
	require.Equal(t, exitFatal, a.run(t.Context(), []string{"/photos", "2"}))
	require.Contains(t, a.stderr.String(), "run aborted")
}

func TestRun_InvalidConfig(t *testing.T) {
	a := newTestApp(t, "a.jpg")
	require.Equal(t, exitFatal, a.run(t.Context(), []string{"--strategy", "round-robin", "/photos"}))
	require.Contains(t, a.stderr.String(), "invalid configuration")
	require.Equal(t, int32(0), a.calls.Load())
}

func TestRun_WritesMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamper.prom")
	t.Setenv("STAMPER_METRICS_FILE", path)

	a := newTestApp(t, "a.jpg", "b.jpg", "c.jpg")
	require.Equal(t, exitOK, a.run(t.Context(), []string{"/photos", "3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "stamper_tasks_processed_total 3")
}

func TestRun_Interrupted(t *testing.T) {
	a := newTestApp(t, "a.jpg", "b.jpg", "c.jpg")
	ctx, cancel := context.WithCancel(t.Context())
	release := make(chan struct{})
	defer close(release)
	a.runner = stamper.RunnerFunc(func(context.Context, []string) (int, error) {
		if a.calls.Add(1) == 2 {
			cancel()
		}
		<-release
		return 0, nil
	})
	t.Setenv("STAMPER_GRACE_PERIOD", "0s")

	require.Equal(t, exitOK, a.run(ctx, []string{"/photos", "2"}))
	require.Contains(t, a.stderr.String(), "Requesting forced pool shutdown")
	require.Contains(t, a.stderr.String(), "run interrupted")
	require.Equal(t, int32(2), a.calls.Load())
}

func TestPositional(t *testing.T) {
	a := &app{numCPU: 1}
	path, threads, err := a.positional(nil)
	require.NoError(t, err)
	require.Equal(t, ".", path)
	require.Equal(t, 2, threads, "at least two threads by default")

	a.numCPU = 8
	path, threads, err = a.positional([]string{"/data"})
	require.NoError(t, err)
	require.Equal(t, "/data", path)
	require.Equal(t, 8, threads)

	_, threads, err = a.positional([]string{"/data", "3"})
	require.NoError(t, err)
	require.Equal(t, 3, threads)
}
