package stamper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotator_Argv(t *testing.T) {
	a := NewAnnotator(nil)
	argv := a.Argv("/photos/a.jpg")

	require.Len(t, argv, len(DefaultArgs)+1)
	require.Equal(t, DefaultProgram, argv[0])
	require.Equal(t, "/photos/a.jpg", argv[1], "input file")
	require.Equal(t, "/photos/a.jpg", argv[len(argv)-1], "annotated in place")
	require.Contains(t, argv, " %[exif:DateTimeOriginal] ")
	require.NotContains(t, argv, FilePlaceholder)
}

func TestAnnotator_ArgvTemplate(t *testing.T) {
	a := Annotator{Program: "magick", Args: []string{FilePlaceholder, "-resize", "50%", "small-" + FilePlaceholder + ".png"}}
	require.Equal(t,
		[]string{"magick", "a.jpg", "-resize", "50%", "small-a.jpg.png"},
		a.Argv("a.jpg"),
	)
}

func TestNewAnnotator_CopiesDefaultArgs(t *testing.T) {
	a := NewAnnotator(nil)
	a.Args[0] = "changed"
	require.Equal(t, FilePlaceholder, DefaultArgs[0])
}

func TestAnnotator_Task(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		runErr  error
		wantErr error
	}{
		{name: "success", code: 0},
		{name: "non-zero exit status is not an error", code: 1},
		{name: "launch failure", code: -1, runErr: fmt.Errorf("%w: not found", ErrSpawnFailed), wantErr: ErrSpawnFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			runner := RunnerFunc(func(_ context.Context, argv []string) (int, error) {
				got = argv
				return tt.code, tt.runErr
			})
			a := Annotator{Runner: runner, Program: "convert", Args: []string{FilePlaceholder}}

			err := a.Task("/photos/a.jpg")(t.Context())
			require.Equal(t, []string{"convert", "/photos/a.jpg"}, got)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			file, ok := ExtractFile(err)
			require.True(t, ok)
			require.Equal(t, "/photos/a.jpg", file)
		})
	}
}

func TestAnnotator_Tasks(t *testing.T) {
	var calls []string
	runner := RunnerFunc(func(_ context.Context, argv []string) (int, error) {
		calls = append(calls, argv[1])
		return 0, nil
	})
	a := Annotator{Runner: runner, Program: "convert", Args: []string{FilePlaceholder}}

	tasks := a.Tasks([]string{"a.jpg", "b.jpg", "c.jpg"})
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.NoError(t, task(t.Context()))
	}
	require.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, calls)
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	r := NewExecRunner()

	code, err := r.Run(t.Context(), nil)
	require.ErrorIs(t, err, ErrSpawnFailed)
	require.Equal(t, -1, code)

	code, err = r.Run(t.Context(), []string{"stamper-test-no-such-program"})
	require.ErrorIs(t, err, ErrSpawnFailed)
	require.Equal(t, -1, code)
}

func TestExecRunner_ExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var stdout bytes.Buffer
	r := NewExecRunner()
	r.Stdout = &stdout

	code, err := r.Run(t.Context(), []string{"sh", "-c", "echo stamped"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "stamped\n", stdout.String())

	code, err = r.Run(t.Context(), []string{"sh", "-c", "exit 3"})
	require.NoError(t, err, "a non-zero exit status is not a launch failure")
	require.Equal(t, 3, code)
}

func TestExecRunner_ZeroValue(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	var r ExecRunner
	code, err := r.Run(t.Context(), []string{"true"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestExecRunner_CancelledContext(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	code, err := NewExecRunner().Run(ctx, []string{"true"})
	require.Equal(t, -1, code)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, errors.Is(err, ErrSpawnFailed), "a cancelled run is not a launch failure")
}
