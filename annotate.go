package stamper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ygrebnov/errorc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FilePlaceholder is replaced by the file path in every argument of an Annotator template.
const FilePlaceholder = "{file}"

// DefaultProgram and DefaultArgs stamp the EXIF capture time in the bottom-right
// corner of an image, in place, with ImageMagick.
var (
	DefaultProgram = "convert"
	DefaultArgs    = []string{
		FilePlaceholder,
		"-font", "courier-bold", "-pointsize", "36",
		"-fill", "white",
		"-undercolor", "black", "-gravity", "SouthEast",
		"-quality", "100",
		"-annotate", "+20+20", " %[exif:DateTimeOriginal] ",
		FilePlaceholder,
	}
)

// Runner launches an external process and waits for it.
// Run returns the process exit status. The error is non-nil only when the
// process could not be run at all; launch failures wrap ErrSpawnFailed.
type Runner interface {
	Run(ctx context.Context, argv []string) (int, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, argv []string) (int, error)

func (f RunnerFunc) Run(ctx context.Context, argv []string) (int, error) { return f(ctx, argv) }

// ExecRunner runs processes with os/exec. Output is not captured: it goes to
// Stdout/Stderr, the parent's streams by default. Each run is traced.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	tracer trace.Tracer
}

// NewExecRunner creates an ExecRunner writing to the parent's stdout and stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		tracer: otel.Tracer("github.com/ygrebnov/stamper"),
	}
}

// Run starts argv[0] with the remaining arguments and waits for it to exit.
// Cancelling ctx kills the process. A ctx already done when the process would
// start yields an error wrapping ctx.Err(), not ErrSpawnFailed.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, errorc.With(ErrSpawnFailed, errorc.String("argv", "empty command line"))
	}
	tracer := r.tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/ygrebnov/stamper")
	}

	ctx, span := tracer.Start(ctx, "runner.Run",
		trace.WithAttributes(
			attribute.String("process.executable.name", argv[0]),
			attribute.StringSlice("process.command_args", argv[1:]),
		))
	defer span.End()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Start(); err != nil {
		span.RecordError(err)
		// a done context is not a launch failure: the run must not be aborted for it
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled before launch")
			return -1, fmt.Errorf("running %s: %w", argv[0], err)
		}
		span.SetStatus(codes.Error, "process launch failed")
		return -1, fmt.Errorf("%w: %w", errorc.With(ErrSpawnFailed, errorc.String("program", argv[0])), err)
	}

	err := cmd.Wait()
	code := cmd.ProcessState.ExitCode()
	span.SetAttributes(attribute.Int("process.exit.code", code))

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "process wait failed")
		return code, fmt.Errorf("waiting for %s: %w", argv[0], err)
	}
	if code != 0 {
		span.SetStatus(codes.Error, "non-zero exit status")
	}
	return code, nil
}

// Annotator builds one Task per file from a program and an argument template.
type Annotator struct {
	Runner  Runner
	Program string
	// Args is the argument template; FilePlaceholder occurrences are replaced by the file path.
	Args []string
}

// NewAnnotator returns an Annotator running the default ImageMagick template with r.
func NewAnnotator(r Runner) Annotator {
	return Annotator{Runner: r, Program: DefaultProgram, Args: append([]string(nil), DefaultArgs...)}
}

// Argv returns the full command line used for file.
func (a Annotator) Argv(file string) []string {
	argv := make([]string, 0, len(a.Args)+1)
	argv = append(argv, a.Program)
	for _, arg := range a.Args {
		argv = append(argv, strings.ReplaceAll(arg, FilePlaceholder, file))
	}
	return argv
}

// Task returns the Task annotating file. A non-zero exit status is not an
// error: the file counts as done. Only launch failures are reported, tagged
// with the file (see ExtractFile).
func (a Annotator) Task(file string) Task {
	return func(ctx context.Context) error {
		_, err := a.Runner.Run(ctx, a.Argv(file))
		return newTaskFileError(err, file)
	}
}

// Tasks returns one Task per file, in order.
func (a Annotator) Tasks(files []string) []Task {
	tasks := make([]Task, 0, len(files))
	for _, f := range files {
		tasks = append(tasks, a.Task(f))
	}
	return tasks
}
