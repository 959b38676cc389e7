package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Exporter triggers a spreadsheet export and returns the written file path.
type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// Loop reads operator commands one line at a time. `export` writes a
// spreadsheet, `exit` (or end of input) terminates the loop, anything else
// reports an unknown command. The loop stays usable even when ingestion is
// degraded.
type Loop struct {
	in       io.Reader
	out      io.Writer
	exporter Exporter
	logger   *slog.Logger
}

// New creates a command loop reading from in and replying on out.
func New(in io.Reader, out io.Writer, exporter Exporter, logger *slog.Logger) *Loop {
	return &Loop{
		in:       in,
		out:      out,
		exporter: exporter,
		logger:   logger,
	}
}

// Run blocks until `exit`, end of input, or context cancellation. The
// blocking read runs on its own goroutine so it never stalls the rest of the
// process; a read blocked on an interactive terminal is only reclaimed at
// process exit.
func (l *Loop) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(l.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErr <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("read command input: %w", err)
		case line, ok := <-lines:
			if !ok {
				// End of input behaves like exit.
				return nil
			}
			if done := l.dispatch(ctx, strings.TrimSpace(line)); done {
				return nil
			}
		}
	}
}

// dispatch handles one command line and reports whether the loop should end.
func (l *Loop) dispatch(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case "exit":
		return true
	case "export":
		path, err := l.exporter.Export(ctx)
		if err != nil {
			// Export failures are reported and the loop keeps reading.
			l.logger.Error("export failed", "error", err)
			fmt.Fprintf(l.out, "export failed: %v\n", err)
			return false
		}
		fmt.Fprintf(l.out, "exported to %s\n", path)
		return false
	default:
		fmt.Fprintln(l.out, "unknown command")
		return false
	}
}
