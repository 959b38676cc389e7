package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeExporter struct {
	calls int
	path  string
	err   error
}

func (f *fakeExporter) Export(ctx context.Context) (string, error) {
	f.calls++
	return f.path, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDispatchesCommands(t *testing.T) {
	exp := &fakeExporter{path: "weather_data_20250826_121500.xlsx"}
	var out bytes.Buffer

	loop := New(strings.NewReader("bogus\nexport\nexit\n"), &out, exp, testLogger())

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() err = %v; want nil", err)
	}

	if exp.calls != 1 {
		t.Errorf("exporter called %d times; want 1", exp.calls)
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("output %q missing unknown-command reply", out.String())
	}
	if !strings.Contains(out.String(), "exported to weather_data_20250826_121500.xlsx") {
		t.Errorf("output %q missing export confirmation", out.String())
	}
}

func TestRunExitTerminatesWithoutExport(t *testing.T) {
	exp := &fakeExporter{}
	var out bytes.Buffer

	loop := New(strings.NewReader("exit\nexport\n"), &out, exp, testLogger())

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() err = %v; want nil", err)
	}
	if exp.calls != 0 {
		t.Errorf("exporter called %d times after exit; want 0", exp.calls)
	}
}

func TestRunSurvivesExportFailure(t *testing.T) {
	exp := &fakeExporter{err: errors.New("disk full")}
	var out bytes.Buffer

	loop := New(strings.NewReader("export\nexit\n"), &out, exp, testLogger())

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() err = %v; want nil", err)
	}
	if !strings.Contains(out.String(), "export failed") {
		t.Errorf("output %q missing export failure report", out.String())
	}
}

func TestRunEndOfInputBehavesLikeExit(t *testing.T) {
	loop := New(strings.NewReader(""), io.Discard, &fakeExporter{}, testLogger())

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() err = %v; want nil", err)
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	// A reader that never produces a line keeps the loop blocked until the
	// context is cancelled.
	blocked, w := io.Pipe()
	defer w.Close()

	loop := New(blocked, io.Discard, &fakeExporter{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() err = %v; want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
