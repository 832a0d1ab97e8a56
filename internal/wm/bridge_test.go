package wm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	shellerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/testutils"
)

const niriListing = `Window ID 12: (focused)
  Title: "~/src"
  App ID: "foot"
  PID: 4242

Window ID 42:
  Title: "1700000000000"
  App ID: "webwrap"

Window ID 7:
  Title: "Inbox - Mail"
  App ID: "firefox"`

type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, line string) (string, error) {
	f.calls = append(f.calls, line)
	if err, ok := f.errs[line]; ok {
		return "", err
	}
	return f.outputs[line], nil
}

func TestBridge_ListWindows(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{DefaultListCommand: niriListing}}
	bridge := NewBridge(runner, "", "", &testutils.RecordingLogger{})

	blocks, err := bridge.ListWindows(context.Background())
	if err != nil {
		t.Fatalf("ListWindows() error = %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %q", len(blocks), blocks)
	}
	if !HasTitle(blocks[1], "1700000000000") {
		t.Errorf("block order not preserved: %q", blocks[1])
	}
	if len(runner.calls) != 1 || runner.calls[0] != "niri msg windows" {
		t.Errorf("unexpected calls %v", runner.calls)
	}
}

func TestBridge_ListWindowsNotMemoized(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{DefaultListCommand: niriListing}}
	bridge := NewBridge(runner, "", "", &testutils.RecordingLogger{})

	for i := 0; i < 3; i++ {
		if _, err := bridge.ListWindows(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(runner.calls) != 3 {
		t.Errorf("expected a live query per call, got %d calls", len(runner.calls))
	}
}

func TestBridge_ListWindowsPropagatesErrors(t *testing.T) {
	want := shellerrors.New("executor.Run", errors.New("exit status 1"), shellerrors.ErrCodeExecution)
	runner := &fakeRunner{errs: map[string]error{DefaultListCommand: want}}
	bridge := NewBridge(runner, "", "", &testutils.RecordingLogger{})

	_, err := bridge.ListWindows(context.Background())
	if err != want {
		t.Errorf("expected the executor error unchanged, got %v", err)
	}
}

func TestBridge_FocusWindow(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{}}
	bridge := NewBridge(runner, "", "", &testutils.RecordingLogger{})

	if err := bridge.FocusWindow(context.Background(), 42); err != nil {
		t.Fatalf("FocusWindow() error = %v", err)
	}
	want := []string{"niri msg action focus-window --id 42"}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestBridge_FocusWindowPropagatesErrors(t *testing.T) {
	line := "niri msg action focus-window --id 9"
	want := shellerrors.New("executor.Run", errors.New("warning"), shellerrors.ErrCodeDiagnosticOutput)
	runner := &fakeRunner{errs: map[string]error{line: want}}
	bridge := NewBridge(runner, "", "", &testutils.RecordingLogger{})

	if err := bridge.FocusWindow(context.Background(), 9); !shellerrors.IsDiagnosticOutput(err) {
		t.Errorf("expected diagnostic output error, got %v", err)
	}
}

func TestBridge_CustomCommands(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"my-wm list": "Window ID 1:\n  Title: \"x\""}}
	bridge := NewBridge(runner, "my-wm list", "my-wm focus %d", &testutils.RecordingLogger{})

	blocks, err := bridge.ListWindows(context.Background())
	if err != nil || len(blocks) != 1 {
		t.Fatalf("ListWindows() = %v, %v", blocks, err)
	}
	if err := bridge.FocusWindow(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if runner.calls[1] != "my-wm focus 1" {
		t.Errorf("focus call = %q", runner.calls[1])
	}
}

func TestSplitBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty output", "", []string{}},
		{"single block", "Window ID 1:\n  Title: \"a\"", []string{"Window ID 1:\n  Title: \"a\""}},
		{"extra blank lines are dropped", "A\n\n\n\nB\n", []string{"A", "B"}},
		{"whitespace-only separator", "A\n  \nB", []string{"A", "B"}},
		{"crlf output", "A\r\n\r\nB", []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitBlocks(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitBlocks(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRecords(t *testing.T) {
	blocks := append(SplitBlocks(niriListing), "App ID: \"orphan\"", "Window ID 3:\n  Title: (unset)")
	got := ParseRecords(blocks)
	want := []Window{
		{ID: 12, Title: "~/src"},
		{ID: 42, Title: "1700000000000"},
		{ID: 7, Title: "Inbox - Mail"},
		{ID: 3, Title: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRecords() = %+v, want %+v", got, want)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		block  string
		want   int
		wantOK bool
	}{
		{"Window ID 42:\n  Title: \"t\"", 42, true},
		{"Window ID 12: (focused)", 12, true},
		{"Window 42\n  Title: \"t\"", 0, false},
		{"Window ID abc:", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseID(tt.block)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)", tt.block, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHasTitle(t *testing.T) {
	block := "Window ID 5:\n  Title: \"17000000000001\""
	if HasTitle(block, "1700000000000") {
		t.Error("a token prefix must not match a longer title")
	}
	if !HasTitle(block, "17000000000001") {
		t.Error("expected exact quoted title to match")
	}
}

type fakePlatform struct {
	writable bool
	probed   string
}

func (f *fakePlatform) Name() string        { return "fake" }
func (f *fakePlatform) StaysResident() bool { return false }
func (f *fakePlatform) SocketWritable(path string) bool {
	f.probed = path
	return f.writable
}

func TestDetect(t *testing.T) {
	bin := t.TempDir()
	if err := os.WriteFile(filepath.Join(bin, "niri"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("available", func(t *testing.T) {
		t.Setenv("PATH", bin)
		t.Setenv("NIRI_SOCKET", "/run/user/1000/niri.sock")
		api := &fakePlatform{writable: true}

		s := Detect(api)
		if !s.Available() || s.Err() != nil {
			t.Errorf("expected available, got %+v (%v)", s, s.Err())
		}
		if api.probed != "/run/user/1000/niri.sock" {
			t.Errorf("probed %q", api.probed)
		}
	})

	t.Run("no socket", func(t *testing.T) {
		t.Setenv("PATH", bin)
		t.Setenv("NIRI_SOCKET", "")
		api := &fakePlatform{writable: true}

		s := Detect(api)
		if s.Available() || s.Err() == nil {
			t.Errorf("expected unavailable, got %+v", s)
		}
		if api.probed != "" {
			t.Error("socket should not be probed when unset")
		}
	})

	t.Run("socket not writable", func(t *testing.T) {
		t.Setenv("PATH", bin)
		t.Setenv("NIRI_SOCKET", "/tmp/niri.sock")

		s := Detect(&fakePlatform{writable: false})
		if s.Available() {
			t.Error("expected unavailable")
		}
	})

	t.Run("binary missing", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		t.Setenv("NIRI_SOCKET", "/tmp/niri.sock")

		s := Detect(&fakePlatform{writable: true})
		if s.Available() || s.Binary != "" {
			t.Errorf("expected missing binary, got %+v", s)
		}
	})
}
