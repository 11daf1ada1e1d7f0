package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/csheth/napkin/internal/history"
	"github.com/csheth/napkin/internal/tuitest"
)

func TestNapkinTextPromptDryRun(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	historyPath := filepath.Join(t.TempDir(), "history.json")

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-backend", "dry", "-history", historyPath},
		Dir:     t.TempDir(),
		Steps: []tuitest.Step{
			tuitest.WaitFor("Drop an image or PDF here"),
			tuitest.Type("make it dark mode"),
			{Delay: 200 * time.Millisecond, Input: tuitest.KeyEnter},
			tuitest.WaitFor("history 1"),
			{Input: tuitest.KeyCtrlC},
		},
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if _, ok := rec.Find("Prompt: make it dark mode"); !ok {
		frame, _ := rec.Last()
		t.Fatalf("dry run output missing from screen:\n%s", frame.Text)
	}

	entries, err := history.Load(historyPath)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(entries) != 1 || entries[0].Prompt != "make it dark mode" || entries[0].Backend != "dry run" {
		t.Fatalf("unexpected history: %+v", entries)
	}
}

func TestNapkinDroppedFiles(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	workDir := t.TempDir()
	sketch := filepath.Join(workDir, "sketch.png")
	if err := os.WriteFile(sketch, []byte("\x89PNG\r\n\x1a\nfake"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	notes := filepath.Join(workDir, "notes.txt")
	if err := os.WriteFile(notes, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-backend", "dry", "-history", ""},
		Dir:     workDir,
		Steps: []tuitest.Step{
			tuitest.WaitFor("Drop an image or PDF here"),
			tuitest.Paste(notes),
			tuitest.WaitFor("Cannot attach file"),
			{Input: tuitest.KeyEsc},
			tuitest.Wait(200 * time.Millisecond),
			tuitest.Paste(sketch),
			tuitest.WaitFor("Image: sketch.png"),
			{Input: tuitest.KeyCtrlC},
		},
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if frame, ok := rec.Find(notes); ok {
		t.Fatalf("dropped path should never be typed into the prompt, frame %d:\n%s", frame.Index, frame.Text)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "napkin-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
