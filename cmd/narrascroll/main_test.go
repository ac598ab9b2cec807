package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testStory = `id: flood
title: The Flood
segments:
  - id: hero
    order: 0
    year: "1927"
  - id: impact
    order: 1
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	storiesDir := filepath.Join(dir, "stories")
	if err := os.MkdirAll(storiesDir, 0o755); err != nil {
		t.Fatalf("Failed to create stories dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(storiesDir, "flood.yaml"), []byte(testStory), 0o644); err != nil {
		t.Fatalf("Failed to write story: %v", err)
	}

	tempConfig := `
server:
    address: localhost:0  # 0 lets OS choose free port
log:
    server:
        path: "DIR/logs/server.log"
        level: "debug"
    requests:
        path: "DIR/logs/requests.log"
        level: "info"
    events:
        path: "DIR/logs/events.log"
db:
    path: "DIR/data/test.db"
stories:
    dir: "DIR/stories"
    media_root: "DIR/media"
`
	cfgPath := filepath.Join(dir, "narrascroll.yaml")
	if err := os.WriteFile(cfgPath, []byte(strings.ReplaceAll(tempConfig, "DIR", filepath.ToSlash(dir))), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Cancel quickly to verify the startup sequence.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}

func TestRun_NoStories(t *testing.T) {
	dir := t.TempDir()
	cfg := strings.ReplaceAll(`
server:
    address: localhost:0
log:
    server:
        path: "DIR/server.log"
    requests:
        path: "DIR/requests.log"
    events:
        path: "DIR/events.log"
db:
    path: "DIR/test.db"
stories:
    dir: "DIR/empty"
`, "DIR", filepath.ToSlash(dir))
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "narrascroll.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(context.Background(), cfgPath); err == nil {
		t.Fatal("expected startup to fail without stories")
	}
}
