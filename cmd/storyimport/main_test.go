package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrascroll/pkg/registry"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "quake.html")
	page := `<title>The Quake</title><section data-segment="hero" data-narration="hero.mp3"></section><section data-segment="aftermath"></section>`
	if err := os.WriteFile(in, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "stories", "quake.yaml")
	var stdout bytes.Buffer
	if err := run(in, "", out, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Imported 2 segments") {
		t.Errorf("unexpected output: %q", stdout.String())
	}

	// The written file loads as a story.
	story, err := registry.LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if story.ID != "quake" || len(story.Segments) != 2 || story.Segments[0].NarrationURL != "hero.mp3" {
		t.Errorf("unexpected story: %+v", story)
	}
}

func TestRun_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	if err := os.WriteFile(in, []byte(`<div data-segment="only"></div>`), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(in, "custom", "", &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "id: custom\n") {
		t.Errorf("unexpected output: %q", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.html")
	if err := os.WriteFile(empty, []byte(`<p>no segments</p>`), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(filepath.Join(dir, "missing.html"), "", "", &stdout); err == nil {
		t.Error("expected error for missing input")
	}
	if err := run(empty, "", "", &stdout); err == nil {
		t.Error("expected error for page without segments")
	}
}
