// Command storyimport converts a legacy story page into a story file.
//
//	storyimport -id flood -o configs/stories/flood.yaml legacy/flood.html
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"narrascroll/pkg/storyimport"
)

func main() {
	id := flag.String("id", "", "Story id (defaults to the input file name)")
	out := flag.String("o", "", "Output file (defaults to stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: storyimport [-id ID] [-o FILE] PAGE.html")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *id, *out, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "storyimport: %v\n", err)
		os.Exit(1)
	}
}

func run(in, id, out string, stdout io.Writer) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if id == "" {
		id = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}

	story, err := storyimport.Extract(f, id)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	if out == "" {
		return storyimport.Write(stdout, story)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := storyimport.Write(w, story); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d segments into %s\n", len(story.Segments), out)
	return nil
}
