package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"narrascroll/pkg/registry"
)

// StoryCatalog fails when no story could be loaded.
func StoryCatalog(c *registry.Catalog) CheckFunc {
	return func(ctx context.Context) error {
		if c == nil || c.Len() == 0 {
			return errors.New("no stories loaded")
		}
		return nil
	}
}

// Resolver maps a narration url to a local file.
type Resolver interface {
	Resolve(url string) (string, error)
}

// DecodeFunc decodes a narration file and returns its duration.
type DecodeFunc func(path string) (time.Duration, error)

// NarrationAssets resolves and decodes every narration clip of the catalog with at most
// workers decoders running. Missing or undecodable clips are reported together; they do
// not stop a presentation, which skips failing narration on its own.
func NarrationAssets(c *registry.Catalog, res Resolver, decode DecodeFunc, workers int) CheckFunc {
	if workers <= 0 {
		workers = 1
	}
	return func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		var (
			mu       sync.Mutex
			failures []error
		)
		for _, reg := range c.List() {
			for _, seg := range reg.Segments() {
				if !seg.HasNarration() {
					continue
				}
				story := reg.StoryID()
				g.Go(func() error {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					err := checkClip(res, decode, seg.NarrationURL)
					if err != nil {
						mu.Lock()
						failures = append(failures, fmt.Errorf("%s/%s: %w", story, seg.ID, err))
						mu.Unlock()
					}
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return errors.Join(failures...)
	}
}

func checkClip(res Resolver, decode DecodeFunc, url string) error {
	path, err := res.Resolve(url)
	if err != nil {
		return err
	}
	d, err := decode(path)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if d <= 0 {
		return fmt.Errorf("empty clip %s", path)
	}
	return nil
}
