package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"narrascroll/pkg/model"
)

// Catalog holds every story available to the server, keyed by story id.
type Catalog struct {
	stories map[string]*Registry
	desc    map[string]string
}

// NewCatalog builds a catalog from already parsed stories.
func NewCatalog(stories ...*model.Story) (*Catalog, error) {
	c := &Catalog{
		stories: make(map[string]*Registry, len(stories)),
		desc:    make(map[string]string, len(stories)),
	}
	for _, s := range stories {
		if err := c.add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(s *model.Story) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: story without id", ErrInvalidStory)
	}
	if _, dup := c.stories[s.ID]; dup {
		return fmt.Errorf("%w: duplicate story id %q", ErrInvalidStory, s.ID)
	}
	reg, err := New(s)
	if err != nil {
		return err
	}
	c.stories[s.ID] = reg
	c.desc[s.ID] = s.Description
	return nil
}

// LoadDir parses every *.yaml / *.yml story file in dir.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read stories dir: %w", err)
	}

	var stories []*model.Story
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		s, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}

	c, err := NewCatalog(stories...)
	if err != nil {
		return nil, err
	}
	slog.Info("Registry: stories loaded", "dir", dir, "count", c.Len())
	return c, nil
}

// LoadFile parses a single story file. A story without an id takes the file name.
func LoadFile(path string) (*model.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	var s model.Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse story file %s: %w", path, err)
	}
	if s.ID == "" {
		s.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &s, nil
}

// Get returns the registry of a story.
func (c *Catalog) Get(id string) (*Registry, bool) {
	r, ok := c.stories[id]
	return r, ok
}

// Description returns the free-text description of a story.
func (c *Catalog) Description(id string) string {
	return c.desc[id]
}

// List returns all registries sorted by story id.
func (c *Catalog) List() []*Registry {
	out := make([]*Registry, 0, len(c.stories))
	for _, r := range c.stories {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoryID() < out[j].StoryID() })
	return out
}

// Len returns the number of stories.
func (c *Catalog) Len() int { return len(c.stories) }
