// Package msgcat holds the coaching texts as text/template sources keyed by
// dotted path, e.g. "tactic.fork".
package msgcat

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded []byte

var ErrTemplateNotFound = errors.New("template not found")

// Catalog is immutable once built. Every template is compiled up front so a
// broken override fails at startup; missing data keys fail at render time.
type Catalog struct {
	templates map[string]*template.Template
}

// New builds a catalog from the embedded messages plus any *.yaml/*.yml
// files in overrideDir. Override files may replace embedded keys but not
// each other's.
func New(overrideDir string) (*Catalog, error) {
	src, err := flatten(embedded)
	if err != nil {
		return nil, fmt.Errorf("embedded messages: %w", err)
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		overrides, err := readOverrides(dir)
		if err != nil {
			return nil, err
		}
		for k, v := range overrides {
			src[k] = v
		}
	}
	return compile(src)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded-only catalog. It panics if the embedded file
// is broken, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New("")
		if err != nil {
			panic(fmt.Sprintf("msgcat: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

func compile(src map[string]string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template, len(src))}
	for key, text := range src {
		if strings.TrimSpace(text) == "" {
			continue
		}
		t, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		c.templates[key] = t
	}
	return c, nil
}

func readOverrides(dir string) (map[string]string, error) {
	names, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	origin := make(map[string]string)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := flatten(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, v := range flat {
			if prev, dup := origin[k]; dup {
				return nil, fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			origin[k] = name
			out[k] = v
		}
	}
	return out, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read message dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// flatten turns nested YAML mappings into dotted keys. Leaves must be
// strings.
func flatten(raw []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	var walk func(prefix string, node any) error
	walk = func(prefix string, node any) error {
		switch v := node.(type) {
		case map[string]any:
			for k, child := range v {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				if err := walk(key, child); err != nil {
					return err
				}
			}
		case string:
			if prefix == "" {
				return errors.New("string value without key")
			}
			out[prefix] = v
		case nil:
		default:
			return fmt.Errorf("%s: want string, got %T", prefix, v)
		}
		return nil
	}
	if err := walk("", root); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.templates[strings.TrimSpace(key)]
	return ok
}

// Keys lists every defined key in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render executes the template for key and trims surrounding space.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	t, ok := c.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return strings.TrimSpace(b.String()), nil
}
