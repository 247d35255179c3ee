package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ErrArtifactNotFound is returned when no <Name>.json exists under the artifacts dir.
var ErrArtifactNotFound = errors.New("artifact not found")

// Contract names the suite deployment needs.
const (
	Identity                = "Identity"
	ImplementationAuthority = "ImplementationAuthority"
	IdentityProxy           = "IdentityProxy"
	ClaimTopicsRegistry     = "ClaimTopicsRegistry"
	ClaimIssuersRegistry    = "ClaimIssuersRegistry"
	IdentityRegistryStorage = "IdentityRegistryStorage"
	IdentityRegistry        = "IdentityRegistry"
	BasicCompliance         = "BasicCompliance"
	Token                   = "Token"
	ClaimIssuer             = "ClaimIssuer"
)

// Required lists every artifact a suite deployment loads.
var Required = []string{
	Identity, ImplementationAuthority, IdentityProxy,
	ClaimTopicsRegistry, ClaimIssuersRegistry, IdentityRegistryStorage,
	IdentityRegistry, BasicCompliance, Token, ClaimIssuer,
}

// Catalog holds the artifacts loaded from one directory.
type Catalog struct {
	dir      string
	byName   map[string]*Artifact
	shadowed map[string][]string
}

// Find walks dir for <name>.json, skipping Hardhat .dbg.json companions.
// When several files match, the first in lexical walk order wins.
func Find(dir, name string) (string, error) {
	idx, err := index(dir)
	if err != nil {
		return "", err
	}
	paths := idx[name]
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: %s (searched %s)", ErrArtifactNotFound, name, dir)
	}
	return paths[0], nil
}

func index(dir string) (map[string][]string, error) {
	idx := make(map[string][]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		base := d.Name()
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".dbg.json") {
			return nil
		}
		name := strings.TrimSuffix(base, ".json")
		idx[name] = append(idx[name], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning artifacts dir %s: %w", dir, err)
	}
	return idx, nil
}

// LoadCatalog loads the named artifacts (Required when none are given) from
// dir. Every missing name is reported in a single error.
func LoadCatalog(dir string, names ...string) (*Catalog, error) {
	if len(names) == 0 {
		names = Required
	}
	idx, err := index(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dir:      dir,
		byName:   make(map[string]*Artifact, len(names)),
		shadowed: make(map[string][]string),
	}
	var missing []string
	for _, name := range names {
		paths := idx[name]
		if len(paths) == 0 {
			missing = append(missing, name)
			continue
		}
		a, err := Load(paths[0])
		if err != nil {
			return nil, err
		}
		a.Name = name
		c.byName[name] = a
		if len(paths) > 1 {
			c.shadowed[name] = paths[1:]
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrArtifactNotFound, dir, strings.Join(missing, ", "))
	}
	return c, nil
}

// Dir returns the directory the catalog was loaded from.
func (c *Catalog) Dir() string { return c.dir }

// Get returns a loaded artifact by name.
func (c *Catalog) Get(name string) (*Artifact, error) {
	a, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return a, nil
}

// Shadowed maps each loaded name that matched several files to the paths
// that were not used. The loaded one is Get(name).Path.
func (c *Catalog) Shadowed() map[string][]string {
	out := make(map[string][]string, len(c.shadowed))
	for name, paths := range c.shadowed {
		out[name] = append([]string(nil), paths...)
	}
	return out
}

// All returns the loaded artifacts sorted by name.
func (c *Catalog) All() []*Artifact {
	out := make([]*Artifact, 0, len(c.byName))
	for _, a := range c.byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
