package registry

import "fmt"

// Catalog is a process-wide, read-only-after-Build mapping from message name
// to Descriptor (spec §4.2). Unlike the teacher's mutable
// map[string]MessageHandler kept directly on the Router, a Catalog is
// constructed once via Build and never mutated afterward — Design Note
// "Catalog as mutable process-wide map".
type Catalog struct {
	byName map[string]*Descriptor
	order  []string // insertion order, for deterministic attach-driver iteration
}

// Build assembles a Catalog from a list of descriptors, rejecting duplicate
// names. A nil error and non-nil Catalog means every descriptor is valid and
// unique; callers should treat a non-nil error as a fatal startup error.
func Build(descriptors ...*Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d == nil {
			return nil, fmt.Errorf("registry: nil descriptor in catalog")
		}
		if _, exists := c.byName[d.Name]; exists {
			return nil, fmt.Errorf("registry: duplicate message name %q", d.Name)
		}
		c.byName[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return c, nil
}

// MustBuild panics on error; intended for package-level catalog
// construction where a broken catalog must fail the process at init time.
func MustBuild(descriptors ...*Descriptor) *Catalog {
	c, err := Build(descriptors...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the descriptor registered under name, if any.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// All returns every descriptor in deterministic (insertion) order, used by
// the attach driver to bind handlers in a stable, reproducible sequence.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of descriptors in the catalog.
func (c *Catalog) Len() int { return len(c.order) }
