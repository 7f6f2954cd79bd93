package catalog

import (
	"slices"
	"sync"
)

// Matcher selects catalog entries for a status update.
type Matcher func(Integration) bool

// ByProvider matches every entry backed by the given provider.
func ByProvider(p Provider) Matcher {
	return func(i Integration) bool { return i.Provider == p }
}

// ByName matches entries whose display name equals name exactly.
func ByName(name string) Matcher {
	return func(i Integration) bool { return i.Name == name }
}

// ByID matches the entry with the given ID.
func ByID(id string) Matcher {
	return func(i Integration) bool { return i.ID == id }
}

// Catalog is an in-memory, ordered registry of integrations.
// It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	seed  []Integration
	items []Integration
}

// New creates a catalog from seed, preserving its order.
// Connected is normalized from Status for every seed entry.
func New(seed []Integration) *Catalog {
	normalized := make([]Integration, len(seed))
	for i, item := range seed {
		if !item.Status.Valid() {
			item.Status = StatusDisconnected
		}
		item.Connected = item.Status == StatusActive
		normalized[i] = item
	}
	return &Catalog{
		seed:  normalized,
		items: slices.Clone(normalized),
	}
}

// Default creates a catalog seeded with DefaultIntegrations.
func Default() *Catalog {
	return New(DefaultIntegrations())
}

// List returns a copy of all integrations in registration order.
func (c *Catalog) List() []Integration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// FindByID returns the integration with the given ID.
func (c *Catalog) FindByID(id string) (Integration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return Integration{}, false
}

// UpdateStatus applies status to every entry selected by match and returns the
// number of entries updated. Zero matches is not an error.
func (c *Catalog) UpdateStatus(match Matcher, status Status) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for i := range c.items {
		if !match(c.items[i]) {
			continue
		}
		c.items[i].Status = status
		c.items[i].Connected = status == StatusActive
		n++
	}
	return n
}

// Reset restores every entry to its seed state.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(c.seed)
}
