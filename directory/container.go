// Package directory provides the drug catalog and on-duty pharmacy listings
// served alongside the interaction checker. Data lives in atomic pointers so
// file reloads swap it with zero downtime, and a gocron job refreshes it
// twice a day.
package directory

import (
	"sync/atomic"
	"time"

	"github.com/mokokaf/interactions-api/logging"
)

// CatalogEntry is one commercial drug of the national catalog.
type CatalogEntry struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients,omitempty"`
	Form        string   `json:"form,omitempty"`
	Dosage      string   `json:"dosage,omitempty"`
	Laboratory  string   `json:"laboratory,omitempty"`
	PricePublic string   `json:"price_public,omitempty"`
}

// Pharmacy is one on-duty pharmacy listing.
type Pharmacy struct {
	City     string `json:"city"`
	Area     string `json:"area,omitempty"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	District string `json:"district,omitempty"`
	Duty     string `json:"duty,omitempty"`
	Source   string `json:"source,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Container holds the directory data behind atomic pointers.
type Container struct {
	catalog     atomic.Value // []CatalogEntry
	pharmacies  atomic.Value // []Pharmacy
	lastUpdated atomic.Value // time.Time
	updating    atomic.Bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	c := &Container{}
	c.catalog.Store(make([]CatalogEntry, 0))
	c.pharmacies.Store(make([]Pharmacy, 0))
	c.lastUpdated.Store(time.Time{})
	return c
}

// GetCatalog returns the current catalog slice.
func (c *Container) GetCatalog() []CatalogEntry {
	if v := c.catalog.Load(); v != nil {
		if catalog, ok := v.([]CatalogEntry); ok {
			return catalog
		}
	}

	logging.Warn("Catalog is empty or invalid")
	return []CatalogEntry{}
}

// GetPharmacies returns the current pharmacy listings.
func (c *Container) GetPharmacies() []Pharmacy {
	if v := c.pharmacies.Load(); v != nil {
		if pharmacies, ok := v.([]Pharmacy); ok {
			return pharmacies
		}
	}

	logging.Warn("Pharmacy list is empty or invalid")
	return []Pharmacy{}
}

// GetLastUpdated returns the timestamp of the last refresh.
func (c *Container) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}
	return time.Time{}
}

// IsUpdating reports whether a refresh is in progress.
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// UpdateData atomically swaps both datasets.
func (c *Container) UpdateData(catalog []CatalogEntry, pharmacies []Pharmacy) {
	c.catalog.Store(catalog)
	c.pharmacies.Store(pharmacies)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a refresh. Returns false when another
// refresh is already running.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh.
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}
