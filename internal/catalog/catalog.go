// Package catalog holds the static reference data the order form renders:
// products, project types, style preferences, sizes, colors and logo
// placements. The data is read-only; the only behavior is lookup by id.
package catalog

import (
	"fmt"
	"os"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Price       string `json:"price,omitempty"`
}

type ProjectType struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

type StylePreference struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Catalog struct {
	Products             []Product           `json:"products"`
	ProjectTypes         []ProjectType       `json:"projectTypes"`
	StylePreferences     []StylePreference   `json:"stylePreferences"`
	Sizes                []string            `json:"sizes"`
	Colors               []Color             `json:"colors"`
	CategoryNames        map[string]string   `json:"categoryNames"`
	PlacementsByCategory map[string][]string `json:"logoPlacementsByCategory"`
	DefaultPlacements    []string            `json:"logoPlacements"`

	productsByID     map[string]*Product
	projectTypesByID map[string]*ProjectType
	stylesByID       map[string]*StylePreference
}

// Load reads and validates the catalog file, then builds the lookup indexes.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Product returns the catalog entry for id, or nil when unknown.
func (c *Catalog) Product(id string) *Product {
	return c.productsByID[id]
}

// ProjectType returns the project type for id, or nil when unknown.
func (c *Catalog) ProjectType(id string) *ProjectType {
	return c.projectTypesByID[id]
}

// ProjectTypeTitle resolves id to its display title, falling back to the
// raw id for unknown types.
func (c *Catalog) ProjectTypeTitle(id string) string {
	if pt := c.projectTypesByID[id]; pt != nil {
		return pt.Title
	}
	return id
}

// StylePreference returns the style preference for id, or nil when unknown.
func (c *Catalog) StylePreference(id string) *StylePreference {
	return c.stylesByID[id]
}

// CategoryName resolves a category id to its display name, falling back
// to the raw id for categories without one.
func (c *Catalog) CategoryName(id string) string {
	if name, ok := c.CategoryNames[id]; ok {
		return name
	}
	return id
}

// LogoPlacements returns the placement options for a product category,
// falling back to the generic list for categories without their own.
func (c *Catalog) LogoPlacements(category string) []string {
	if placements, ok := c.PlacementsByCategory[category]; ok {
		return placements
	}
	return c.DefaultPlacements
}

// HasSize reports whether s is one of the offered sizes.
func (c *Catalog) HasSize(s string) bool {
	for _, size := range c.Sizes {
		if size == s {
			return true
		}
	}
	return false
}

// HasColor reports whether name is one of the offered colors.
func (c *Catalog) HasColor(name string) bool {
	for _, color := range c.Colors {
		if color.Name == name {
			return true
		}
	}
	return false
}

func (c *Catalog) buildIndexes() {
	c.productsByID = make(map[string]*Product, len(c.Products))
	for i := range c.Products {
		c.productsByID[c.Products[i].ID] = &c.Products[i]
	}
	c.projectTypesByID = make(map[string]*ProjectType, len(c.ProjectTypes))
	for i := range c.ProjectTypes {
		c.projectTypesByID[c.ProjectTypes[i].ID] = &c.ProjectTypes[i]
	}
	c.stylesByID = make(map[string]*StylePreference, len(c.StylePreferences))
	for i := range c.StylePreferences {
		c.stylesByID[c.StylePreferences[i].ID] = &c.StylePreferences[i]
	}
}
