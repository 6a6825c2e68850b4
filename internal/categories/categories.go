// Package categories holds the static URL slug <-> display name tables for
// top-level categories and their subcategories.
//
// The tables are hand-maintained. Nothing ties them to the categories that
// posts actually declare; adding a category to content means adding it here.
package categories

import "github.com/starford/wanderlog/internal/apperr"

// FallbackSlug is returned by SlugFor when a display name has no mapping.
const FallbackSlug = "domestic"

// Subcategory is one entry of a category's nested table.
type Subcategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Category is one top-level entry with its subcategories in display order.
type Category struct {
	Slug          string        `json:"slug"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

var table = []Category{
	{
		Slug: "domestic",
		Name: "Domestic",
		Subcategories: []Subcategory{
			{Slug: "hokkaido", Name: "Hokkaido"},
			{Slug: "tohoku", Name: "Tohoku"},
			{Slug: "kanto", Name: "Kanto"},
			{Slug: "chubu", Name: "Chubu"},
			{Slug: "kansai", Name: "Kansai"},
			{Slug: "chugoku", Name: "Chugoku"},
			{Slug: "shikoku", Name: "Shikoku"},
			{Slug: "kyushu", Name: "Kyushu"},
			{Slug: "okinawa", Name: "Okinawa"},
		},
	},
	{
		Slug: "international",
		Name: "International",
		Subcategories: []Subcategory{
			{Slug: "asia", Name: "Asia"},
			{Slug: "europe", Name: "Europe"},
			{Slug: "north-america", Name: "North America"},
			{Slug: "south-america", Name: "South America"},
			{Slug: "oceania", Name: "Oceania"},
			{Slug: "africa", Name: "Africa"},
			{Slug: "middle-east", Name: "Middle East"},
		},
	},
	{
		Slug: "gourmet",
		Name: "Gourmet",
		Subcategories: []Subcategory{
			{Slug: "local-food", Name: "Local Food"},
			{Slug: "cafe", Name: "Cafe"},
			{Slug: "sake", Name: "Sake & Drinks"},
		},
	},
	{
		Slug: "stay",
		Name: "Stay",
		Subcategories: []Subcategory{
			{Slug: "ryokan", Name: "Ryokan"},
			{Slug: "hotel", Name: "Hotel"},
			{Slug: "camping", Name: "Camping"},
		},
	},
	{
		Slug: "guides",
		Name: "Travel Guides",
		Subcategories: []Subcategory{
			{Slug: "budget", Name: "Budget"},
			{Slug: "solo", Name: "Solo Travel"},
			{Slug: "packing", Name: "Packing"},
			{Slug: "rail", Name: "Rail Passes"},
		},
	},
}

var (
	bySlug = make(map[string]*Category, len(table))
	byName = make(map[string]*Category, len(table))
)

func init() {
	for i := range table {
		c := &table[i]
		bySlug[c.Slug] = c
		byName[c.Name] = c
	}
}

// All returns a copy of the category tables in navigation order.
func All() []Category {
	out := make([]Category, len(table))
	for i, c := range table {
		subs := make([]Subcategory, len(c.Subcategories))
		copy(subs, c.Subcategories)
		c.Subcategories = subs
		out[i] = c
	}
	return out
}

// DisplayName returns the display name for a category slug.
func DisplayName(slug string) (string, bool) {
	c, ok := bySlug[slug]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// SlugFor returns the slug for a category display name, or FallbackSlug.
func SlugFor(name string) string {
	if c, ok := byName[name]; ok {
		return c.Slug
	}
	return FallbackSlug
}

// SubcategoryDisplayName returns the display name of subSlug within categorySlug.
func SubcategoryDisplayName(categorySlug, subSlug string) (string, bool) {
	c, ok := bySlug[categorySlug]
	if !ok {
		return "", false
	}
	for _, s := range c.Subcategories {
		if s.Slug == subSlug {
			return s.Name, true
		}
	}
	return "", false
}

// SubcategorySlugFor returns the slug of a subcategory display name within
// the named category, or "" when there is no mapping.
func SubcategorySlugFor(categoryName, subName string) string {
	c, ok := byName[categoryName]
	if !ok {
		return ""
	}
	for _, s := range c.Subcategories {
		if s.Name == subName {
			return s.Slug
		}
	}
	return ""
}

// Filter is a category predicate expressed in display names.
type Filter struct {
	Category    string
	Subcategory string
}

// Resolve translates URL segments into a display-name filter. An empty
// subSlug means "whole category". Unknown slugs yield apperr.ErrUnknownCategory.
func Resolve(categorySlug, subSlug string) (Filter, error) {
	name, ok := DisplayName(categorySlug)
	if !ok {
		return Filter{}, apperr.ErrUnknownCategory
	}
	f := Filter{Category: name}
	if subSlug == "" {
		return f, nil
	}
	sub, ok := SubcategoryDisplayName(categorySlug, subSlug)
	if !ok {
		return Filter{}, apperr.ErrUnknownCategory
	}
	f.Subcategory = sub
	return f, nil
}
