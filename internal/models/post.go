// Package models defines the domain types for wanderlog.
package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Author is the normalised author of a post.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Post is one indexed content record.
//
// Subcategories holds every subcategory name the frontmatter declared, in
// frontmatter order. Subcategory is the first of them, or empty.
type Post struct {
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Date               time.Time `json:"date"`
	Category           string    `json:"category"`
	Subcategory        string    `json:"subcategory,omitempty"`
	Subcategories      []string  `json:"subcategories,omitempty"`
	Tags               []string  `json:"tags"`
	Thumbnail          string    `json:"thumbnail"`
	ReadingTimeMinutes int       `json:"readingTimeMinutes"`
	Author             Author    `json:"author"`
	Featured           bool      `json:"featured"`
	Draft              bool      `json:"-"`
	Content            string    `json:"content,omitempty"`

	// Source bookkeeping, not part of the public shape.
	Root     string `json:"-"`
	Path     string `json:"-"`
	Rel      string `json:"-"`
	Checksum string `json:"-"`
}

// HasSubcategory reports whether name is one of the post's subcategories.
func (p *Post) HasSubcategory(name string) bool {
	for _, s := range p.Subcategories {
		if s == name {
			return true
		}
	}
	return false
}

// HasTag reports whether tag is one of the post's tags (case-sensitive).
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks the fields that page renderers rely on.
func (p *Post) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Slug, validation.Required, validation.Match(slugRe).Error("must be lowercase and URL-safe")),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.ReadingTimeMinutes, validation.Min(1)),
	)
}
