// Package parser turns a content file into a normalised post record.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/wanderlog/internal/checksum"
	"github.com/starford/wanderlog/internal/content"
	"github.com/starford/wanderlog/internal/models"
)

// Defaults applied to optional frontmatter fields.
const (
	DefaultThumbnail   = "/images/placeholder.jpg"
	DefaultAuthorName  = "Wanderlog Editorial"
	DefaultReadingTime = 5
)

// Discard reasons.
const (
	DiscardUntitled = "untitled"
	DiscardDraft    = "draft"
)

// yamlFormat delimits frontmatter with --- fences and decodes it with yaml.v3.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Defaults holds the values used for absent optional fields.
type Defaults struct {
	Thumbnail   string
	AuthorName  string
	ReadingTime int
}

// DefaultDefaults returns the built-in field defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Thumbnail:   DefaultThumbnail,
		AuthorName:  DefaultAuthorName,
		ReadingTime: DefaultReadingTime,
	}
}

func (d Defaults) withFallbacks() Defaults {
	if d.Thumbnail == "" {
		d.Thumbnail = DefaultThumbnail
	}
	if d.AuthorName == "" {
		d.AuthorName = DefaultAuthorName
	}
	if d.ReadingTime <= 0 {
		d.ReadingTime = DefaultReadingTime
	}
	return d
}

// ParseError reports a file whose frontmatter could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the outcome of parsing one file.
//
// When Discarded is non-empty the file parsed cleanly but is not a listable
// record; Post is nil in that case.
type Result struct {
	Post      *models.Post
	Body      string
	Discarded string
}

// fields is the fixed set of frontmatter keys a post may carry.
type fields struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Slug        string      `yaml:"slug"`
	Date        dateField   `yaml:"date"`
	Category    string      `yaml:"category"`
	Subcategory stringList  `yaml:"subcategory"`
	Tags        stringList  `yaml:"tags"`
	Thumbnail   string      `yaml:"thumbnail"`
	ReadingTime *int        `yaml:"readingTime"`
	Author      authorField `yaml:"author"`
	Featured    bool        `yaml:"featured"`
	Draft       bool        `yaml:"draft"`
}

var (
	utf8BOM         = []byte("\xef\xbb\xbf")
	errUnterminated = errors.New("unterminated frontmatter")
)

// opensFence reports whether the first non-blank line of data is a "---"
// delimiter, the same rule the frontmatter reader applies.
func opensFence(data []byte) bool {
	for len(data) > 0 {
		var line []byte
		line, data, _ = bytes.Cut(data, []byte("\n"))
		if l := bytes.TrimSpace(line); len(l) > 0 {
			return string(l) == "---"
		}
	}
	return false
}

// Parse splits data into frontmatter and body and builds the post record.
func Parse(file content.File, data []byte, defaults Defaults) (*Result, error) {
	d := defaults.withFallbacks()

	data = bytes.TrimPrefix(data, utf8BOM)

	var fm fields
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, yamlFormat)
	if err != nil {
		return nil, &ParseError{Path: file.Rel, Err: err}
	}
	if opensFence(data) && len(body) == len(data) {
		return nil, &ParseError{Path: file.Rel, Err: errUnterminated}
	}

	res := &Result{Body: strings.TrimLeft(string(body), "\r\n")}

	title := strings.TrimSpace(fm.Title)
	switch {
	case fm.Draft:
		res.Discarded = DiscardDraft
		return res, nil
	case title == "":
		res.Discarded = DiscardUntitled
		return res, nil
	}

	p := &models.Post{
		Slug:               fm.Slug,
		Title:              title,
		Description:        fm.Description,
		Date:               fm.Date.Time,
		Category:           fm.Category,
		Subcategories:      []string(fm.Subcategory),
		Tags:               []string(fm.Tags),
		Thumbnail:          fm.Thumbnail,
		ReadingTimeMinutes: d.ReadingTime,
		Author:             models.Author(fm.Author),
		Featured:           fm.Featured,
		Root:               file.Root,
		Path:               file.Path,
		Rel:                file.Rel,
		Checksum:           checksum.Sum(data),
	}
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = DeriveSlug(file.Rel)
	}
	if fm.Date.IsZero() {
		p.Date = file.ModTime.UTC()
	}
	if len(p.Subcategories) > 0 {
		p.Subcategory = p.Subcategories[0]
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Thumbnail == "" {
		p.Thumbnail = d.Thumbnail
	}
	if fm.ReadingTime != nil {
		p.ReadingTimeMinutes = *fm.ReadingTime
	}
	if p.Author.Name == "" {
		p.Author.Name = d.AuthorName
	}

	res.Post = p
	return res, nil
}

// DeriveSlug computes the slug of a file from its slash-separated path
// relative to its content root:
//
//	tokyo-solo.mdx                 -> tokyo-solo
//	kanto/tokyo-solo.mdx           -> kanto-tokyo-solo
//	domestic/kanto/tokyo-solo.mdx  -> kanto-tokyo-solo
func DeriveSlug(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	var segs []string
	for _, s := range strings.Split(rel, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	if len(segs) > 2 {
		segs = segs[len(segs)-2:]
	}
	return strings.Join(segs, "-")
}

// stringList accepts either a single string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" || n.Value == "" {
			*s = nil
			return nil
		}
		*s = stringList{n.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
	}
}

// authorField accepts either a bare name or a {name, avatar} mapping.
type authorField models.Author

func (a *authorField) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		*a = authorField{Name: strings.TrimSpace(n.Value)}
		return nil
	case yaml.MappingNode:
		var m struct {
			Name   string `yaml:"name"`
			Avatar string `yaml:"avatar"`
		}
		if err := n.Decode(&m); err != nil {
			return err
		}
		*a = authorField{Name: strings.TrimSpace(m.Name), Avatar: m.Avatar}
		return nil
	default:
		return fmt.Errorf("line %d: author must be a name or a mapping", n.Line)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// dateField parses the common ISO-8601 shapes found in frontmatter.
type dateField struct {
	time.Time
}

func (d *dateField) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", n.Line)
	}
	v := strings.TrimSpace(n.Value)
	if v == "" || n.ShortTag() == "!!null" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognised date %q", n.Line, v)
}
