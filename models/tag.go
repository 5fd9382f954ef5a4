package models

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTagNameLength bounds a tag's display name
const MaxTagNameLength = 50

// Tag labels posts. Slug is unique and is how tags are looked up; Name keeps
// the spelling of whoever used the tag first.
type Tag struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Slug string    `json:"slug" db:"slug"`
}

// TableName returns the table name for the Tag model
func (Tag) TableName() string {
	return "tags"
}

// NewTag creates a tag named name
func NewTag(name string) *Tag {
	name = strings.TrimSpace(name)
	return &Tag{
		ID:   uuid.New(),
		Name: name,
		Slug: Slugify(name),
	}
}

var (
	slugStrip = regexp.MustCompile(`[^\w\s-]`)
	slugDash  = regexp.MustCompile(`[-\s]+`)
)

// Slugify folds s to lowercase ASCII words joined by hyphens.
// Accents are dropped ("Café" becomes "cafe"); other non-ASCII is removed.
func Slugify(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	folded = slugStrip.ReplaceAllString(strings.ToLower(folded), "")
	folded = slugDash.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-_")
}

// SplitTagList splits a comma-separated tag list, dropping blank entries
func SplitTagList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
