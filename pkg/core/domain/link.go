package domain

import (
	"sort"
	"strings"
)

// Link is one outbound link on a user's tree. ID is zero until the server
// has assigned one.
type Link struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

// Persisted reports whether the server has assigned an ID.
func (l Link) Persisted() bool {
	return l.ID != 0
}

// LinkInput holds the user-editable fields of a link.
type LinkInput struct {
	Title    string `json:"title" validate:"required"`
	URL      string `json:"url" validate:"required,http_url"`
	Position int    `json:"position" validate:"min=0"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Normalize trims the text fields in place.
func (in *LinkInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
}

// Active resolves the is_active flag, which defaults to true.
func (in LinkInput) Active() bool {
	return in.IsActive == nil || *in.IsActive
}

// Validate normalizes and checks the input, returning a *ValidationError.
func (in *LinkInput) Validate() error {
	in.Normalize()
	return validateStruct(in)
}

// InputFromLink copies a link's editable fields.
func InputFromLink(l Link) LinkInput {
	active := l.IsActive
	return LinkInput{
		Title:    l.Title,
		URL:      l.URL,
		Position: l.Position,
		IsActive: &active,
	}
}

// SortByPosition orders links by position, keeping the relative order of ties.
func SortByPosition(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Position < links[j].Position
	})
}
