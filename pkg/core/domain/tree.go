package domain

// Tree is a user's public page (link-in-bio). The API does not serve avatar
// or description fields yet, so they are not modelled.
type Tree struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Links    []Link `json:"links"`
}

// ActiveLinks returns the links a visitor should see, in display order.
func (t *Tree) ActiveLinks() []Link {
	links := make([]Link, 0, len(t.Links))
	for _, l := range t.Links {
		if l.IsActive {
			links = append(links, l)
		}
	}
	SortByPosition(links)
	return links
}
