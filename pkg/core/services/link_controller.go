package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

// LinkController owns the signed-in user's ordered link collection and
// applies changes optimistically: the local list changes first, the API call
// follows, and a failed call rolls the local change back.
//
// The mutex only guards local state and is never held across an API call.
// Mutual exclusion per link comes from the in-flight set: a link with a
// pending change rejects further changes until the first one settles.
type LinkController struct {
	api   ports.LinkAPI
	store ports.SessionStore

	mu         sync.Mutex
	entries    []entry
	inFlight   map[int64]struct{}
	pending    int
	refreshing bool
	ended      bool
	closed     bool
}

// entry is one row of the collection. Provisional rows have no server ID
// yet and are addressed by their local key.
type entry struct {
	local string
	link  domain.Link
}

func NewLinkController(api ports.LinkAPI, store ports.SessionStore) *LinkController {
	return &LinkController{
		api:      api,
		store:    store,
		inFlight: make(map[int64]struct{}),
	}
}

// Links returns a copy of the collection in display order.
func (c *LinkController) Links() []domain.Link {
	c.mu.Lock()
	defer c.mu.Unlock()

	links := make([]domain.Link, len(c.entries))
	for i, e := range c.entries {
		links[i] = e.link
	}
	return links
}

// Pending reports whether any change is waiting on the API.
func (c *LinkController) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Refresh replaces the collection with the server's list.
func (c *LinkController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.pending > 0 {
		c.mu.Unlock()
		return domain.ErrRefreshBlocked
	}
	if c.refreshing {
		c.mu.Unlock()
		return domain.ErrRefreshInFlight
	}
	user, ok := c.store.GetUser()
	if !ok {
		c.mu.Unlock()
		return domain.ErrNoSession
	}
	c.refreshing = true
	c.mu.Unlock()

	links, err := c.api.ListLinks(ctx, user.Username)

	c.mu.Lock()
	c.refreshing = false
	if err == nil && !c.closed && !c.ended {
		c.entries = make([]entry, len(links))
		for i, l := range links {
			c.entries[i] = entry{link: l}
		}
	}
	c.mu.Unlock()

	return c.settle(ctx, err)
}

// Create appends a provisional link at the end of the collection and
// replaces it with the server's copy once the API accepts it.
func (c *LinkController) Create(ctx context.Context, input domain.LinkInput) (domain.Link, error) {
	if err := input.Validate(); err != nil {
		return domain.Link{}, err
	}

	c.mu.Lock()
	if err := c.beginMutation(); err != nil {
		c.mu.Unlock()
		return domain.Link{}, err
	}
	local := uuid.NewString()
	provisional := domain.Link{
		Title:    input.Title,
		URL:      input.URL,
		Position: len(c.entries),
		IsActive: input.Active(),
	}
	input.Position = provisional.Position
	c.entries = append(c.entries, entry{local: local, link: provisional})
	c.mu.Unlock()

	created, err := c.api.CreateLink(ctx, input)

	c.mu.Lock()
	c.pending--
	idx := c.indexOfLocal(local)
	if err != nil {
		if idx >= 0 {
			c.removeAt(idx)
			c.renumberFrom(idx)
		}
		c.mu.Unlock()
		log.Info().Err(err).Str("title", input.Title).Msg("create link rolled back")
		return domain.Link{}, c.settle(ctx, err)
	}
	if idx >= 0 {
		if c.indexOfID(created.ID) >= 0 {
			// Already listed under its server ID, drop the placeholder.
			c.removeAt(idx)
		} else {
			c.entries[idx] = entry{link: *created}
		}
	}
	c.mu.Unlock()

	return *created, nil
}

// Update applies the edited fields at once and restores the previous
// values if the API rejects them.
func (c *LinkController) Update(ctx context.Context, id int64, input domain.LinkInput) (domain.Link, error) {
	if err := input.Validate(); err != nil {
		return domain.Link{}, err
	}

	c.mu.Lock()
	idx, err := c.claim(id)
	if err != nil {
		c.mu.Unlock()
		return domain.Link{}, err
	}
	snapshot := c.entries[idx].link
	edited := snapshot
	edited.Title = input.Title
	edited.URL = input.URL
	edited.IsActive = input.Active()
	c.entries[idx].link = edited
	input.Position = snapshot.Position
	c.mu.Unlock()

	updated, err := c.api.UpdateLink(ctx, id, input)

	c.mu.Lock()
	c.release(id)
	idx = c.indexOfID(id)
	if err != nil {
		if idx >= 0 {
			c.entries[idx].link = snapshot
		}
		c.mu.Unlock()
		log.Info().Err(err).Int64("id", id).Msg("update link rolled back")
		return domain.Link{}, c.settle(ctx, err)
	}
	if idx >= 0 {
		c.entries[idx].link = *updated
	}
	c.mu.Unlock()

	return *updated, nil
}

// Delete removes the link at once and puts it back at its old index if the
// API refuses. Siblings are renumbered only once the delete is committed.
func (c *LinkController) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	idx, err := c.claim(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	removed := c.entries[idx]
	c.removeAt(idx)
	c.mu.Unlock()

	err = c.api.DeleteLink(ctx, id)

	c.mu.Lock()
	c.release(id)
	switch {
	case err == nil:
		if c.usable() == nil {
			c.renumberFrom(idx)
		}
	case c.usable() == nil && c.indexOfID(id) < 0:
		c.insertAt(idx, removed)
	}
	c.mu.Unlock()

	if err != nil {
		log.Info().Err(err).Int64("id", id).Msg("delete link rolled back")
	}
	return c.settle(ctx, err)
}

// Close detaches the controller from its view. Calls still in flight
// complete without touching any state.
func (c *LinkController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
}

// settle ends the controller when the API rejected the session.
func (c *LinkController) settle(ctx context.Context, err error) error {
	if err == nil || !domain.IsAuth(err) {
		return err
	}

	c.mu.Lock()
	already := c.ended
	c.ended = true
	c.entries = nil
	c.mu.Unlock()

	if !already {
		log.Warn().Err(err).Msg("session rejected by API, signing out")
		c.store.ClearSession(ctx)
	}
	return err
}

// The helpers below expect c.mu to be held.

func (c *LinkController) usable() error {
	if c.closed || c.ended {
		return domain.ErrSessionEnded
	}
	return nil
}

func (c *LinkController) beginMutation() error {
	if err := c.usable(); err != nil {
		return err
	}
	if c.refreshing {
		return domain.ErrRefreshInFlight
	}
	c.pending++
	return nil
}

// claim marks id as in flight and returns its index.
func (c *LinkController) claim(id int64) (int, error) {
	if err := c.usable(); err != nil {
		return -1, err
	}
	if _, busy := c.inFlight[id]; busy {
		return -1, domain.ErrMutationInFlight
	}
	idx := c.indexOfID(id)
	if idx < 0 {
		return -1, domain.ErrLinkNotFound
	}
	if err := c.beginMutation(); err != nil {
		return -1, err
	}
	c.inFlight[id] = struct{}{}
	return idx, nil
}

func (c *LinkController) release(id int64) {
	delete(c.inFlight, id)
	c.pending--
}

func (c *LinkController) indexOfID(id int64) int {
	if id == 0 {
		return -1
	}
	for i, e := range c.entries {
		if e.link.ID == id {
			return i
		}
	}
	return -1
}

func (c *LinkController) indexOfLocal(local string) int {
	for i, e := range c.entries {
		if e.local == local {
			return i
		}
	}
	return -1
}

func (c *LinkController) removeAt(idx int) {
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
}

// renumberFrom sets the position of every entry from idx on to its index.
func (c *LinkController) renumberFrom(idx int) {
	for i := idx; i < len(c.entries); i++ {
		c.entries[i].link.Position = i
	}
}

func (c *LinkController) insertAt(idx int, e entry) {
	if idx > len(c.entries) {
		idx = len(c.entries)
	}
	c.entries = append(c.entries, entry{})
	copy(c.entries[idx+1:], c.entries[idx:])
	c.entries[idx] = e
}
