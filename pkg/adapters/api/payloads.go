package api

import "github.com/wadjakorntonsri/chainhub/pkg/core/domain"

// Response payloads use pointer fields so a missing key can be told apart
// from a zero value. The validator's required tag rejects nil pointers.

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type userPayload struct {
	ID       *int64  `json:"id" validate:"required"`
	Email    *string `json:"email" validate:"required"`
	Username *string `json:"username" validate:"required"`
}

type authPayload struct {
	Token *string      `json:"token" validate:"required,min=1"`
	User  *userPayload `json:"user" validate:"required"`
}

type linkPayload struct {
	ID       *int64  `json:"id" validate:"required"`
	Title    *string `json:"title" validate:"required,min=1"`
	URL      *string `json:"url" validate:"required,url"`
	Position *int    `json:"position" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type linkListPayload struct {
	Links []linkPayload `json:"links" validate:"dive"`
}

type treePayload struct {
	ID       *int64        `json:"id" validate:"required"`
	Username *string       `json:"username" validate:"required"`
	Title    *string       `json:"title" validate:"required"`
	Links    []linkPayload `json:"links" validate:"dive"`
}

type authRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

type linkRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

func newLinkRequest(in domain.LinkInput) linkRequest {
	return linkRequest{
		Title:    in.Title,
		URL:      in.URL,
		Position: in.Position,
		IsActive: in.Active(),
	}
}

func (p authPayload) toDomain() *domain.Session {
	return &domain.Session{
		Token: *p.Token,
		User:  p.User.toDomain(),
	}
}

func (p userPayload) toDomain() domain.User {
	return domain.User{ID: *p.ID, Email: *p.Email, Username: *p.Username}
}

func (p linkPayload) toDomain() domain.Link {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return domain.Link{
		ID:       *p.ID,
		Title:    *p.Title,
		URL:      *p.URL,
		Position: *p.Position,
		IsActive: active,
	}
}

func linksToDomain(payloads []linkPayload) []domain.Link {
	links := make([]domain.Link, 0, len(payloads))
	for _, p := range payloads {
		links = append(links, p.toDomain())
	}
	domain.SortByPosition(links)
	return links
}

func (p treePayload) toDomain() *domain.Tree {
	return &domain.Tree{
		ID:       *p.ID,
		Username: *p.Username,
		Title:    *p.Title,
		Links:    linksToDomain(p.Links),
	}
}
