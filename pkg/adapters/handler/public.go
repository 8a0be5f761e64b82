package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/api"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

// PublicHandler renders a user's public page.
type PublicHandler struct {
	trees      ports.TreeAPI
	sessions   *Sessions
	maxElapsed time.Duration
	views      *views
}

func NewPublicHandler(trees ports.TreeAPI, sessions *Sessions, retryMaxElapsed time.Duration, v *views) *PublicHandler {
	return &PublicHandler{trees: trees, sessions: sessions, maxElapsed: retryMaxElapsed, views: v}
}

func (h *PublicHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.Error(w, "Username required", http.StatusBadRequest)
		return
	}

	user := viewer(h.sessions, r)

	var tree *domain.Tree
	err := api.RetryNetwork(r.Context(), h.maxElapsed, func() error {
		var err error
		tree, err = h.trees.GetPublicTree(r.Context(), username)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("get public tree")
		h.views.render(w, statusFor(err), "error", pageData{User: user, Error: domain.UserMessage(err)})
		return
	}
	if tree == nil {
		h.views.render(w, http.StatusNotFound, "notfound", pageData{Title: "Not found", User: user})
		return
	}

	h.views.render(w, http.StatusOK, "tree", pageData{
		Title: tree.Title,
		User:  user,
		Tree:  tree,
		Links: toLinkViews(tree.ActiveLinks()),
	})
}
