package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/core/services"
)

// DashboardHandler serves the signed-in user's link editor. Each visitor
// owns one LinkController and every form submission goes to it.
type DashboardHandler struct {
	sessions *Sessions
	views    *views
}

func NewDashboardHandler(sessions *Sessions, v *views) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, views: v}
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	ctrl := v.current()
	err := v.load(r.Context(), ctrl)
	if errors.Is(err, domain.ErrRefreshBlocked) || errors.Is(err, domain.ErrRefreshInFlight) {
		// Changes are still being saved, show the local list as it stands.
		err = nil
	}
	if sessionGone(err) {
		h.signOut(w, r)
		return
	}
	h.render(w, r, ctrl, err, nil)
}

func (h *DashboardHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	input, ok := parseLinkForm(w, r)
	if !ok {
		return
	}

	ctrl, err := visitorFromContext(r.Context()).ready(r.Context())
	if err == nil {
		_, err = ctrl.Create(r.Context(), input)
	}
	if err != nil {
		h.fail(w, r, ctrl, err, map[string]string{"title": input.Title, "url": input.URL})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *DashboardHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	input, ok := parseLinkForm(w, r)
	if !ok {
		return
	}

	ctrl, err := visitorFromContext(r.Context()).ready(r.Context())
	if err == nil {
		_, err = ctrl.Update(r.Context(), id, input)
	}
	if err != nil {
		h.fail(w, r, ctrl, err, nil)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *DashboardHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctrl, err := visitorFromContext(r.Context()).ready(r.Context())
	if err == nil {
		err = ctrl.Delete(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, ctrl, err, nil)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// fail shows err above the current list, or signs the visitor out when the
// session is gone.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, ctrl *services.LinkController, err error, form map[string]string) {
	if sessionGone(err) {
		h.signOut(w, r)
		return
	}
	h.render(w, r, ctrl, err, form)
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, ctrl *services.LinkController, err error, form map[string]string) {
	user, _ := UserFromContext(r.Context())
	data := pageData{
		Title:   "Dashboard",
		User:    &user,
		Form:    form,
		Links:   toLinkViews(ctrl.Links()),
		Pending: ctrl.Pending(),
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		data.Error = domain.UserMessage(err)
	}
	h.views.render(w, status, "dashboard", data)
}

func (h *DashboardHandler) signOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.end(w, r, visitorFromContext(r.Context()))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func sessionGone(err error) bool {
	return domain.IsAuth(err) ||
		errors.Is(err, domain.ErrSessionEnded) ||
		errors.Is(err, domain.ErrNoSession)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parseLinkForm(w http.ResponseWriter, r *http.Request) (domain.LinkInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return domain.LinkInput{}, false
	}
	active := r.PostFormValue("is_active") == "on"
	return domain.LinkInput{
		Title:    r.PostFormValue("title"),
		URL:      r.PostFormValue("url"),
		IsActive: &active,
	}, true
}
