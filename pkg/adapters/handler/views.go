package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "signup", "dashboard", "tree", "notfound", "error"}

// pageData is handed to every template. The layout reads User and Error,
// each page reads what it needs from the rest.
type pageData struct {
	Title   string
	User    *domain.User
	Error   string
	Form    map[string]string
	Links   []linkView
	Tree    *domain.Tree
	Pending bool
}

type linkView struct {
	domain.Link
	Icon string
}

type views struct {
	pages map[string]*template.Template
}

func newViews() (*views, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, err
		}
		v.pages[name] = t
	}
	return v, nil
}

// mustViews panics on a broken template; they are embedded at build time.
func mustViews() *views {
	v, err := newViews()
	if err != nil {
		panic(err)
	}
	return v
}

// render executes into a buffer first so a template error never leaves a
// half written page behind.
func (v *views) render(w http.ResponseWriter, status int, page string, data pageData) {
	t, ok := v.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("unknown page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor picks the response status for an error shown on a page.
func statusFor(err error) int {
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity
	case domain.IsAuth(err):
		return http.StatusUnauthorized
	case domain.IsNetwork(err):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMutationInFlight),
		errors.Is(err, domain.ErrRefreshBlocked),
		errors.Is(err, domain.ErrRefreshInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var iconHosts = []struct {
	host string
	icon string
}{
	{"twitter.com", "twitter"},
	{"x.com", "x"},
	{"github.com", "github"},
	{"instagram.com", "instagram"},
	{"linkedin.com", "linkedin"},
	{"youtube.com", "youtube"},
}

// iconForURL names the icon shown next to a link, matched on the URL host.
func iconForURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "globe"
	}
	host := strings.ToLower(u.Hostname())
	for _, ih := range iconHosts {
		if host == ih.host || strings.HasSuffix(host, "."+ih.host) {
			return ih.icon
		}
	}
	return "globe"
}

func toLinkViews(links []domain.Link) []linkView {
	out := make([]linkView, len(links))
	for i, l := range links {
		out[i] = linkView{Link: l, Icon: iconForURL(l.URL)}
	}
	return out
}
