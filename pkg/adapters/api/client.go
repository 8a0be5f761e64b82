// Package api is the typed client for the ChainHub HTTP API. Every failure is
// returned as one of the domain error types; nothing is retried here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	tokens  ports.TokenProvider
	public  *http.Client
	authed  *http.Client
}

// NewClient builds a client for the API at baseURL. Authenticated calls take
// their bearer token from tokens at request time.
func NewClient(baseURL string, timeout time.Duration, tokens ports.TokenProvider) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, tokens)
}

// NewClientWithHTTP is NewClient with a caller supplied base http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client, tokens ports.TokenProvider) *Client {
	authed := *hc
	authed.Transport = &oauth2.Transport{
		Source: sessionTokenSource{tokens: tokens},
		Base:   hc.Transport,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		public:  hc,
		authed:  &authed,
	}
}

// sessionTokenSource adapts the session store to oauth2.TokenSource so the
// oauth2 transport sets the Authorization header.
type sessionTokenSource struct {
	tokens ports.TokenProvider
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	token, ok := s.tokens.GetToken()
	if !ok {
		return nil, domain.ErrNoSession
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	var out authPayload
	body := authRequest{Email: creds.Identifier, Password: creds.Password}
	if err := c.do(ctx, "login", c.public, http.MethodPost, "/login", body, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) Signup(ctx context.Context, input domain.SignupInput) (*domain.Session, error) {
	var out authPayload
	body := authRequest{Email: input.Email, Username: input.Username, Password: input.Password}
	if err := c.do(ctx, "signup", c.public, http.MethodPost, "/signup", body, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// GetPublicTree returns nil, nil when the username is not registered.
func (c *Client) GetPublicTree(ctx context.Context, username string) (*domain.Tree, error) {
	var out treePayload
	err := c.do(ctx, "get tree", c.public, http.MethodGet, "/tree/"+url.PathEscape(username), nil, &out)
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) ListLinks(ctx context.Context, username string) ([]domain.Link, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out linkListPayload
	path := "/links?" + url.Values{"username": {username}}.Encode()
	if err := c.do(ctx, "list links", c.authed, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return linksToDomain(out.Links), nil
}

func (c *Client) CreateLink(ctx context.Context, input domain.LinkInput) (*domain.Link, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out linkPayload
	if err := c.do(ctx, "create link", c.authed, http.MethodPost, "/links", newLinkRequest(input), &out); err != nil {
		return nil, err
	}
	link := out.toDomain()
	return &link, nil
}

func (c *Client) UpdateLink(ctx context.Context, id int64, input domain.LinkInput) (*domain.Link, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out linkPayload
	path := "/links/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "update link", c.authed, http.MethodPut, path, newLinkRequest(input), &out); err != nil {
		return nil, err
	}
	link := out.toDomain()
	return &link, nil
}

func (c *Client) DeleteLink(ctx context.Context, id int64) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	path := "/links/" + strconv.FormatInt(id, 10)
	return c.do(ctx, "delete link", c.authed, http.MethodDelete, path, nil, nil)
}

// requireToken fails authenticated calls locally when nobody is signed in.
func (c *Client) requireToken() error {
	if _, ok := c.tokens.GetToken(); !ok {
		return &domain.AuthError{Message: domain.ErrNoSession.Error()}
	}
	return nil
}

// do performs one request and maps the outcome onto the domain error types.
// A nil out means the response body is ignored.
func (c *Client) do(ctx context.Context, op string, hc *http.Client, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if errors.Is(err, domain.ErrNoSession) {
		// Signed out between requireToken and the token source.
		return &domain.AuthError{Message: domain.ErrNoSession.Error()}
	}
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(op, err)
	}
	if err := domain.ValidateStruct(out); err != nil {
		return malformed(op, err)
	}
	return nil
}

func malformed(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("API response does not match contract")
	return &domain.MalformedResponseError{Op: op, Err: err}
}

func statusError(status int, raw []byte) error {
	msg := serverMessage(status, raw)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.AuthError{Status: status, Message: msg}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &domain.ValidationError{Status: status, Message: msg}
	default:
		return &domain.StatusError{Status: status, Message: msg}
	}
}

// serverMessage extracts the API's {"error": "..."} text, falling back to
// the status text.
func serverMessage(status int, raw []byte) string {
	var p errorPayload
	if err := json.Unmarshal(raw, &p); err == nil {
		if p.Error != "" {
			return p.Error
		}
		if p.Message != "" {
			return p.Message
		}
	}
	return http.StatusText(status)
}

var _ ports.RemoteAPI = (*Client)(nil)
