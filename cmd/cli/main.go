package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/api"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/chainhub/pkg/config"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/core/services"
	"github.com/wadjakorntonsri/chainhub/pkg/core/session"
	"github.com/wadjakorntonsri/chainhub/pkg/logger"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

const usage = `usage: chainhub <command> [flags]

commands:
  login   -identifier <email|username> -password <password>
  signup  -email <email> -username <name> -password <password>
  logout
  whoami
  tree    [username]
  links
  add     -title <title> -url <url> [-inactive]
  edit    -id <id> [-title <title>] [-url <url>] [-active=true|false]
  rm      -id <id>`

var (
	errUsage    = errors.New("invalid usage")
	errNotFound = errors.New("not found")
)

type app struct {
	cfg    *config.Config
	store  *session.Store
	client *api.Client
	auth   *services.AuthService
	out    io.Writer
}

func main() {
	cfg := config.Load()
	log.Logger = logger.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, cfg.LogLevel)

	ctx := context.Background()
	a, cleanup := newApp(ctx, cfg, os.Stdout)

	code := 0
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			code = 2
		} else {
			fmt.Fprintln(os.Stderr, "error:", describe(err))
			code = 1
		}
	}
	cleanup()
	os.Exit(code)
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, func()) {
	var backend ports.SessionBackend
	cleanup := func() {}

	repo, err := sqlite.NewSQLiteRepository(cfg.SessionDBURL)
	if err != nil {
		log.Warn().Err(err).Msg("session database unavailable, you will need to log in again next time")
	} else {
		backend = repo
		cleanup = func() { _ = repo.Close() }
	}

	store := session.NewStore(backend)
	store.Init(ctx)
	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout, store)

	return &app{
		cfg:    cfg,
		store:  store,
		client: client,
		auth:   services.NewAuthService(client, store),
		out:    out,
	}, cleanup
}

func describe(err error) string {
	if errors.Is(err, errNotFound) {
		return err.Error()
	}
	return domain.UserMessage(err)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "signup":
		return a.signup(ctx, rest)
	case "logout":
		a.auth.Logout(ctx)
		fmt.Fprintln(a.out, "signed out")
		return nil
	case "whoami":
		user, ok := a.auth.CurrentUser()
		if !ok {
			return domain.ErrNoSession
		}
		return a.print(user)
	case "tree":
		return a.tree(ctx, rest)
	case "links":
		return a.links(ctx)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "rm":
		return a.remove(ctx, rest)
	default:
		return errUsage
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %v: %w", fs.Name(), err, errUsage)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	identifier := fs.String("identifier", "", "email or username")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, domain.Credentials{Identifier: *identifier, Password: *password})
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := newFlagSet("signup")
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password, at least 8 characters")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.auth.Signup(ctx, domain.SignupInput{Email: *email, Username: *username, Password: *password})
	if err != nil {
		return err
	}
	return a.print(user)
}

// tree prints a public page the way visitors see it. Without an argument it
// shows the signed-in user's own page.
func (a *app) tree(ctx context.Context, args []string) error {
	username := ""
	if len(args) > 0 {
		username = args[0]
	} else if user, ok := a.auth.CurrentUser(); ok {
		username = user.Username
	}
	if username == "" {
		return errUsage
	}

	var tree *domain.Tree
	err := api.RetryNetwork(ctx, a.cfg.RetryMaxElapsed, func() error {
		var err error
		tree, err = a.client.GetPublicTree(ctx, username)
		return err
	})
	if err != nil {
		return err
	}
	if tree == nil {
		return fmt.Errorf("no page for @%s: %w", username, errNotFound)
	}

	tree.Links = tree.ActiveLinks()
	return a.print(tree)
}

// controller returns a link controller loaded with the server's list.
func (a *app) controller(ctx context.Context) (*services.LinkController, error) {
	ctrl := services.NewLinkController(a.client, a.store)
	err := api.RetryNetwork(ctx, a.cfg.RetryMaxElapsed, func() error {
		return ctrl.Refresh(ctx)
	})
	if err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

func (a *app) links(ctx context.Context) error {
	ctrl, err := a.controller(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	return a.print(ctrl.Links())
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	title := fs.String("title", "", "link title")
	url := fs.String("url", "", "absolute URL")
	inactive := fs.Bool("inactive", false, "hide the link from the public page")
	if err := parse(fs, args); err != nil {
		return err
	}

	ctrl, err := a.controller(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	active := !*inactive
	link, err := ctrl.Create(ctx, domain.LinkInput{Title: *title, URL: *url, IsActive: &active})
	if err != nil {
		return err
	}
	return a.print(link)
}

// edit changes only the fields given on the command line.
func (a *app) edit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	id := fs.Int64("id", 0, "link id")
	title := fs.String("title", "", "new title")
	url := fs.String("url", "", "new URL")
	active := fs.Bool("active", true, "show the link on the public page")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("edit: -id is required: %w", errUsage)
	}

	ctrl, err := a.controller(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	current, ok := findLink(ctrl.Links(), *id)
	if !ok {
		return domain.ErrLinkNotFound
	}
	input := domain.InputFromLink(current)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			input.Title = *title
		case "url":
			input.URL = *url
		case "active":
			input.IsActive = active
		}
	})

	link, err := ctrl.Update(ctx, *id, input)
	if err != nil {
		return err
	}
	return a.print(link)
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := newFlagSet("rm")
	id := fs.Int64("id", 0, "link id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("rm: -id is required: %w", errUsage)
	}

	ctrl, err := a.controller(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "deleted link "+strconv.FormatInt(*id, 10))
	return nil
}

func findLink(links []domain.Link, id int64) (domain.Link, bool) {
	for _, l := range links {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Link{}, false
}

func (a *app) print(v interface{}) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
