package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/server"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = []string{"list", "login", "register"}

// App is the application context shared by every handler.
type App struct {
	lists     *services.ListService
	local     *services.LocalProvider
	sessions  *server.SessionManager
	providers []server.OAuthProvider
	templates map[string]*template.Template
	logger    *log.Logger
	clock     func() time.Time
}

// AppOpts configures an [App].
type AppOpts struct {
	Lists     *services.ListService
	Local     *services.LocalProvider
	Sessions  *server.SessionManager
	Providers []server.OAuthProvider // enabled external providers only
	Logger    *log.Logger
	// Clock, when set, turns the list heading into the current weekday.
	Clock func() time.Time
}

// NewApp parses the embedded templates and creates an [App].
func NewApp(opts AppOpts) (*App, error) {
	if opts.Lists == nil || opts.Local == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("%w: app requires list, local and session services", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		lists:     opts.Lists,
		local:     opts.Local,
		sessions:  opts.Sessions,
		providers: opts.Providers,
		templates: templates,
		logger:    shared.WithLogger(opts.Logger, "component", "web"),
		clock:     opts.Clock,
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		templates[page] = t
	}
	return templates, nil
}

// Handler builds the router with every route and the middleware stack.
func (a *App) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.Recover(a.logger), server.Logging(a.logger), a.sessions.Middleware())

	r.Handle(http.MethodGet, "/", http.HandlerFunc(a.viewList))
	r.Handle(http.MethodPost, "/", a.requireUser(a.addItem))
	r.Handle(http.MethodPost, "/delete", a.requireUser(a.deleteItem))

	r.Handle(http.MethodGet, "/login", http.HandlerFunc(a.loginForm))
	r.Handle(http.MethodPost, "/login", http.HandlerFunc(a.login))
	r.Handle(http.MethodGet, "/badlogin", http.HandlerFunc(a.badLogin))
	r.Handle(http.MethodGet, "/register", http.HandlerFunc(a.registerForm))
	r.Handle(http.MethodPost, "/register", http.HandlerFunc(a.register))
	r.Handle(http.MethodGet, "/badregister", http.HandlerFunc(a.badRegister))
	r.Handle(http.MethodGet, "/logout", http.HandlerFunc(a.logout))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.healthz))

	for _, p := range a.providers {
		r.Handler(server.NewOAuthHandler(p, a.sessions, a.logger))
	}

	static, _ := fs.Sub(staticFS, "static")
	r.Static("/static/", static)

	return r
}
