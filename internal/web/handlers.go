package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/server"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
)

type providerLink struct {
	Key   string
	Label string
}

type pageData struct {
	Title     string
	Day       string
	User      string
	Items     []string
	Alert     *models.Alert
	Providers []providerLink
}

func (a *App) render(w http.ResponseWriter, page string, data pageData) {
	t, ok := a.templates[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Debug("failed to write response", "page", page, "error", err)
	}
}

func (a *App) renderForm(w http.ResponseWriter, page string, alert *models.Alert) {
	title := "Login"
	if page == "register" {
		title = "Register"
	}

	links := make([]providerLink, 0, len(a.providers))
	for _, p := range a.providers {
		key := string(p.Key())
		label := "Google"
		if p.Key() == models.ProviderFacebook {
			label = "Facebook"
		}
		links = append(links, providerLink{Key: key, Label: label})
	}

	a.render(w, page, pageData{Title: title, Alert: alert, Providers: links})
}

func (a *App) day() string {
	if a.clock == nil {
		return "Today"
	}
	return a.clock().Weekday().String()
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusFound)
}

// requireUser sends anonymous requests to the login page.
func (a *App) requireUser(next func(http.ResponseWriter, *http.Request, *models.User)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := server.UserFrom(r.Context())
		if !ok {
			redirect(w, r, "/login")
			return
		}
		next(w, r, user)
	})
}

func (a *App) viewList(w http.ResponseWriter, r *http.Request) {
	user, ok := server.UserFrom(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}

	items, err := a.lists.View(r.Context(), user)
	if err != nil {
		a.logger.Error("failed to load items", "user_id", user.ID(), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	a.render(w, "list", pageData{Title: "To-Do List", Day: a.day(), User: user.Name(), Items: items})
}

func (a *App) addItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := a.lists.AddItem(r.Context(), user, r.PostFormValue("newItem")); err != nil {
		a.logger.Error("failed to add item", "user_id", user.ID(), "error", err)
	}
	redirect(w, r, "/")
}

func (a *App) deleteItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := a.lists.RemoveItem(r.Context(), user, r.PostFormValue("checkbox")); err != nil {
		a.logger.Error("failed to delete item", "user_id", user.ID(), "error", err)
	}
	redirect(w, r, "/")
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, "login", nil)
}

func (a *App) badLogin(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, "login", &models.AlertBadLogin)
}

func (a *App) registerForm(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, "register", nil)
}

func (a *App) badRegister(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, "register", &models.AlertBadRegister)
}

func credentials(r *http.Request) (services.Credentials, bool) {
	creds := services.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	return creds, !shared.IsBlank(creds.Username) && creds.Password != ""
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(r)
	if !ok {
		a.renderForm(w, "login", &models.AlertEmptyFields)
		return
	}

	user, err := a.local.Resolve(r.Context(), creds)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			a.logger.Error("failed to authenticate", "username", creds.Username, "error", err)
		}
		redirect(w, r, "/badlogin")
		return
	}

	a.startSession(w, r, user, "/badlogin")
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(r)
	if !ok {
		a.renderForm(w, "register", &models.AlertEmptyFields)
		return
	}

	user, err := a.local.Register(r.Context(), creds)
	if errors.Is(err, shared.ErrInvalidInput) {
		a.renderForm(w, "register", &models.AlertBadPassword)
		return
	}
	if err != nil {
		if !errors.Is(err, shared.ErrDuplicateUser) {
			a.logger.Error("failed to register", "username", creds.Username, "error", err)
		}
		redirect(w, r, "/badregister")
		return
	}

	a.startSession(w, r, user, "/badregister")
}

func (a *App) startSession(w http.ResponseWriter, r *http.Request, user *models.User, failure string) {
	if err := a.sessions.Login(w, r, user); err != nil {
		a.logger.Error("failed to start session", "user_id", user.ID(), "error", err)
		redirect(w, r, failure)
		return
	}
	redirect(w, r, "/")
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Logout(w, r)
	redirect(w, r, "/")
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
