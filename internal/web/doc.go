// Package web implements the server-rendered to-do web application.
//
// # Architecture
//
// [App] is the application context: it is built once at startup (see [Bootstrap])
// and holds the identity services, list service, session manager, OAuth providers,
// parsed templates and logger. Handlers are methods on [App]; nothing is global.
//
// Routes
//
//	GET  /                      → list view (login redirect when anonymous)
//	POST /                      → add item (form field newItem)
//	POST /delete                → remove every copy of an item (form field checkbox)
//	GET  /login, POST /login    → local sign-in
//	GET  /register, POST /register → local registration
//	GET  /badlogin, /badregister → forms with a failure alert
//	GET  /auth/{provider}       → OAuth consent redirect
//	GET  /auth/{provider}/callback → OAuth completion
//	GET  /logout                → end the session
//	GET  /healthz               → liveness probe
//
// Templates
//
//   - layout.html: page shell, stylesheet, alert banner
//   - list.html: items with a delete checkbox each and the add form
//   - login.html, register.html: credential forms and provider buttons
//
// # Errors
//
// User-facing failures become redirects to an alert view. Store failures while
// adding or deleting are logged and the list is simply reloaded.
package web
