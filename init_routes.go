package main

import (
	"net/http"

	"github.com/edithfert/fertpro/middleware"
	"github.com/edithfert/fertpro/web"
)

// initRoutes binds every endpoint to mux.
//
// Literal paths are registered before parametric ones sharing a prefix.
func initRoutes(mux *http.ServeMux, h *Handlers, sessionMw *middleware.SessionMiddleware) {
	session := func(handler http.HandlerFunc) http.Handler {
		return sessionMw.Require(handler)
	}
	page := func(handler http.HandlerFunc) http.Handler {
		return sessionMw.Ensure(handler)
	}

	// Public
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("POST /api/session", h.Session.Start)
	mux.HandleFunc("GET /api/home", h.Content.Home)
	mux.HandleFunc("GET /api/crops", h.Recommendation.Crops)
	mux.HandleFunc("GET /api/soil", h.Content.Soil)
	mux.HandleFunc("GET /api/weather", h.Content.Weather)
	mux.HandleFunc("GET /api/forum/posts", h.Forum.List)
	mux.HandleFunc("GET /api/forum/posts/{id}/replies", h.Forum.Replies)

	// Session
	mux.Handle("GET /api/session", session(h.Session.Get))
	mux.Handle("PUT /api/session/view", session(h.Session.SelectView))
	mux.Handle("GET /api/views", session(h.Session.Views))
	mux.Handle("POST /api/recommendations", session(h.Recommendation.Recommend))
	mux.Handle("GET /api/history", session(h.Recommendation.History))
	mux.Handle("POST /api/forum/posts", session(h.Forum.Create))
	mux.Handle("POST /api/forum/posts/{id}/replies", session(h.Forum.Reply))
	mux.Handle("POST /api/auth/login", session(h.Auth.Login))
	mux.Handle("POST /api/auth/signup", session(h.Auth.Signup))
	mux.Handle("POST /api/auth/logout", session(h.Auth.Logout))
	mux.Handle("GET /api/account", session(h.Auth.Account))

	// WebSocket; the handler authenticates from ?token= or the cookie.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// Pages
	mux.HandleFunc("GET /{$}", h.Pages.Root)
	mux.Handle("GET /views/{view}", page(h.Pages.View))
	mux.Handle("POST /views/recommend", page(h.Pages.Recommend))
	mux.Handle("POST /views/account", page(h.Pages.Account))
	mux.Handle("POST /views/account/logout", page(h.Pages.Logout))
	mux.Handle("GET /static/", web.StaticHandler())
}
