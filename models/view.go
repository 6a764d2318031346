// Package models defines the domain types of the advisory service.
//
// Types here are plain data: they carry json tags for the API and, where a
// request comes from a client, a Validate method. Nothing in this package
// talks to the network, the database or the clock beyond time.Time values.
package models

import (
	"errors"
	"strings"
)

// View is one of the mutually exclusive top-level sections of the app.
type View string

const (
	ViewHome      View = "home"
	ViewDashboard View = "dashboard"
	ViewRecommend View = "recommend"
	ViewCommunity View = "community"
	ViewWeather   View = "weather"
	ViewHistory   View = "history"
	ViewAccount   View = "account"
)

// DefaultView is the view every new session starts in.
const DefaultView = ViewHome

// ErrUnknownView is returned by ParseView for identifiers outside the fixed set.
var ErrUnknownView = errors.New("view.unknown")

// allViews keeps navigation order.
var allViews = []View{
	ViewHome,
	ViewDashboard,
	ViewRecommend,
	ViewCommunity,
	ViewWeather,
	ViewHistory,
	ViewAccount,
}

// AllViews returns the seven views in navigation order.
// The returned slice is a copy and may be modified by the caller.
func AllViews() []View {
	out := make([]View, len(allViews))
	copy(out, allViews)
	return out
}

// ParseView maps an identifier to a View. Surrounding whitespace and case
// are ignored.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v, nil
	}
	return "", ErrUnknownView
}

// Valid reports whether v is one of the seven known views.
func (v View) Valid() bool {
	for _, known := range allViews {
		if v == known {
			return true
		}
	}
	return false
}

// NavItem is one entry of the navigation list.
type NavItem struct {
	View   View   `json:"view"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Label returns the navigation label of v. The account entry reads
// "Login/Signup" until the session is logged in.
func (v View) Label(loggedIn bool) string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewDashboard:
		return "Dashboard"
	case ViewRecommend:
		return "Smart Recommendation"
	case ViewCommunity:
		return "Community"
	case ViewWeather:
		return "Weather"
	case ViewHistory:
		return "History"
	case ViewAccount:
		if loggedIn {
			return "Account"
		}
		return "Login/Signup"
	}
	return string(v)
}

// Navigation builds the nav list for a session currently on active.
func Navigation(active View, loggedIn bool) []NavItem {
	items := make([]NavItem, 0, len(allViews))
	for _, v := range allViews {
		items = append(items, NavItem{
			View:   v,
			Label:  v.Label(loggedIn),
			Active: v == active,
		})
	}
	return items
}
