package models

import "time"

// Session is a snapshot of one browser session's state.
//
// The live state sits in the session store behind a mutex; callers only ever
// see copies of this struct, so mutating a Session has no effect on the store.
type Session struct {
	ID             string         `json:"id"`
	View           View           `json:"view"`
	LoggedIn       bool           `json:"logged_in"`
	Language       string         `json:"language"`
	Recommendation string         `json:"recommendation,omitempty"`
	Insight        string         `json:"insight,omitempty"`
	ErrorKey       string         `json:"error_key,omitempty"`
	Loading        bool           `json:"loading"`
	History        []HistoryEntry `json:"history"`
	CreatedAt      time.Time      `json:"created_at"`
	LastSeenAt     time.Time      `json:"last_seen_at"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	out.History = make([]HistoryEntry, len(s.History))
	copy(out.History, s.History)
	return out
}

// SelectViewRequest is the body of PUT /api/session/view.
type SelectViewRequest struct {
	View string `json:"view"`
}

// SessionCookieName is the cookie the HTML pages carry the session token in.
const SessionCookieName = "fertpro_session"
