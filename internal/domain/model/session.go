package model

import "time"

// Session is the server-side exclusive owner of one shopper's selection.
//
// @Description Selection session for one bundle
type Session struct {
	ID        string    `json:"id" example:"6f1c9a9e-3a55-4b55-9a7e-1f4f0a1f2c11"`
	BundleID  string    `json:"bundle_id" example:"gift-box"`
	Selection Selection `json:"selection"`
	// Version increments with every applied action.
	Version   int64     `json:"version" example:"3"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
} // @name Session

// SessionView is a session together with the quote of its current selection.
type SessionView struct {
	Session Session `json:"session"`
	Quote   Quote   `json:"quote"`
} // @name SessionView
