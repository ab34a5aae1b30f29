// Package subscriber manages push-notification recipients. A subscriber
// exists exactly while opted in: /start creates or refreshes the row,
// /stop deletes it, nothing else mutates it.
package subscriber

import "time"

// Subscriber is one push recipient, keyed by chat channel ID.
type Subscriber struct {
	ChannelID string
	Profile
	CreatedAt time.Time
}

// Profile holds the display fields refreshed on every opt-in.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}
