// Package subscription persists which device each user watches and the last
// firmware version they were notified about.
package subscription

import "context"

// Subscription is one user's watch record. LastNotified is empty until the
// first notification goes out.
type Subscription struct {
	Device       string `json:"device"`
	LastNotified string `json:"last_notified"`
}

// Store persists the full subscription map keyed by Telegram user id in
// decimal form. Implementations replace the whole map on save; callers own
// read-modify-write serialization.
type Store interface {
	LoadAll(ctx context.Context) (map[string]Subscription, error)
	SaveAll(ctx context.Context, subs map[string]Subscription) error
}
