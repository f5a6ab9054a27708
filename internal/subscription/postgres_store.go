package subscription

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps the subscription map in a subscriptions table. Each
// SaveAll replaces the full set inside one transaction, mirroring the
// whole-map contract of the file store.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool. Migrations must have been
// applied already.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type subscriptionRow struct {
	UserID       string `db:"user_id"`
	Device       string `db:"device"`
	LastNotified string `db:"last_notified"`
}

func (s *PostgresStore) LoadAll(ctx context.Context) (map[string]Subscription, error) {
	var rows []subscriptionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, device, last_notified FROM subscriptions`); err != nil {
		return nil, fmt.Errorf("subscription: load: %w", err)
	}
	subs := make(map[string]Subscription, len(rows))
	for _, r := range rows {
		subs[r.UserID] = Subscription{Device: r.Device, LastNotified: r.LastNotified}
	}
	return subs, nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, subs map[string]Subscription) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("subscription: begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("subscription: clear: %w", err)
	}
	for userID, sub := range subs {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO subscriptions (user_id, device, last_notified)
			 VALUES (:user_id, :device, :last_notified)`,
			subscriptionRow{UserID: userID, Device: sub.Device, LastNotified: sub.LastNotified},
		); err != nil {
			return fmt.Errorf("subscription: save %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("subscription: commit save: %w", err)
	}
	return nil
}
