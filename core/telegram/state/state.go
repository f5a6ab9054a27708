// Package state provides a lightweight per-user session manager for
// conversation-style Telegram flows.
package state

// State identifies a conversation step for a user.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Manager tracks per-user conversation state.
type Manager interface {
	GetState(userID int64) State
	SetState(userID int64, st State)
	ClearState(userID int64)
	InProgress(userID int64) bool
}
