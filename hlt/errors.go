package hlt

import (
	"errors"
	"fmt"
)

// ErrTokensExhausted is wrapped by MalformedSnapshotError when the snapshot
// ends before every declared count is satisfied.
var ErrTokensExhausted = errors.New("snapshot tokens exhausted")

// MalformedSnapshotError reports a turn snapshot that could not be parsed.
// The turn should be aborted; the previous map state is left untouched.
type MalformedSnapshotError struct {
	Field string // what was being read, e.g. "planet count"
	Token string // offending token, empty when the stream ran out
	Err   error
}

func (e *MalformedSnapshotError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("malformed snapshot: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed snapshot: %s %q: %v", e.Field, e.Token, e.Err)
}

func (e *MalformedSnapshotError) Unwrap() error { return e.Err }

// UnknownEntityError is returned when a ship lookup names a player slot or
// ship id that is not in the current snapshot.
type UnknownEntityError struct {
	Player PlayerID
	Ship   EntityID
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown ship %d for player %d", e.Ship, e.Player)
}
