package lobby

import (
	"fmt"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
)

// reconcileJoin resolves the joining connection to an existing member or
// admits a new one. A connection that matches a member is always let back in,
// even when the room is at capacity.
func (e *Engine) reconcileJoin(room *domain.Room, connID, userName string, now time.Time) (*domain.Member, bool, error) {
	if m := room.FindByConnection(connID); m != nil {
		m.Reconnect(connID)
		return m, true, nil
	}

	if room.IsFull() {
		return nil, false, domain.ErrRoomFull
	}

	userID, err := e.newCode()
	if err != nil {
		return nil, false, fmt.Errorf("generate user id: %w", err)
	}

	m, err := room.AddMember(userID, userName, connID, now)
	if err != nil {
		return nil, false, err
	}

	return m, false, nil
}

// reconcileSession re-validates a stored identifier after a page reload or a
// transport reconnect. It returns the member and the connection it displaced,
// if any.
func (e *Engine) reconcileSession(room *domain.Room, connID, lastKnownID string) (*domain.Member, string, error) {
	if lastKnownID == "" {
		return nil, "", domain.ErrNotMember
	}

	m := room.FindByConnection(lastKnownID)
	if m == nil {
		return nil, "", domain.ErrNotMember
	}

	// lastKnownID is still live on another connection.
	if m.SocketIDNow == lastKnownID && lastKnownID != connID {
		return nil, "", domain.ErrInvalidGetRoom
	}

	var displaced string
	if m.SocketIDNow != "" && m.SocketIDNow != connID {
		displaced = m.SocketIDNow
	}

	m.Reconnect(connID)

	return m, displaced, nil
}
