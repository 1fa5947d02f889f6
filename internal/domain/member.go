package domain

import (
	"fmt"
	"time"
)

type Member struct {
	UserID      string
	Name        string
	Online      bool
	SocketIDNow string
	SocketIDOld string
	JoinedAt    time.Time
	IsOwner     bool
}

func NewMember(userID, userName string, ordinal int, connID string, now time.Time) *Member {
	return &Member{
		UserID:      userID,
		Name:        fmt.Sprintf("%s #%d", userName, ordinal),
		Online:      true,
		SocketIDNow: connID,
		JoinedAt:    now,
	}
}

func (m *Member) Reconnect(connID string) {
	m.SocketIDNow = connID
	m.Online = true
}

func (m *Member) GoOffline() {
	m.Online = false
	m.SocketIDOld = m.SocketIDNow
	m.SocketIDNow = ""
}
