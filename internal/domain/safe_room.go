package domain

type SafeMember struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Online   bool   `json:"online"`
	JoinedAt int64  `json:"joinedAt"`
	IsOwner  bool   `json:"isOwner"`
}

// SafeRoom is the client-facing view of a Room. It carries no connection
// identifiers and omits ownerId, inGame and expiresAt.
type SafeRoom struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	World      World        `json:"world"`
	CreatedAt  int64        `json:"createdAt"`
	Members    []SafeMember `json:"members"`
	MaxMembers int          `json:"maxMembers"`
	IsLocked   bool         `json:"isLocked"`
}

// Sanitize must be called with the room lock held.
func Sanitize(r *Room) SafeRoom {
	members := make([]SafeMember, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, SafeMember{
			UserID:   m.UserID,
			Name:     m.Name,
			Online:   m.Online,
			JoinedAt: m.JoinedAt.UnixMilli(),
			IsOwner:  m.IsOwner,
		})
	}

	return SafeRoom{
		ID:         r.ID,
		Name:       r.Name,
		World:      r.World,
		CreatedAt:  r.CreatedAt.UnixMilli(),
		Members:    members,
		MaxMembers: r.MaxMembers,
		IsLocked:   r.IsLocked,
	}
}
