package validate

import (
	"fmt"
	"strings"

	"github.com/hilthontt/duelrooms/internal/domain"
)

const MaxUserNameLength = 32

var (
	userNameValidator = Field("userName", Required(), MaxLength(MaxUserNameLength))
	worldValidator    = Field("world", OneOf(string(domain.WorldDark), string(domain.WorldLight)))
	roomIDValidator   = Field("roomId", Required())
)

// UserName trims and checks a display name.
func UserName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if err := userNameValidator(name); err != nil {
		return "", err
	}
	return name, nil
}

func World(raw string) (domain.World, error) {
	w := strings.ToLower(strings.TrimSpace(raw))
	if err := worldValidator(w); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidWorld, err)
	}
	return domain.World(w), nil
}

// RoomID normalizes a room code to upper case. A code that cannot have been
// issued yields domain.ErrRoomNotFound; only a missing one is a payload error.
func RoomID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if err := roomIDValidator(id); err != nil {
		return "", err
	}
	if !domain.IsValidCode(id) {
		return "", domain.ErrRoomNotFound
	}
	return id, nil
}
