package rooms

import (
	"errors"
	"fmt"

	"github.com/hilthontt/duelrooms/internal/domain"
)

// Wire error codes.
const (
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeRoomFull       = "ROOM_MEMBERS_FULL"
	CodeNotMember      = "NOT_MEMBER"
	CodeInvalidGetRoom = "INVALID_GET_ROOM"
	CodeNotOwner       = "NOT_OWNER"
	CodeRoomNotReady   = "ROOM_NOT_READY"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeUnknownEvent   = "UNKNOWN_EVENT"
	CodeInternal       = "INTERNAL_ERROR"
)

var (
	errInvalidPayload = errors.New("invalid payload")
	errUnknownEvent   = errors.New("unknown event")
)

func invalidPayload(err error) error {
	return fmt.Errorf("%w: %v", errInvalidPayload, err)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, domain.ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, domain.ErrNotMember):
		return CodeNotMember
	case errors.Is(err, domain.ErrInvalidGetRoom):
		return CodeInvalidGetRoom
	case errors.Is(err, domain.ErrNotOwner):
		return CodeNotOwner
	case errors.Is(err, domain.ErrRoomNotReady):
		return CodeRoomNotReady
	case errors.Is(err, errInvalidPayload),
		errors.Is(err, domain.ErrInvalidWorld),
		errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidPayload
	case errors.Is(err, errUnknownEvent):
		return CodeUnknownEvent
	default:
		return CodeInternal
	}
}
