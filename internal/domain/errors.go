package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomFull          = errors.New("room is full")
	ErrNotMember         = errors.New("connection is not a member of the room")
	ErrInvalidGetRoom    = errors.New("stale or foreign connection identifier")
	ErrNotOwner          = errors.New("only the room owner can do that")
	ErrRoomNotReady      = errors.New("room is not ready to start")
	ErrInvalidWorld      = errors.New("world must be dark or light")
	ErrInvalidInput      = errors.New("invalid input")
)
