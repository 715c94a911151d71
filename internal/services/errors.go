package services

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("a user with this email already exists")
	ErrInvalidTask     = errors.New("invalid task")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("project was modified by another request")
)
