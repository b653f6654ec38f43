package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrLastWorkspace     = errors.New("cannot delete the last workspace")
)
