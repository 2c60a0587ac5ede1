package domain

import "errors"

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamExists   = errors.New("stream id already in use by another host")
	ErrEmptyStreamID  = errors.New("stream id must not be empty")
	ErrAlreadyHosting = errors.New("connection is hosting a stream")
)
