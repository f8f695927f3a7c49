package chat

import "errors"

var (
	// ErrEmptyQuestion rejects an ask whose question trims to nothing.
	ErrEmptyQuestion = errors.New("chat: question is empty")

	// ErrStreamInFlight rejects an ask while a previous answer is still
	// streaming. The conversation is left untouched.
	ErrStreamInFlight = errors.New("chat: an answer stream is already in flight")

	// ErrAlreadyRated rejects a second rating for the same message.
	ErrAlreadyRated = errors.New("chat: message already rated")
)
