package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidVectorDimension is returned when the embedding service
	// produced a vector whose length does not match the configured index
	// dimensionality. The vector is never cached nor forwarded.
	ErrInvalidVectorDimension = goerr.New("invalid vector dimension")

	// ErrUnexpectedCompletionFormat is returned when a completion response
	// contains no usable text content.
	ErrUnexpectedCompletionFormat = goerr.New("unexpected completion response format")

	// ErrEmptyQuery is returned when the caller supplied an empty query.
	ErrEmptyQuery = goerr.New("query is empty")

	// ErrAgentNotFound is returned when the referenced agent does not exist.
	ErrAgentNotFound = goerr.New("agent not found")

	// ErrNotFound is returned for missing messages or training examples.
	ErrNotFound = goerr.New("record not found")

	// ErrInvalidReaction is returned when a reaction value is not 0, 1 or null.
	ErrInvalidReaction = goerr.New("reaction must be 0, 1 or null")

	// ErrTrainingExists is returned when training data for a message already exists.
	ErrTrainingExists = goerr.New("training data already exists for message")
)
