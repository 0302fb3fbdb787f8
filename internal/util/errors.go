package util

import "errors"

var (
	ErrInvalidSpiritID       = errors.New("invalid spirit id")
	ErrInvalidAction         = errors.New("invalid action kind")
	ErrUserNotFound          = errors.New("user not found")
	ErrEmbeddingUnavailable  = errors.New("embedding model unavailable")
	ErrEmbeddingDimension    = errors.New("embedding dimension mismatch")
	ErrGeneratorUnreachable  = errors.New("generator unreachable")
	ErrGeneratorModelMissing = errors.New("generator model not available")
	ErrInsufficientPoints    = errors.New("insufficient points for redemption")
)
