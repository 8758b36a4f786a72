package storage

import "errors"

const (
	UniqueViolation = "23505"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotFound        = errors.New("not found")
)
