package interfaces

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned (wrapped) by repositories for missing records
	ErrNotFound = goerr.New("not found")
)
