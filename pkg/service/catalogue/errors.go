package catalogue

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for catalogue building
var (
	ErrInvalidSnapshot  = goerr.New("invalid catalogue snapshot")
	ErrDuplicateRisk    = goerr.New("duplicate risk ID")
	ErrDuplicateCascade = goerr.New("duplicate cascade ID")
)
