package simulator

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrCascadeDepthExceeded aborts a simulation whose event chain grew
	// deeper than the configured maximum
	ErrCascadeDepthExceeded = goerr.New("cascade depth exceeded")
)
