package types

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// keySeparator joins a risk ID and a scenario in contribution keys
const keySeparator = "__"

// RiskID represents a unique identifier for a risk file
type RiskID string

// Validate checks if the RiskID is valid
func (r RiskID) Validate() error {
	if r == "" {
		return goerr.New("risk ID cannot be empty")
	}
	if strings.Contains(string(r), keySeparator) {
		return goerr.New("risk ID must not contain the key separator", goerr.V("id", r))
	}
	return nil
}

// String returns the string representation of RiskID
func (r RiskID) String() string {
	return string(r)
}

// CascadeID represents a unique identifier for a cause/effect cascade
type CascadeID string

// Validate checks if the CascadeID is valid
func (c CascadeID) Validate() error {
	if c == "" {
		return goerr.New("cascade ID cannot be empty")
	}
	if strings.Contains(string(c), keySeparator) {
		return goerr.New("cascade ID must not contain the key separator", goerr.V("id", c))
	}
	return nil
}

// String returns the string representation of CascadeID
func (c CascadeID) String() string {
	return string(c)
}

// CategoryID represents a hazard category tag of a risk file
type CategoryID string

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// RiskType distinguishes standard risks from malicious actors
type RiskType string

const (
	RiskTypeStandard RiskType = "standard"
	RiskTypeActor    RiskType = "actor"
)

// IsValid checks if the risk type is valid
func (t RiskType) IsValid() bool {
	switch t {
	case RiskTypeStandard, RiskTypeActor:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty as RiskTypeStandard
func (t RiskType) Normalize() RiskType {
	if t == "" {
		return RiskTypeStandard
	}
	return t
}

// ParseRiskType parses a string into a RiskType
func ParseRiskType(s string) (RiskType, error) {
	t := RiskType(s).Normalize()
	if !t.IsValid() {
		return "", fmt.Errorf("invalid risk type: %s", s)
	}
	return t, nil
}
