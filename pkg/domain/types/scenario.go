package types

import "fmt"

// Scenario is the severity level of a risk realization
type Scenario string

const (
	ScenarioConsiderable Scenario = "considerable"
	ScenarioMajor        Scenario = "major"
	ScenarioExtreme      Scenario = "extreme"
)

// NumScenarios is the number of severity levels
const NumScenarios = 3

// AllScenarios returns all scenarios ordered by increasing intensity
func AllScenarios() []Scenario {
	return []Scenario{
		ScenarioConsiderable,
		ScenarioMajor,
		ScenarioExtreme,
	}
}

// IsValid checks if the scenario is valid
func (s Scenario) IsValid() bool {
	switch s {
	case ScenarioConsiderable,
		ScenarioMajor,
		ScenarioExtreme:
		return true
	default:
		return false
	}
}

// Index returns the position of the scenario in AllScenarios, or -1 if invalid
func (s Scenario) Index() int {
	switch s {
	case ScenarioConsiderable:
		return 0
	case ScenarioMajor:
		return 1
	case ScenarioExtreme:
		return 2
	default:
		return -1
	}
}

// String returns the string representation of the scenario
func (s Scenario) String() string {
	return string(s)
}

// ParseScenario parses a string into a Scenario
func ParseScenario(s string) (Scenario, error) {
	scenario := Scenario(s)
	if !scenario.IsValid() {
		return "", fmt.Errorf("invalid scenario: %s", s)
	}
	return scenario, nil
}

// ScenarioAt returns the scenario at index i of AllScenarios
func ScenarioAt(i int) Scenario {
	return AllScenarios()[i]
}
