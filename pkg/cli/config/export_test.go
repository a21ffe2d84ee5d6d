package config

// NewSimulationForTest creates a Simulation config for testing purposes
func NewSimulationForTest(path string, seed uint64, workers int) *Simulation {
	return &Simulation{path: path, seed: seed, workers: workers}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}

// NewExportForTest creates an Export config for testing purposes
func NewExportForTest(output string) *Export {
	return &Export{output: output}
}
