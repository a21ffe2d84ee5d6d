package memory

import (
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository used by tests and local runs
type Memory struct {
	catalogue  *catalogueRepository
	statistics *statisticsRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		catalogue:  newCatalogueRepository(),
		statistics: newStatisticsRepository(),
	}
}

func (m *Memory) Catalogue() interfaces.CatalogueRepository {
	return m.catalogue
}

func (m *Memory) Statistics() interfaces.StatisticsRepository {
	return m.statistics
}

func (m *Memory) Close() error {
	return nil
}
