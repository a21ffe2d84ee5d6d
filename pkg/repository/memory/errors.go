package memory

import "github.com/secmon-lab/riskcascade/pkg/domain/interfaces"

var (
	ErrNotFound = interfaces.ErrNotFound
)
