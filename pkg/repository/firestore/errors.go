package firestore

import "github.com/secmon-lab/riskcascade/pkg/domain/interfaces"

var (
	ErrNotFound = interfaces.ErrNotFound
)
