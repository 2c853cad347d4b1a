package catalog

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrGameNotFound = fmt.Errorf("game not found: %w", apperr.ErrNotFound)
)
