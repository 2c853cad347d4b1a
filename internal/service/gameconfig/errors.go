package gameconfig

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrVersionConflict = fmt.Errorf("configuration was changed by someone else, reload and retry: %w", apperr.ErrInvalidState)
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", apperr.ErrNotFound)
	ErrNotOwner        = fmt.Errorf("only the patient's therapist may change game settings: %w", apperr.ErrForbidden)
)
