package patient

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", apperr.ErrNotFound)
	ErrAccessDenied    = fmt.Errorf("access denied to this patient record: %w", apperr.ErrForbidden)
	ErrCodeExhausted   = fmt.Errorf("could not allocate a unique patient code: %w", apperr.ErrPersistence)
)
