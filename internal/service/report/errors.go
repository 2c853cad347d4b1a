package report

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrReportNotFound  = fmt.Errorf("report not found: %w", apperr.ErrNotFound)
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", apperr.ErrNotFound)
	ErrNotOwner        = fmt.Errorf("report belongs to another therapist: %w", apperr.ErrForbidden)
)
