package export

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrExportNotFound  = fmt.Errorf("report has not been exported: %w", apperr.ErrNotFound)
	ErrExportNotReady  = fmt.Errorf("report export is still running: %w", apperr.ErrInvalidState)
	ErrExportFailed    = fmt.Errorf("report export failed, request it again: %w", apperr.ErrInvalidState)
	ErrStorageDisabled = fmt.Errorf("document storage is not configured: %w", apperr.ErrInvalidState)
)
