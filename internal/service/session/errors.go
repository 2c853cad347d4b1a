package session

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrSessionNotFound = fmt.Errorf("session not found: %w", apperr.ErrNotFound)
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", apperr.ErrNotFound)
	ErrSessionClosed   = fmt.Errorf("session is closed: %w", apperr.ErrInvalidState)
	ErrAlreadyReviewed = fmt.Errorf("session already has a review: %w", apperr.ErrInvalidState)
	ErrGameDisabled    = fmt.Errorf("game is disabled for this patient: %w", apperr.ErrInvalidState)
	ErrSessionBusy     = fmt.Errorf("session is being changed by another request: %w", apperr.ErrInvalidState)
	ErrNotParticipant  = fmt.Errorf("not a participant of this session: %w", apperr.ErrForbidden)
	ErrTokenExhausted  = fmt.Errorf("could not allocate a unique session id: %w", apperr.ErrPersistence)
)
