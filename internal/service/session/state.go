package session

import (
	"strings"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

const (
	MinRating = 1
	MaxRating = 5
	maxReview = 4000
)

// Review is what attachReview writes onto a session.
type Review struct {
	Rating   int
	Text     string
	GameData *repo.GameData
}

func (r Review) validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return apperr.Invalid("rating", "must be between %d and %d, got %d", MinRating, MaxRating, r.Rating)
	}
	if len(r.Text) > maxReview {
		return apperr.Invalid("review", "longer than %d bytes", maxReview)
	}
	return nil
}

// applyReview is the guarded review transition. It leaves s untouched on error.
func applyReview(s *repo.Session, r Review, at time.Time) error {
	if s.Status == repo.SessionClosed {
		return ErrSessionClosed
	}
	if s.Reviewed() {
		return ErrAlreadyReviewed
	}
	if err := r.validate(); err != nil {
		return err
	}

	rating := r.Rating
	text := strings.TrimSpace(r.Text)
	s.Rating = &rating
	s.Review = &text
	s.ReviewedAt = &at
	if r.GameData != nil {
		gd := *r.GameData
		if gd.GameName == "" {
			gd.GameName = s.GameData.GameName
		}
		s.GameData = gd
	}
	return nil
}

// applyClose is the guarded active -> closed transition.
func applyClose(s *repo.Session, at time.Time) error {
	if s.Status == repo.SessionClosed {
		return ErrSessionClosed
	}
	s.Status = repo.SessionClosed
	s.ClosedAt = &at
	if s.GameData.Status == string(repo.SessionActive) {
		s.GameData.Status = string(repo.SessionClosed)
	}
	return nil
}
