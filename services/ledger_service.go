package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LevelConfig: points needed for *next* level (e.g., level 1 → 2 needs BasePointsPerLevel * 1^1.2)
const BasePointsPerLevel = 100

// pointsForNextLevel returns points required to reach level+1 from current level
func pointsForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BasePointsPerLevel * n^1.2)
	return int64(float64(BasePointsPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

const (
	OutcomeAlreadyCompleted = "already_completed"
	OutcomeVerified         = "verified"
	OutcomeRejected         = "rejected"
)

// SubmissionOutcome is what the handler presents back to the user after one
// evidence submission.
type SubmissionOutcome struct {
	Status        string             `json:"status"` // already_completed | verified | rejected
	Verdict       *Verdict           `json:"verdict,omitempty"`
	PointsAwarded int64              `json:"points_awarded"`
	Profile       *models.EcoProfile `json:"profile,omitempty"`
}

// LedgerService owns all writes to challenge completion state and the
// progression columns on EcoProfile. Handlers and other services never credit
// points directly.
type LedgerService struct {
	DB       *gorm.DB
	Verifier *VerifierClient

	// StoreEvidence persists the raw photo and returns its URL for the audit
	// row. Storage failure must not block verification.
	StoreEvidence func(filename string, data []byte) (string, error)
}

func NewLedgerService(db *gorm.DB, verifier *VerifierClient, store func(string, []byte) (string, error)) *LedgerService {
	return &LedgerService{DB: db, Verifier: verifier, StoreEvidence: store}
}

// EnsureProfile ensures an EcoProfile row exists for the user (idempotent).
// New rows get the documented defaults and a fire-and-forget welcome badge.
func (s *LedgerService) EnsureProfile(externalUserID string) (*models.EcoProfile, error) {
	if externalUserID == "" {
		return nil, ErrNoUser
	}
	var prof models.EcoProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prof).Error
	if err == gorm.ErrRecordNotFound {
		prof = models.EcoProfile{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			DisplayName:    "User",
			EcoPoints:      0,
			Level:          1,
		}
		if err := s.DB.Create(&prof).Error; err != nil {
			return nil, err
		}
		badgeSvc := NewBadgeService(s.DB)
		_ = badgeSvc.AutoAwardBadges(externalUserID) // fire-and-forget
		return &prof, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// SubmitEvidence runs one verification round trip for a challenge.
//
// Already-completed challenges short-circuit before the verifier is contacted.
// A rejected verdict and a verifier outage both leave every ledger row
// untouched; only a verified verdict reaches applyCompletion.
func (s *LedgerService) SubmitEvidence(ctx context.Context, externalUserID, challengeID, filename string, photo []byte) (*SubmissionOutcome, error) {
	if externalUserID == "" {
		return nil, ErrNoUser
	}

	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	// Idempotence guard at the call boundary: completed challenges never hit
	// the verifier again.
	var count int64
	if err := s.DB.Model(&models.ChallengeCompletion{}).
		Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		prof, err := s.EnsureProfile(externalUserID)
		if err != nil {
			return nil, err
		}
		return &SubmissionOutcome{Status: OutcomeAlreadyCompleted, Profile: prof}, nil
	}

	evidenceURL := ""
	if s.StoreEvidence != nil {
		url, err := s.StoreEvidence(filename, photo)
		if err != nil {
			log.Printf("⚠️ [LEDGER] Evidence storage failed for user %s, challenge %s: %v", externalUserID, challengeID, err)
		} else {
			evidenceURL = url
		}
	}

	verdict, err := s.Verifier.VerifyPhoto(ctx, filename, photo)
	if err != nil {
		s.recordSubmission(externalUserID, challengeID, evidenceURL, models.SubmissionUnavailable)
		return nil, err
	}

	if !verdict.Success || !verdict.Verified {
		s.recordSubmission(externalUserID, challengeID, evidenceURL, models.SubmissionRejected)
		log.Printf("🚫 [LEDGER] Evidence rejected: user=%s challenge=%s", externalUserID, challengeID)
		return &SubmissionOutcome{Status: OutcomeRejected, Verdict: verdict}, nil
	}

	s.recordSubmission(externalUserID, challengeID, evidenceURL, models.SubmissionVerified)

	prof, awarded, err := s.applyCompletion(externalUserID, &challenge, evidenceURL)
	if err != nil {
		return nil, err
	}

	status := OutcomeVerified
	if awarded == 0 {
		// A concurrent submission won the race; the verdict stands but no
		// second credit happens.
		status = OutcomeAlreadyCompleted
	}
	return &SubmissionOutcome{
		Status:        status,
		Verdict:       verdict,
		PointsAwarded: awarded,
		Profile:       prof,
	}, nil
}

// applyCompletion atomically flips the completion state and credits points —
// returns awarded points (0 when the completion row already existed at apply
// time, which is the no-double-credit re-check).
func (s *LedgerService) applyCompletion(externalUserID string, challenge *models.Challenge, evidenceURL string) (*models.EcoProfile, int64, error) {
	var updatedProf *models.EcoProfile
	var awarded int64

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		completion := models.ChallengeCompletion{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			ChallengeID:    challenge.ID,
			PointsAwarded:  challenge.PointValue,
			EvidenceURL:    evidenceURL,
		}
		// The unique (user, challenge) index is the apply-time re-check: when
		// a concurrent submission inserted first (a late verdict racing a
		// resubmission), the insert is a no-op and the credit is skipped.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "challenge_id"}},
			DoNothing: true,
		}).Create(&completion)
		if res.Error != nil {
			return fmt.Errorf("failed to record completion: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			awarded = 0
			return nil
		}

		var prof models.EcoProfile
		err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error
		if err == gorm.ErrRecordNotFound {
			prof = models.EcoProfile{
				ID:             uuid.NewString(),
				ExternalUserID: externalUserID,
				DisplayName:    "User",
				Level:          1,
			}
			if err := tx.Create(&prof).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		prof.EcoPoints += challenge.PointValue

		// Derived, not incremented: the count always equals the completion rows.
		var completedCount int64
		if err := tx.Model(&models.ChallengeCompletion{}).
			Where("external_user_id = ?", externalUserID).
			Count(&completedCount).Error; err != nil {
			return err
		}
		prof.CompletedChallenges = completedCount

		// Level-up logic: accumulate until enough for next level
		for prof.EcoPoints >= int64(BasePointsPerLevel)*int64(prof.Level)+pointsForNextLevel(prof.Level) {
			prof.Level++
			now := time.Now()
			prof.LastLevelUpAt = &now
		}

		if err := tx.Save(&prof).Error; err != nil {
			return err
		}

		awarded = challenge.PointValue
		updatedProf = &models.EcoProfile{}
		*updatedProf = prof

		log.Printf("🌱 Challenge credited: %s → %q, +%d points (total=%d, lvl=%d, completed=%d)",
			externalUserID, challenge.Title, awarded, prof.EcoPoints, prof.Level, prof.CompletedChallenges)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if awarded > 0 {
		badgeSvc := NewBadgeService(s.DB)
		_ = badgeSvc.AutoAwardBadges(externalUserID) // fire-and-forget
	} else {
		prof, err := s.EnsureProfile(externalUserID)
		if err != nil {
			return nil, 0, err
		}
		updatedProf = prof
	}

	return updatedProf, awarded, nil
}

// Credit awards points outside the challenge path (e.g., a finished learning
// module). Same transaction shape as applyCompletion minus the completion row.
func (s *LedgerService) Credit(externalUserID string, points int64, reason string) (*models.EcoProfile, error) {
	var updatedProf *models.EcoProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prof, err := s.CreditInTx(tx, externalUserID, points, reason)
		if err != nil {
			return err
		}
		updatedProf = prof
		return nil
	})
	if err != nil {
		return nil, err
	}

	badgeSvc := NewBadgeService(s.DB)
	_ = badgeSvc.AutoAwardBadges(externalUserID) // fire-and-forget

	return updatedProf, nil
}

// CreditInTx applies a credit inside the caller's transaction so the award
// commits or rolls back together with the caller's own rows. Badge triggers
// are the caller's responsibility after commit.
func (s *LedgerService) CreditInTx(tx *gorm.DB, externalUserID string, points int64, reason string) (*models.EcoProfile, error) {
	if externalUserID == "" {
		return nil, ErrNoUser
	}
	if points <= 0 {
		return nil, fmt.Errorf("credit must be positive, got %d", points)
	}

	var prof models.EcoProfile
	err := tx.Where("external_user_id = ?", externalUserID).First(&prof).Error
	if err == gorm.ErrRecordNotFound {
		prof = models.EcoProfile{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			DisplayName:    "User",
			Level:          1,
		}
		if err := tx.Create(&prof).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	prof.EcoPoints += points

	for prof.EcoPoints >= int64(BasePointsPerLevel)*int64(prof.Level)+pointsForNextLevel(prof.Level) {
		prof.Level++
		now := time.Now()
		prof.LastLevelUpAt = &now
	}

	if err := tx.Save(&prof).Error; err != nil {
		return nil, err
	}

	log.Printf("🎮 Points credited: %s → +%d (total=%d, lvl=%d, reason: %s)",
		externalUserID, points, prof.EcoPoints, prof.Level, reason)

	updated := prof
	return &updated, nil
}

func (s *LedgerService) recordSubmission(externalUserID, challengeID, photoURL, status string) {
	sub := models.EvidenceSubmission{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ChallengeID:    challengeID,
		PhotoURL:       photoURL,
		Status:         status,
	}
	if err := s.DB.Create(&sub).Error; err != nil {
		log.Printf("⚠️ [LEDGER] Failed to record submission audit row: %v", err)
	}
}
