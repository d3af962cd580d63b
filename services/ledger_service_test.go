package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"eco-challenge-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifierServer(t *testing.T, verdict Verdict, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		require.Equal(t, "/api/verify-planting", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(verdict)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitEvidenceCreditsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Plant a Tree Challenge", 200)

	var calls atomic.Int64
	srv := newVerifierServer(t, Verdict{Success: true, Verified: true}, &calls)
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), stubEvidenceStore)

	outcome, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, outcome.Status)
	assert.EqualValues(t, 200, outcome.PointsAwarded)
	assert.EqualValues(t, 200, outcome.Profile.EcoPoints)
	assert.EqualValues(t, 1, outcome.Profile.CompletedChallenges)
	assert.EqualValues(t, 1, calls.Load())

	// Second submission short-circuits before the verifier is contacted.
	outcome, err = ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo2.jpg", []byte("other-bytes"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCompleted, outcome.Status)
	assert.EqualValues(t, 0, outcome.PointsAwarded)
	assert.EqualValues(t, 200, outcome.Profile.EcoPoints)
	assert.EqualValues(t, 1, calls.Load(), "already-completed submission must not call the verifier")

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Where("external_user_id = ?", "user-1").Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestApplyCompletionRaceSkipsSecondCredit(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Plant a Tree Challenge", 200)
	ledger := NewLedgerService(db, nil, stubEvidenceStore)

	// Two in-flight submissions both came back verified: only the first
	// application credits.
	_, awarded, err := ledger.applyCompletion("user-1", ch, "")
	require.NoError(t, err)
	assert.EqualValues(t, 200, awarded)

	prof, awarded, err := ledger.applyCompletion("user-1", ch, "")
	require.NoError(t, err)
	assert.EqualValues(t, 0, awarded)
	assert.EqualValues(t, 200, prof.EcoPoints)
	assert.EqualValues(t, 1, prof.CompletedChallenges)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestLateVerdictAfterCompetingCompletion(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Plant a Tree Challenge", 200)
	ledger := NewLedgerService(db, nil, stubEvidenceStore)

	// A competing submission lands its completion while this one is still
	// waiting on the verifier: the late verdict must resolve to the benign
	// already-completed outcome, never to an error or a second credit.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, awarded, err := ledger.applyCompletion("user-1", ch, "")
		require.NoError(t, err)
		require.EqualValues(t, 200, awarded)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "verified": true}`))
	}))
	t.Cleanup(srv.Close)
	ledger.Verifier = NewVerifierClient(srv.URL, "")

	outcome, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("bytes"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCompleted, outcome.Status)
	assert.EqualValues(t, 0, outcome.PointsAwarded)
	assert.EqualValues(t, 200, outcome.Profile.EcoPoints)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestAlreadyCompletedSurfacesProfileLoadFailure(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Plant a Tree Challenge", 200)

	var calls atomic.Int64
	srv := newVerifierServer(t, Verdict{Success: true, Verified: true}, &calls)
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), stubEvidenceStore)

	_, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("bytes"))
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.EcoProfile{}))

	_, err = ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo2.jpg", []byte("bytes"))
	require.Error(t, err, "a broken profile read must surface, not yield a nil profile")
	assert.EqualValues(t, 1, calls.Load(), "already-completed submission must not call the verifier")
}

func TestSubmitEvidenceRejectedIsNoOp(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Plastic-Free Week", 150)

	srv := newVerifierServer(t, Verdict{Success: true, Verified: false}, nil)
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), stubEvidenceStore)

	outcome, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("bytes"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Status)
	assert.EqualValues(t, 0, outcome.PointsAwarded)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Count(&completions).Error)
	assert.Zero(t, completions)

	var prof models.EcoProfile
	err = db.Where("external_user_id = ?", "user-1").First(&prof).Error
	assert.Error(t, err, "rejection must not create or mutate a profile")

	var sub models.EvidenceSubmission
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&sub).Error)
	assert.Equal(t, models.SubmissionRejected, sub.Status)
}

func TestSubmitEvidenceVerifierDownIsNoOp(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Water Conservation Audit", 100)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), stubEvidenceStore)

	_, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("bytes"))
	require.ErrorIs(t, err, ErrVerificationUnavailable)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Count(&completions).Error)
	assert.Zero(t, completions)

	var sub models.EvidenceSubmission
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&sub).Error)
	assert.Equal(t, models.SubmissionUnavailable, sub.Status)
}

func TestSubmitEvidenceUnknownChallenge(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil, stubEvidenceStore)

	_, err := ledger.SubmitEvidence(context.Background(), "user-1", "nope", "photo.jpg", []byte("bytes"))
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestCompletedCountStaysDerived(t *testing.T) {
	db := newTestDB(t)
	first := seedChallenge(t, db, "Plant a Tree Challenge", 200)
	second := seedChallenge(t, db, "Composting Initiative", 120)

	srv := newVerifierServer(t, Verdict{Success: true, Verified: true}, nil)
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), stubEvidenceStore)

	for _, ch := range []string{first.ID, second.ID, first.ID} {
		_, err := ledger.SubmitEvidence(context.Background(), "user-1", ch, "photo.jpg", []byte("bytes"))
		require.NoError(t, err)
	}

	var prof models.EcoProfile
	require.NoError(t, db.Where("external_user_id = ?", "user-1").First(&prof).Error)

	var completions int64
	require.NoError(t, db.Model(&models.ChallengeCompletion{}).Where("external_user_id = ?", "user-1").Count(&completions).Error)

	assert.EqualValues(t, completions, prof.CompletedChallenges)
	assert.EqualValues(t, 2, prof.CompletedChallenges)
	assert.EqualValues(t, 320, prof.EcoPoints)
}

func TestCreditLevelsUp(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil, stubEvidenceStore)

	// Level 2 needs 100*1 + floor(100*1^1.2) = 200 points.
	prof, err := ledger.Credit("user-1", 200, "test")
	require.NoError(t, err)
	assert.Equal(t, 2, prof.Level)
	assert.NotNil(t, prof.LastLevelUpAt)

	// Level 3 needs 100*2 + floor(100*2^1.2) = 429 points.
	prof, err = ledger.Credit("user-1", 228, "test")
	require.NoError(t, err)
	assert.Equal(t, 2, prof.Level)

	prof, err = ledger.Credit("user-1", 1, "test")
	require.NoError(t, err)
	assert.Equal(t, 3, prof.Level)
}

func TestEnsureProfileDefaults(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil, stubEvidenceStore)

	prof, err := ledger.EnsureProfile("user-1")
	require.NoError(t, err)
	assert.Equal(t, "User", prof.DisplayName)
	assert.EqualValues(t, 0, prof.EcoPoints)
	assert.Equal(t, 1, prof.Level)
	assert.EqualValues(t, 0, prof.CompletedChallenges)

	again, err := ledger.EnsureProfile("user-1")
	require.NoError(t, err)
	assert.Equal(t, prof.ID, again.ID)
}

func TestEvidenceStorageFailureDoesNotBlockVerification(t *testing.T) {
	db := newTestDB(t)
	ch := seedChallenge(t, db, "Energy Saving Challenge", 180)

	srv := newVerifierServer(t, Verdict{Success: true, Verified: true}, nil)
	ledger := NewLedgerService(db, NewVerifierClient(srv.URL, ""), func(string, []byte) (string, error) {
		return "", assert.AnError
	})

	outcome, err := ledger.SubmitEvidence(context.Background(), "user-1", ch.ID, "photo.jpg", []byte("bytes"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, outcome.Status)
	assert.EqualValues(t, 180, outcome.Profile.EcoPoints)
}
