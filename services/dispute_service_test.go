package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAdmin(t *testing.T) models.User {
	t.Helper()

	admin := models.User{
		FullName: "Ada Admin",
		Email:    uuid.New().String()[:8] + "-admin@tutorlink.test",
		Password: "hashed",
		Role:     "admin",
	}
	require.NoError(t, database.DB.Create(&admin).Error)
	return admin
}

func TestOpenDisputeRequiresPaidBooking(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	start, end := nextSlot(10)

	booking, err := CreateBooking(learner.ID, tutor.UserID, start, end, nil)
	require.NoError(t, err)

	_, err = OpenDispute(learner.ID, booking.ID, "never happened")
	var terr *InvalidStateTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.BookingPending, terr.From)
}

func TestOpenDisputeLearnerOnly(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	stranger := createLearner(t)
	tutor := createTutor(t, 5000)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)

	_, err := OpenDispute(stranger.ID, booking.ID, "not my session")
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)
}

func TestOpenDisputeOncePerBooking(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)

	_, err := OpenDispute(learner.ID, booking.ID, "tutor was twenty minutes late")
	require.NoError(t, err)
	_, err = OpenDispute(learner.ID, booking.ID, "still unhappy")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestOpenDisputeAfterReleaseReescrowsFunds(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	// The sweep completes the session and releases the escrow before the
	// learner gets around to disputing.
	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	backdateBooking(t, booking.ID)
	require.NoError(t, CompleteBooking(booking.ID))

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	require.EqualValues(t, 5000, summary.AvailablePence)

	dispute, err := OpenDispute(learner.ID, booking.ID, "tutor left halfway through")
	require.NoError(t, err)

	// The released funds are back on hold and no longer withdrawable.
	entry := originEntry(t, booking.ID)
	assert.EqualValues(t, 5000, entry.AmountPence)
	assert.Nil(t, entry.ReleasedAt)

	withdrawable, err := WithdrawableBalance(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, withdrawable)

	// And resolution can still route them either way.
	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomeFullRefund, nil))

	summary, err = Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.PendingPence)
	assert.EqualValues(t, 0, summary.AvailablePence)
}

func TestOpenDisputeRejectedOncePaidOut(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	backdateBooking(t, booking.ID)
	require.NoError(t, CompleteBooking(booking.ID))

	request, err := CreateWithdrawalRequest(tutor.UserID, 5000)
	require.NoError(t, err)
	require.NoError(t, ApproveWithdrawalRequest(request.ID, nil))
	require.NoError(t, MarkWithdrawalPaid(request.ID, nil))

	_, err = OpenDispute(learner.ID, booking.ID, "too late now")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestSubmitEvidenceOncePerParty(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "session cut short")
	require.NoError(t, err)

	url := "https://files.tutorlink.test/evidence/screenshot.png"
	require.NoError(t, SubmitEvidence(dispute.ID, learner.ID, "call log attached", &url))
	require.NoError(t, SubmitEvidence(dispute.ID, tutor.UserID, "connection dropped on my side, offered to rebook", nil))

	var verr *ValidationError
	require.ErrorAs(t, SubmitEvidence(dispute.ID, learner.ID, "one more thing", nil), &verr)

	stranger := createLearner(t)
	var aerr *AuthorizationError
	require.ErrorAs(t, SubmitEvidence(dispute.ID, stranger.ID, "me too", nil), &aerr)

	var stored models.Dispute
	require.NoError(t, database.DB.First(&stored, "id = ?", dispute.ID).Error)
	require.NotNil(t, stored.LearnerEvidence)
	assert.Equal(t, "call log attached", *stored.LearnerEvidence)
	require.NotNil(t, stored.LearnerAttachmentURL)
	require.NotNil(t, stored.TutorEvidence)
	require.NotNil(t, stored.LearnerSubmittedAt)
	require.NotNil(t, stored.TutorSubmittedAt)
}

func TestResolveDisputeReleaseToTutor(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "materials were not provided")
	require.NoError(t, err)

	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomeReleaseToTutor, nil))

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, summary.AvailablePence)
	assert.EqualValues(t, 0, summary.PendingPence)

	var resolved models.Dispute
	require.NoError(t, database.DB.First(&resolved, "id = ?", dispute.ID).Error)
	assert.Equal(t, models.DisputeResolved, resolved.Status)
	require.NotNil(t, resolved.Outcome)
	assert.Equal(t, models.OutcomeReleaseToTutor, *resolved.Outcome)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, admin.ID, *resolved.ResolvedBy)
}

func TestResolveDisputeFullRefund(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "tutor never joined")
	require.NoError(t, err)

	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomeFullRefund, nil))

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.PendingPence)
	assert.EqualValues(t, 0, summary.AvailablePence)

	entry := models.LedgerEntry{}
	require.NoError(t, database.DB.First(&entry, "booking_id = ?", booking.ID).Error)
	assert.Equal(t, models.EntryRefunded, entry.State)
}

func TestResolveDisputeHeldThenPartialRefund(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	// Dispute opened before the session completes, so completion defers the
	// release and resolution alone moves the money.
	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "only half the session was delivered")
	require.NoError(t, err)
	backdateBooking(t, booking.ID)
	require.NoError(t, CompleteBooking(booking.ID))

	refund := int64(2000)
	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomePartialRefund, &refund))

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.PendingPence)
	assert.EqualValues(t, 3000, summary.AvailablePence)

	var total int64
	require.NoError(t, database.DB.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_pence), 0)").
		Where("booking_id = ?", booking.ID).
		Scan(&total).Error)
	assert.EqualValues(t, 5000, total)
}

func TestResolveDisputePartialRefundBounds(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "overcharged")
	require.NoError(t, err)

	tooMuch := int64(5001)
	err = ResolveDispute(dispute.ID, admin.ID, models.OutcomePartialRefund, &tooMuch)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// The failed resolution rolled back entirely: the dispute is still open
	// and the entry still escrowed.
	var stored models.Dispute
	require.NoError(t, database.DB.First(&stored, "id = ?", dispute.ID).Error)
	assert.Equal(t, models.DisputeOpen, stored.Status)

	entry := originEntry(t, booking.ID)
	assert.EqualValues(t, 5000, entry.AmountPence)

	err = ResolveDispute(dispute.ID, admin.ID, models.OutcomePartialRefund, nil)
	require.ErrorAs(t, err, &verr)
}

func TestCompletionAfterResolutionOnlyFlipsStatus(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "no show")
	require.NoError(t, err)
	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomeFullRefund, nil))

	// The escrowed entry was settled at resolution; the sweep still
	// completes the booking.
	backdateBooking(t, booking.ID)
	require.NoError(t, CompleteBooking(booking.ID))

	var completed models.Booking
	require.NoError(t, database.DB.First(&completed, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingCompleted, completed.Status)

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.AvailablePence)
	assert.EqualValues(t, 0, summary.PendingPence)
}

func TestResolveDisputeIsTerminal(t *testing.T) {
	setupTestDB(t)
	learner := createLearner(t)
	tutor := createTutor(t, 5000)
	admin := createAdmin(t)

	booking := createPaidBooking(t, learner.ID, tutor.UserID, 10)
	dispute, err := OpenDispute(learner.ID, booking.ID, "poor quality session")
	require.NoError(t, err)

	require.NoError(t, ResolveDispute(dispute.ID, admin.ID, models.OutcomeFullRefund, nil))

	err = ResolveDispute(dispute.ID, admin.ID, models.OutcomeReleaseToTutor, nil)
	var terr *InvalidStateTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.DisputeResolved, terr.From)

	// No second ledger movement happened.
	var entry models.LedgerEntry
	require.NoError(t, database.DB.First(&entry, "booking_id = ?", booking.ID).Error)
	assert.Equal(t, models.EntryRefunded, entry.State)
}
