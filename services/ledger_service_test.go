package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostPendingRejectsNonPositiveAmount(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	_, err := PostPending(database.DB, tutor.UserID, uuid.New(), 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = PostPending(database.DB, tutor.UserID, uuid.New(), -100)
	require.ErrorAs(t, err, &verr)
}

func TestPostPendingRejectsSecondEntryForBooking(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)
	bookingID := uuid.New()

	_, err := PostPending(database.DB, tutor.UserID, bookingID, 5000)
	require.NoError(t, err)

	_, err = PostPending(database.DB, tutor.UserID, bookingID, 5000)
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)

	var count int64
	require.NoError(t, database.DB.Model(&models.LedgerEntry{}).Where("booking_id = ?", bookingID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReleaseMovesEscrowToAvailable(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	entry, err := PostPending(database.DB, tutor.UserID, uuid.New(), 5000)
	require.NoError(t, err)

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, summary.PendingPence)
	assert.EqualValues(t, 0, summary.AvailablePence)

	require.NoError(t, Release(database.DB, entry.ID))

	summary, err = Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.PendingPence)
	assert.EqualValues(t, 5000, summary.AvailablePence)

	// Replayed release finds no escrowed row.
	err = Release(database.DB, entry.ID)
	var terr *InvalidStateTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.EntryAvailable, terr.From)
}

func TestRefundFull(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)
	bookingID := uuid.New()

	entry, err := PostPending(database.DB, tutor.UserID, bookingID, 5000)
	require.NoError(t, err)
	require.NoError(t, Refund(database.DB, entry.ID, 5000))

	var refunded models.LedgerEntry
	require.NoError(t, database.DB.First(&refunded, "id = ?", entry.ID).Error)
	assert.Equal(t, models.EntryRefunded, refunded.State)
	assert.EqualValues(t, 5000, refunded.RefundedAmountPence)
	require.NotNil(t, refunded.RefundedAt)

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.PendingPence)
	assert.EqualValues(t, 0, summary.AvailablePence)
}

func TestRefundPartialSplitsEntry(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)
	bookingID := uuid.New()

	entry, err := PostPending(database.DB, tutor.UserID, bookingID, 5000)
	require.NoError(t, err)
	require.NoError(t, Refund(database.DB, entry.ID, 2000))

	var original models.LedgerEntry
	require.NoError(t, database.DB.First(&original, "id = ?", entry.ID).Error)
	assert.Equal(t, models.EntryPartiallyRefunded, original.State)
	assert.EqualValues(t, 2000, original.AmountPence)
	assert.EqualValues(t, 2000, original.RefundedAmountPence)

	var residual models.LedgerEntry
	require.NoError(t, database.DB.First(&residual, "booking_id = ? AND state = ?", bookingID, models.EntryAvailable).Error)
	assert.EqualValues(t, 3000, residual.AmountPence)

	// Lifetime entries for the booking still sum to the original charge.
	var total int64
	require.NoError(t, database.DB.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_pence), 0)").
		Where("booking_id = ?", bookingID).
		Scan(&total).Error)
	assert.EqualValues(t, 5000, total)

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, summary.AvailablePence)
}

func TestRefundBounds(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	entry, err := PostPending(database.DB, tutor.UserID, uuid.New(), 5000)
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, Refund(database.DB, entry.ID, 0), &verr)
	require.ErrorAs(t, Refund(database.DB, entry.ID, -1), &verr)
	require.ErrorAs(t, Refund(database.DB, entry.ID, 5001), &verr)

	// The entry is untouched after the rejected attempts.
	var after models.LedgerEntry
	require.NoError(t, database.DB.First(&after, "id = ?", entry.ID).Error)
	assert.Equal(t, models.EntryPendingRelease, after.State)
	assert.EqualValues(t, 5000, after.AmountPence)
}

func TestRefundRejectsReleasedEntry(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	entry, err := PostPending(database.DB, tutor.UserID, uuid.New(), 5000)
	require.NoError(t, err)
	require.NoError(t, Release(database.DB, entry.ID))

	err = Refund(database.DB, entry.ID, 5000)
	var terr *InvalidStateTransitionError
	require.ErrorAs(t, err, &terr)
}

func TestMarkWithdrawnConsumesOldestFirstAndSplits(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	first, err := PostPending(database.DB, tutor.UserID, uuid.New(), 2000)
	require.NoError(t, err)
	require.NoError(t, Release(database.DB, first.ID))
	second, err := PostPending(database.DB, tutor.UserID, uuid.New(), 3000)
	require.NoError(t, err)
	require.NoError(t, Release(database.DB, second.ID))

	ref := "PAYOUT-001"
	require.NoError(t, MarkWithdrawn(database.DB, tutor.UserID, 3500, uuid.New(), &ref))

	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 3500, summary.WithdrawnPence)
	assert.EqualValues(t, 1500, summary.AvailablePence)

	// The older entry is consumed whole; the newer one is split.
	var consumed models.LedgerEntry
	require.NoError(t, database.DB.First(&consumed, "id = ?", first.ID).Error)
	assert.Equal(t, models.EntryWithdrawn, consumed.State)
	assert.EqualValues(t, 2000, consumed.AmountPence)
	require.NotNil(t, consumed.PayoutRef)
	assert.Equal(t, ref, *consumed.PayoutRef)

	var split models.LedgerEntry
	require.NoError(t, database.DB.First(&split, "id = ?", second.ID).Error)
	assert.Equal(t, models.EntryWithdrawn, split.State)
	assert.EqualValues(t, 1500, split.AmountPence)
}

func TestMarkWithdrawnRejectsOverdraw(t *testing.T) {
	setupTestDB(t)
	tutor := createTutor(t, 5000)

	entry, err := PostPending(database.DB, tutor.UserID, uuid.New(), 2000)
	require.NoError(t, err)
	require.NoError(t, Release(database.DB, entry.ID))

	werr := database.DB.Transaction(func(tx *gorm.DB) error {
		return MarkWithdrawn(tx, tutor.UserID, 2500, uuid.New(), nil)
	})
	var verr *ValidationError
	require.ErrorAs(t, werr, &verr)

	// The rolled-back attempt left the available entry untouched.
	summary, err := Summarize(database.DB, tutor.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, summary.AvailablePence)
}

func TestSummarizeIgnoresOtherTutors(t *testing.T) {
	setupTestDB(t)
	tutorA := createTutor(t, 5000)
	tutorB := createTutor(t, 4000)

	_, err := PostPending(database.DB, tutorA.UserID, uuid.New(), 5000)
	require.NoError(t, err)
	entry, err := PostPending(database.DB, tutorB.UserID, uuid.New(), 4000)
	require.NoError(t, err)
	require.NoError(t, Release(database.DB, entry.ID))

	summary, err := Summarize(database.DB, tutorA.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, summary.PendingPence)
	assert.EqualValues(t, 0, summary.AvailablePence)
}
