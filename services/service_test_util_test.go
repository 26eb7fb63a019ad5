package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tutor{},
		&models.AvailabilityRule{},
		&models.TuitionRequest{},
		&models.Booking{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.Dispute{},
		&models.WithdrawalRequest{},
	))

	database.DB = db
}

func createLearner(t *testing.T) models.User {
	t.Helper()

	learner := models.User{
		FullName: "Lena Learner",
		Email:    fmt.Sprintf("learner-%s@example.com", uuid.New().String()[:8]),
		Password: "hashed",
		Role:     "learner",
	}
	require.NoError(t, database.DB.Create(&learner).Error)
	return learner
}

// createTutor seeds an active tutor with round-the-clock availability and
// bank details on file.
func createTutor(t *testing.T, hourlyRatePence int64) models.Tutor {
	t.Helper()

	user := models.User{
		FullName: "Tom Tutor",
		Email:    fmt.Sprintf("tutor-%s@example.com", uuid.New().String()[:8]),
		Password: "hashed",
		Role:     "tutor",
	}
	require.NoError(t, database.DB.Create(&user).Error)

	holder := "Tom Tutor"
	bank := "Barclays"
	account := "12345678"
	sort := "20-00-00"
	tutor := models.Tutor{
		UserID:            user.ID,
		Status:            "active",
		HourlyRatePence:   hourlyRatePence,
		BankAccountHolder: &holder,
		BankName:          &bank,
		BankAccountNumber: &account,
		BankSortCode:      &sort,
	}
	require.NoError(t, database.DB.Create(&tutor).Error)

	for weekday := 0; weekday < 7; weekday++ {
		rule := models.AvailabilityRule{
			TutorID:     user.ID,
			Weekday:     weekday,
			StartMinute: 0,
			EndMinute:   1440,
		}
		require.NoError(t, database.DB.Create(&rule).Error)
	}

	return tutor
}

// nextSlot returns a one-hour slot starting tomorrow at the given hour.
func nextSlot(hour int) (time.Time, time.Time) {
	day := time.Now().AddDate(0, 0, 1)
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour)
}

// createPaidBooking drives a booking through creation and payment
// confirmation, leaving one escrowed ledger entry.
func createPaidBooking(t *testing.T, learnerID, tutorID uuid.UUID, hour int) *models.Booking {
	t.Helper()

	start, end := nextSlot(hour)
	booking, err := CreateBooking(learnerID, tutorID, start, end, nil)
	require.NoError(t, err)

	eventID := uuid.New().String()
	paid, applied, err := ConfirmPayment(booking.ID, &eventID)
	require.NoError(t, err)
	require.True(t, applied)
	return paid
}

// backdateBooking moves a booking's session into the past so the completion
// path can run.
func backdateBooking(t *testing.T, bookingID uuid.UUID) {
	t.Helper()

	end := time.Now().Add(-time.Hour)
	start := end.Add(-time.Hour)
	require.NoError(t, database.DB.Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]interface{}{"start_at": start, "end_at": end}).Error)
}

func originEntry(t *testing.T, bookingID uuid.UUID) models.LedgerEntry {
	t.Helper()

	var entry models.LedgerEntry
	require.NoError(t, database.DB.First(&entry, "booking_id = ? AND state = ?", bookingID, models.EntryPendingRelease).Error)
	return entry
}
