package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/models"
	"gorm.io/gorm"
)

// IsSlotAvailable reports whether the requested slot falls inside one of the
// tutor's published availability windows. A slot must start and end on the
// same day.
func IsSlotAvailable(db *gorm.DB, tutorID uuid.UUID, startAt, endAt time.Time) (bool, error) {
	if !endAt.After(startAt) {
		return false, nil
	}
	if startAt.Year() != endAt.Year() || startAt.YearDay() != endAt.YearDay() {
		return false, nil
	}

	startMinute := startAt.Hour()*60 + startAt.Minute()
	endMinute := endAt.Hour()*60 + endAt.Minute()

	var count int64
	err := db.Model(&models.AvailabilityRule{}).
		Where("tutor_id = ? AND weekday = ? AND start_minute <= ? AND end_minute >= ?",
			tutorID, int(startAt.Weekday()), startMinute, endMinute).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
