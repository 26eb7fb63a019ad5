package jobs

import (
	"errors"
	"log"
	"time"

	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/services"
)

// CompleteElapsedSessions moves paid bookings whose session time has passed
// to completed and releases their escrow, unless an open dispute holds it.
func CompleteElapsedSessions() {
	log.Println("Running job: CompleteElapsedSessions...")

	var elapsed []models.Booking
	err := database.DB.
		Where("status = ? AND end_at < ?", models.BookingPaid, time.Now()).
		Find(&elapsed).Error
	if err != nil {
		log.Printf("Error checking for elapsed sessions: %v", err)
		return
	}

	if len(elapsed) == 0 {
		return
	}

	completed := 0
	for _, booking := range elapsed {
		if err := services.CompleteBooking(booking.ID); err != nil {
			var transition *services.InvalidStateTransitionError
			if errors.As(err, &transition) {
				// Another sweep or an admin got there first.
				continue
			}
			log.Printf("Error completing booking %s: %v", booking.ID, err)
			continue
		}
		completed++
	}

	log.Printf("Completed %d elapsed booking(s).", completed)
}
