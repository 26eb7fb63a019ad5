package jobs

import (
	"errors"
	"log"
	"time"

	config "github.com/jmwangi/tutorlink/configs"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/services"
)

const defaultPendingTTLMinutes = 30

// ExpireStalePendingBookings fails unpaid reservations whose checkout never
// confirmed, so a pending booking cannot hold a slot indefinitely.
func ExpireStalePendingBookings() {
	log.Println("Running job: ExpireStalePendingBookings...")

	ttl := time.Duration(config.ConfigInt64("PENDING_BOOKING_TTL_MINUTES", defaultPendingTTLMinutes)) * time.Minute
	cutoff := time.Now().Add(-ttl)

	var stale []models.Booking
	err := database.DB.
		Where("status = ? AND created_at < ?", models.BookingPending, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error checking for stale pending bookings: %v", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	expired := 0
	for _, booking := range stale {
		if err := services.MarkBookingFailed(booking.ID); err != nil {
			var transition *services.InvalidStateTransitionError
			if errors.As(err, &transition) {
				// A late confirmation won the race; the booking stands.
				continue
			}
			log.Printf("Error expiring booking %s: %v", booking.ID, err)
			continue
		}
		expired++
	}

	log.Printf("Expired %d stale pending booking(s).", expired)
}
