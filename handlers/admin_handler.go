package handlers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/notifications"
	"github.com/jmwangi/tutorlink/services"
)

func ListOpenDisputes(c *fiber.Ctx) error {
	var disputes []models.Dispute
	database.DB.
		Preload("Booking.Learner").
		Preload("Booking.Tutor").
		Where("status = ?", models.DisputeOpen).
		Order("created_at asc").
		Find(&disputes)
	return c.JSON(disputes)
}

type ResolveDisputeRequest struct {
	Outcome           string `json:"outcome" validate:"required,oneof=release_payment_to_tutor full_refund partial_refund"`
	RefundAmountPence *int64 `json:"refund_amount_pence,omitempty" validate:"omitempty,gt=0"`
}

func ResolveDispute(c *fiber.Ctx) error {
	adminID := currentUserID(c)
	disputeID, err := uuid.Parse(c.Params("disputeId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dispute ID"})
	}

	var req ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Outcome == models.OutcomePartialRefund && req.RefundAmountPence == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A refund amount is required for a partial refund"})
	}

	if err := services.ResolveDispute(disputeID, adminID, req.Outcome, req.RefundAmountPence); err != nil {
		return respondServiceError(c, err)
	}

	go func() {
		var dispute models.Dispute
		if dbErr := database.DB.Preload("Booking.Learner").Preload("Booking.Tutor").First(&dispute, "id = ?", disputeID).Error; dbErr == nil {
			notifications.SendEmail(dispute.Booking.Learner.FullName, dispute.Booking.Learner.Email,
				"Your Dispute Has Been Resolved",
				"<h1>Dispute Resolved</h1><p>An admin has reviewed and resolved your dispute. Check your dashboard for the outcome.</p>")
			notifications.SendEmail(dispute.Booking.Tutor.FullName, dispute.Booking.Tutor.Email,
				"A Dispute Has Been Resolved",
				"<h1>Dispute Resolved</h1><p>The dispute on one of your sessions has been resolved. Check your wallet for the outcome.</p>")
		}
	}()

	return c.JSON(fiber.Map{"message": "Dispute resolved."})
}

func ListWithdrawalRequests(c *fiber.Ctx) error {
	status := c.Query("status", models.WithdrawalPending)

	var requests []models.WithdrawalRequest
	database.DB.
		Preload("Tutor.User").
		Where("status = ?", status).
		Order("requested_at asc").
		Find(&requests)
	return c.JSON(requests)
}

type ProcessWithdrawalRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func ApproveWithdrawalRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var req ProcessWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var notes *string
	if req.AdminNotes != "" {
		notes = &req.AdminNotes
	}

	if err := services.ApproveWithdrawalRequest(requestID, notes); err != nil {
		return respondServiceError(c, err)
	}

	notifyWithdrawalStatus(requestID, "Your Withdrawal Request Was Approved",
		"<h1>Withdrawal Approved</h1><p>Your withdrawal request has been approved. The payout will be sent shortly.</p>")

	return c.JSON(fiber.Map{"message": "Withdrawal request approved."})
}

func RejectWithdrawalRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var req ProcessWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var notes *string
	if req.AdminNotes != "" {
		notes = &req.AdminNotes
	}

	if err := services.RejectWithdrawalRequest(requestID, notes); err != nil {
		return respondServiceError(c, err)
	}

	notifyWithdrawalStatus(requestID, "Update on Your Withdrawal Request",
		"<h1>Withdrawal Request Update</h1><p>Your withdrawal request was not approved. The amount is available to request again.</p>")

	return c.JSON(fiber.Map{"message": "Withdrawal request rejected."})
}

type MarkPaidRequest struct {
	PayoutRef string `json:"payout_ref"`
}

func MarkWithdrawalPaid(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var req MarkPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var payoutRef *string
	if req.PayoutRef != "" {
		payoutRef = &req.PayoutRef
	}

	if err := services.MarkWithdrawalPaid(requestID, payoutRef); err != nil {
		return respondServiceError(c, err)
	}

	notifyWithdrawalStatus(requestID, "Your Payout Has Been Sent",
		"<h1>Payout Sent</h1><p>Your withdrawal has been paid out to your bank account on file.</p>")

	return c.JSON(fiber.Map{"message": "Withdrawal marked as paid."})
}

func notifyWithdrawalStatus(requestID uuid.UUID, subject, body string) {
	go func() {
		var request models.WithdrawalRequest
		if err := database.DB.Preload("Tutor.User").First(&request, "id = ?", requestID).Error; err == nil {
			notifications.SendEmail(request.Tutor.User.FullName, request.Tutor.User.Email, subject,
				fmt.Sprintf("%s<p>Amount: £%d.%02d</p>", body, request.AmountPence/100, request.AmountPence%100))
		}
	}()
}

func AdminGetAllBookings(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	status := c.Query("status")
	offset := (page - 1) * limit

	var bookings []models.Booking
	var totalBookings int64

	query := database.DB.Model(&models.Booking{})
	countQuery := database.DB.Model(&models.Booking{})

	if status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&totalBookings)
	query.Order("created_at desc").Offset(offset).Limit(limit).Preload("Learner").Preload("Tutor").Find(&bookings)

	return c.JSON(fiber.Map{
		"data": bookings,
		"meta": fiber.Map{
			"total":     totalBookings,
			"page":      page,
			"last_page": int(math.Ceil(float64(totalBookings) / float64(limit))),
		},
	})
}

type DashboardAnalyticsResponse struct {
	TotalLearners      int64            `json:"total_learners"`
	TotalActiveTutors  int64            `json:"total_active_tutors"`
	EscrowedPence      int64            `json:"escrowed_pence"`
	ReleasedPence      int64            `json:"released_pence"`
	OpenDisputes       int64            `json:"open_disputes"`
	BookingsLast30Days int64            `json:"bookings_last_30_days"`
	RecentBookings     []models.Booking `json:"recent_bookings"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse

	database.DB.Model(&models.User{}).Where("role = ?", "learner").Count(&response.TotalLearners)
	database.DB.Model(&models.Tutor{}).Where("status = ?", "active").Count(&response.TotalActiveTutors)

	database.DB.Model(&models.LedgerEntry{}).Where("state = ?", models.EntryPendingRelease).
		Select("COALESCE(SUM(amount_pence), 0)").Scan(&response.EscrowedPence)
	database.DB.Model(&models.LedgerEntry{}).Where("state IN ?", []string{models.EntryAvailable, models.EntryWithdrawn}).
		Select("COALESCE(SUM(amount_pence), 0)").Scan(&response.ReleasedPence)

	database.DB.Model(&models.Dispute{}).Where("status = ?", models.DisputeOpen).Count(&response.OpenDisputes)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Booking{}).Where("created_at > ?", thirtyDaysAgo).Count(&response.BookingsLast30Days)

	database.DB.Order("created_at desc").Limit(5).Preload("Learner").Preload("Tutor").Find(&response.RecentBookings)

	return c.JSON(response)
}
