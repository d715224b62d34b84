package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// PaymentHistoryHandler lists the caller's payments, optionally by ?status=
func PaymentHistoryHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		payments, err := svc.PaymentHistory(ctxOf(c), middleware.CurrentUser(c), c.QueryParam("status"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.PaymentsResponse{Success: true, Payments: payments})
	}
}

func EarningsSummaryHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := svc.EarningsSummary(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.EarningsResponse{Success: true, Summary: summary})
	}
}

func CreatePaymentHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.PaymentRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		payment, err := svc.CreatePayment(ctxOf(c), middleware.CurrentUser(c), req)
		if err != nil {
			return err
		}

		middleware.Logger(c).Info("Payment recorded", map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount,
			"method":     payment.Method,
		})
		return c.JSON(http.StatusCreated, models.PaymentResponse{Success: true, Payment: payment})
	}
}

// UpdatePaymentStatusHandler settles a pending payment as completed or failed
func UpdatePaymentStatusHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.PaymentStatusRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		payment, err := svc.UpdatePaymentStatus(ctxOf(c), middleware.CurrentUser(c), c.Param("id"), req.Status)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.PaymentResponse{Success: true, Payment: payment})
	}
}
