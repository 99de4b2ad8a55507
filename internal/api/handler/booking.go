package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type BookingResponse struct {
	ID             string     `json:"id"`
	ScheduleID     string     `json:"schedule_id"`
	SeatIDs        []string   `json:"seat_ids"`
	PassengerName  string     `json:"passenger_name"`
	PassengerPhone string     `json:"passenger_phone"`
	TransactionID  string     `json:"transaction_id"`
	Amount         int        `json:"amount"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		ScheduleID:     b.ScheduleID,
		SeatIDs:        b.SeatIDs,
		PassengerName:  b.PassengerName,
		PassengerPhone: b.PassengerPhone,
		TransactionID:  b.TransactionID,
		Amount:         b.Amount,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt,
		CancelledAt:    b.CancelledAt,
	}
}

func (h *BookingHandler) GetByID(c echo.Context) error {
	bk, err := h.service.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(bk))
}

// GetByTransactionID はトランザクションIDで予約を検索する
// 決済確定後に予約IDを知らないクライアントが参照に使う
func (h *BookingHandler) GetByTransactionID(c echo.Context) error {
	transactionID := c.QueryParam("transaction_id")
	if transactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_idが必要です")
	}
	bk, err := h.service.GetBookingByTransactionID(c.Request().Context(), transactionID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(bk))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 確定済みの予約をキャンセルし、座席を空席に戻します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセル済み"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	bk, err := h.service.CancelBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, booking.ErrBookingAlreadyCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toBookingResponse(bk))
}
