package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
)

// ownerTokenHeader はロック所有者を識別するヘッダー
const ownerTokenHeader = "X-Owner-Token"

type LockHandler struct {
	service LockServiceInterface
}

func NewLockHandler(s LockServiceInterface) *LockHandler {
	return &LockHandler{service: s}
}

type AcquireLockRequest struct {
	ScheduleID string   `json:"schedule_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1" example:"seat-A1,seat-A2"`
}

type ExtendLockRequest struct {
	AdditionalSeconds int `json:"additional_seconds" validate:"required,gt=0" example:"300"`
}

type LockResponse struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"schedule_id"`
	SeatIDs    []string  `json:"seat_ids"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConflictResponse は座席競合時のレスポンス
// 確保できなかった座席IDを含む
type ConflictResponse struct {
	Error              string   `json:"error"`
	UnavailableSeatIDs []string `json:"unavailable_seat_ids"`
}

func toLockResponse(l *seatlock.SeatLock) LockResponse {
	return LockResponse{
		ID: l.ID, ScheduleID: l.ScheduleID, SeatIDs: l.SeatIDs,
		Status: string(l.Status), ExpiresAt: l.ExpiresAt, CreatedAt: l.CreatedAt,
	}
}

// Acquire godoc
// @Summary 座席を仮押さえ
// @Description 指定座席を一括でロックします（既定10分間有効）
// @Tags locks
// @Accept json
// @Produce json
// @Param X-Owner-Token header string true "オーナートークン"
// @Param request body AcquireLockRequest true "ロック情報"
// @Success 201 {object} LockResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "運行便または座席が存在しない"
// @Failure 409 {object} ConflictResponse "座席が確保できない"
// @Router /locks [post]
func (h *LockHandler) Acquire(c echo.Context) error {
	ownerToken := c.Request().Header.Get(ownerTokenHeader)
	if ownerToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "オーナートークンが必要です")
	}
	var req AcquireLockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lock, err := h.service.AcquireLock(c.Request().Context(), application.AcquireLockInput{
		ScheduleID: req.ScheduleID,
		SeatIDs:    req.SeatIDs,
		OwnerToken: ownerToken,
	})
	if err != nil {
		var conflict *seatlock.ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusConflict, ConflictResponse{
				Error:              conflict.Error(),
				UnavailableSeatIDs: conflict.UnavailableSeatIDs,
			})
		}
		if errors.Is(err, schedule.ErrScheduleNotFound) || errors.Is(err, seat.ErrSeatNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, schedule.ErrScheduleNotOpen) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toLockResponse(lock))
}

// GetByID godoc
// @Summary ロックを取得
// @Description 指定IDのロックを取得します（所有者のみ）
// @Tags locks
// @Produce json
// @Param X-Owner-Token header string true "オーナートークン"
// @Param id path string true "ロックID"
// @Success 200 {object} LockResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /locks/{id} [get]
func (h *LockHandler) GetByID(c echo.Context) error {
	ownerToken := c.Request().Header.Get(ownerTokenHeader)
	if ownerToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "オーナートークンが必要です")
	}
	lock, err := h.service.GetLock(c.Request().Context(), c.Param("id"), ownerToken)
	if err != nil {
		return lockErrorResponse(err)
	}
	return c.JSON(http.StatusOK, toLockResponse(lock))
}

// Release godoc
// @Summary ロックを解放
// @Description ロックを解放し、座席を空席に戻します（冪等）
// @Tags locks
// @Param X-Owner-Token header string true "オーナートークン"
// @Param id path string true "ロックID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /locks/{id} [delete]
func (h *LockHandler) Release(c echo.Context) error {
	ownerToken := c.Request().Header.Get(ownerTokenHeader)
	if ownerToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "オーナートークンが必要です")
	}
	if err := h.service.ReleaseLock(c.Request().Context(), c.Param("id"), ownerToken); err != nil {
		return lockErrorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Extend godoc
// @Summary ロックを延長
// @Description 保持中のロックの有効期限を延長します
// @Tags locks
// @Accept json
// @Produce json
// @Param X-Owner-Token header string true "オーナートークン"
// @Param id path string true "ロックID"
// @Param request body ExtendLockRequest true "延長時間"
// @Success 200 {object} LockResponse
// @Failure 400 {object} map[string]string
// @Failure 410 {object} map[string]string "ロック期限切れ"
// @Router /locks/{id}/extend [post]
func (h *LockHandler) Extend(c echo.Context) error {
	ownerToken := c.Request().Header.Get(ownerTokenHeader)
	if ownerToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "オーナートークンが必要です")
	}
	var req ExtendLockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lock, err := h.service.ExtendLock(c.Request().Context(), c.Param("id"), ownerToken,
		time.Duration(req.AdditionalSeconds)*time.Second)
	if err != nil {
		return lockErrorResponse(err)
	}
	return c.JSON(http.StatusOK, toLockResponse(lock))
}

// lockErrorResponse はロック操作のエラーをHTTPステータスに変換する
func lockErrorResponse(err error) error {
	switch {
	case errors.Is(err, seatlock.ErrLockNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, seatlock.ErrNotLockOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, seatlock.ErrLockExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, seatlock.ErrLockNotHeld):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
