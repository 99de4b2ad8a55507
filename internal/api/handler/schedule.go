package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
)

type ScheduleHandler struct {
	scheduleService ScheduleServiceInterface
}

func NewScheduleHandler(scheduleService ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

type CreateScheduleRequest struct {
	RouteName   string `json:"route_name" validate:"required" example:"ঢাকা - চট্টগ্রাম Express"`
	Origin      string `json:"origin" validate:"required" example:"Dhaka"`
	Destination string `json:"destination" validate:"required" example:"Chattogram"`
	BusNumber   string `json:"bus_number" validate:"required" example:"DH-METRO-1234"`
	DepartAt    string `json:"depart_at" validate:"required" example:"2026-01-15T08:00:00+06:00"`
	ArriveAt    string `json:"arrive_at" validate:"required" example:"2026-01-15T14:30:00+06:00"`
	TotalSeats  int    `json:"total_seats" validate:"required,gt=0" example:"40"`
}

type ScheduleResponse struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RouteName   string `json:"route_name" example:"ঢাকা - চট্টগ্রাম Express"`
	Origin      string `json:"origin" example:"Dhaka"`
	Destination string `json:"destination" example:"Chattogram"`
	BusNumber   string `json:"bus_number" example:"DH-METRO-1234"`
	DepartAt    string `json:"depart_at" example:"2026-01-15T08:00:00+06:00"`
	ArriveAt    string `json:"arrive_at" example:"2026-01-15T14:30:00+06:00"`
	TotalSeats  int    `json:"total_seats" example:"40"`
	CreatedAt   string `json:"created_at" example:"2026-01-01T10:00:00+06:00"`
	UpdatedAt   string `json:"updated_at" example:"2026-01-01T10:00:00+06:00"`
}

func toScheduleResponse(s *schedule.Schedule) *ScheduleResponse {
	return &ScheduleResponse{
		ID:          s.ID,
		RouteName:   s.RouteName,
		Origin:      s.Origin,
		Destination: s.Destination,
		BusNumber:   s.BusNumber,
		DepartAt:    s.DepartAt.Format(time.RFC3339),
		ArriveAt:    s.ArriveAt.Format(time.RFC3339),
		TotalSeats:  s.TotalSeats,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary 運行便を作成
// @Description 新しい運行便を作成します
// @Tags schedules
// @Accept json
// @Produce json
// @Param request body CreateScheduleRequest true "運行便情報"
// @Success 201 {object} ScheduleResponse
// @Failure 400 {object} map[string]string
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c echo.Context) error {
	var req CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}

	departAt, err := time.Parse(time.RFC3339, req.DepartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "出発時刻の形式が不正です"})
	}
	arriveAt, err := time.Parse(time.RFC3339, req.ArriveAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "到着時刻の形式が不正です"})
	}

	input := application.CreateScheduleInput{
		RouteName:   req.RouteName,
		Origin:      req.Origin,
		Destination: req.Destination,
		BusNumber:   req.BusNumber,
		DepartAt:    departAt,
		ArriveAt:    arriveAt,
		TotalSeats:  req.TotalSeats,
	}

	s, err := h.scheduleService.CreateSchedule(c.Request().Context(), input)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, toScheduleResponse(s))
}

// GetByID godoc
// @Summary 運行便を取得
// @Description 指定IDの運行便を取得します
// @Tags schedules
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {object} ScheduleResponse
// @Failure 404 {object} map[string]string
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	s, err := h.scheduleService.GetSchedule(c.Request().Context(), id)
	if err != nil {
		if err == schedule.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "運行便が見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toScheduleResponse(s))
}

// List godoc
// @Summary 運行便一覧を取得
// @Description 運行便の一覧を取得します
// @Tags schedules
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ScheduleResponse
// @Router /schedules [get]
func (h *ScheduleHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	schedules, err := h.scheduleService.ListSchedules(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]*ScheduleResponse, len(schedules))
	for i, s := range schedules {
		responses[i] = toScheduleResponse(s)
	}
	return c.JSON(http.StatusOK, responses)
}

// Update godoc
// @Summary 運行便を更新
// @Description 指定IDの運行便を更新します
// @Tags schedules
// @Accept json
// @Produce json
// @Param id path string true "運行便ID"
// @Param request body CreateScheduleRequest true "運行便情報"
// @Success 200 {object} ScheduleResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}

	departAt, err := time.Parse(time.RFC3339, req.DepartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "出発時刻の形式が不正です"})
	}
	arriveAt, err := time.Parse(time.RFC3339, req.ArriveAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "到着時刻の形式が不正です"})
	}

	input := application.UpdateScheduleInput{
		ID:          id,
		RouteName:   req.RouteName,
		Origin:      req.Origin,
		Destination: req.Destination,
		BusNumber:   req.BusNumber,
		DepartAt:    departAt,
		ArriveAt:    arriveAt,
		TotalSeats:  req.TotalSeats,
	}

	s, err := h.scheduleService.UpdateSchedule(c.Request().Context(), input)
	if err != nil {
		if err == schedule.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "運行便が見つかりません"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toScheduleResponse(s))
}

// Delete godoc
// @Summary 運行便を削除
// @Description 指定IDの運行便を削除します
// @Tags schedules
// @Param id path string true "運行便ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	err := h.scheduleService.DeleteSchedule(c.Request().Context(), id)
	if err != nil {
		if err == schedule.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "運行便が見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
