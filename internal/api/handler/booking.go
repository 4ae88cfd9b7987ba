package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/danribes/go-event-booking/internal/api"
	"github.com/danribes/go-event-booking/internal/application"
	"github.com/danribes/go-event-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type BookEventRequest struct {
	EventID   string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Attendees int    `json:"attendees" example:"2"`
}

type BookingResponse struct {
	ID         string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID    string     `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID     string     `json:"user_id" example:"user-123"`
	Attendees  int        `json:"attendees" example:"2"`
	TotalPrice int        `json:"total_price" example:"10000"`
	Status     string     `json:"status" example:"pending"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReminderAt *time.Time `json:"reminder_sent_at,omitempty"`
}

type CancelBookingResponse struct {
	Booking       BookingResponse `json:"booking"`
	RefundedSpots int             `json:"refunded_spots" example:"2"`
}

type CapacityResponse struct {
	EventID        string `json:"event_id"`
	Requested      int    `json:"requested" example:"2"`
	AvailableSpots int    `json:"available_spots" example:"18"`
	Capacity       int    `json:"capacity" example:"20"`
	Available      bool   `json:"available"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, EventID: b.EventID, UserID: b.UserID,
		Attendees: b.Attendees, TotalPrice: b.TotalPrice,
		Status: string(b.Status), CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt, ReminderAt: b.ReminderSentAt,
	}
}

func userIDFrom(c echo.Context) (string, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return userID, nil
}

// Create godoc
// @Summary イベントを予約
// @Description 残席をアトミックに確保して予約を作成します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body BookEventRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "残席不足または重複予約"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req BookEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Attendees == 0 {
		req.Attendees = 1
	}

	b, err := h.service.BookEvent(c.Request().Context(), application.BookEventInput{
		EventID: req.EventID, UserID: userID, Attendees: req.Attendees,
	})
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、確保していた残席を返却します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} CancelBookingResponse
// @Failure 400 {object} api.ErrorResponse "所有者不一致またはキャンセル済み"
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.CancelBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, CancelBookingResponse{
		Booking:       toBookingResponse(b),
		RefundedSpots: b.Attendees,
	})
}

// Confirm godoc
// @Summary 予約を確定
// @Description 支払い完了後に保留中の予約を確定します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	b, err := h.service.ConfirmBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Attend godoc
// @Summary 来場を記録
// @Description 確定済みの予約を来場済みにします
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id}/attend [post]
func (h *BookingHandler) Attend(c echo.Context) error {
	b, err := h.service.MarkAttended(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetUserBookings godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return api.DomainHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// CheckCapacity godoc
// @Summary 残席を確認
// @Description 指定人数分の残席があるかを返します（参照専用、予約は保証されません）
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Param attendees query int false "人数" default(1)
// @Success 200 {object} CapacityResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/capacity [get]
func (h *BookingHandler) CheckCapacity(c echo.Context) error {
	attendees := 1
	if v := c.QueryParam("attendees"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "人数の形式が不正です")
		}
		attendees = n
	}

	status, err := h.service.CheckCapacity(c.Request().Context(), c.Param("id"), attendees)
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, CapacityResponse{
		EventID:        status.EventID,
		Requested:      status.Requested,
		AvailableSpots: status.AvailableSpots,
		Capacity:       status.Capacity,
		Available:      status.Available,
	})
}
