package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/danribes/go-event-booking/internal/api"
	"github.com/danribes/go-event-booking/internal/application"
	"github.com/danribes/go-event-booking/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Name        string `json:"name" validate:"required" example:"年末スペシャルコンサート"`
	Description string `json:"description" example:"毎年恒例の年末公演"`
	Venue       string `json:"venue" example:"東京ドーム"`
	EventDate   string `json:"event_date" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	Price       int    `json:"price" example:"5000"`
	Capacity    int    `json:"capacity" validate:"required,gt=0" example:"100"`
}

type UpdateEventRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	EventDate   string `json:"event_date" validate:"required"`
	Price       int    `json:"price"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
}

type EventResponse struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name           string `json:"name" example:"年末スペシャルコンサート"`
	Description    string `json:"description,omitempty"`
	Venue          string `json:"venue,omitempty" example:"東京ドーム"`
	EventDate      string `json:"event_date" example:"2026-12-31T18:00:00+09:00"`
	Price          int    `json:"price" example:"5000"`
	Capacity       int    `json:"capacity" example:"100"`
	AvailableSpots int    `json:"available_spots" example:"98"`
	IsPublished    bool   `json:"is_published"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Venue:          e.Venue,
		EventDate:      e.EventDate.Format(time.RFC3339),
		Price:          e.Price,
		Capacity:       e.Capacity,
		AvailableSpots: e.AvailableSpots,
		IsPublished:    e.IsPublished,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを未公開状態で作成します
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "開催日時の形式が不正です")
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		EventDate:   eventDate,
		Price:       req.Price,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	events, err := h.eventService.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return api.DomainHTTPError(err)
	}
	resp := make([]*EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary イベントを更新
// @Description イベント情報を更新します。価格変更は既存予約の合計金額に影響しません
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "更新の競合"
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "開催日時の形式が不正です")
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		EventDate:   eventDate,
		Price:       req.Price,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Publish godoc
// @Summary イベントを公開
// @Description イベントを公開し、予約受付を開始します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/publish [post]
func (h *EventHandler) Publish(c echo.Context) error {
	e, err := h.eventService.PublishEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.DomainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Description 有効な予約がないイベントを削除します
// @Tags events
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "有効な予約あり"
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.eventService.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		return api.DomainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
