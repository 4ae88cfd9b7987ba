package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/danribes/go-event-booking/internal/application"
	"github.com/danribes/go-event-booking/internal/domain/event"
)

// MockEventService implements EventServiceInterface
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) PublishEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func sampleEvent() *event.Event {
	return &event.Event{
		ID:             "event-1",
		Name:           "年末公演",
		Venue:          "東京ドーム",
		EventDate:      time.Now().Add(30 * 24 * time.Hour),
		Price:          5000,
		Capacity:       100,
		AvailableSpots: 100,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func TestEventHandler_Create(t *testing.T) {
	t.Run("正常なイベント作成は201", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(sampleEvent(), nil)

		body := `{"name":"年末公演","venue":"東京ドーム","event_date":"2026-12-31T18:00:00+09:00","price":5000,"capacity":100}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp EventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "event-1", resp.ID)
		assert.False(t, resp.IsPublished)
		mockService.AssertExpectations(t)
	})

	t.Run("開催日時の形式不正は400", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		body := `{"name":"年末公演","event_date":"2026/12/31","capacity":100}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Create(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateEvent")
	})

	t.Run("定員0は400", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		body := `{"name":"年末公演","event_date":"2026-12-31T18:00:00+09:00","capacity":0}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Create(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventHandler_GetByID(t *testing.T) {
	t.Run("存在するイベントを取得できる", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("GetEvent", mock.Anything, "event-1").Return(sampleEvent(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/event-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		require.NoError(t, h.GetByID(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("GetEvent", mock.Anything, "nonexistent").Return(nil, event.ErrEventNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := h.GetByID(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventHandler_List(t *testing.T) {
	e := NewTestEcho()
	mockService := new(MockEventService)
	h := NewEventHandler(mockService)

	mockService.On("ListEvents", mock.Anything, 10, 0).
		Return([]*event.Event{sampleEvent(), sampleEvent()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestEventHandler_Update(t *testing.T) {
	t.Run("正常な更新は200", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		updated := sampleEvent()
		updated.Capacity = 120
		updated.AvailableSpots = 120
		mockService.On("UpdateEvent", mock.Anything, mock.AnythingOfType("application.UpdateEventInput")).
			Return(updated, nil)

		body := `{"name":"年末公演","event_date":"2026-12-31T18:00:00+09:00","price":5000,"capacity":120}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/events/event-1", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp EventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 120, resp.Capacity)
	})

	t.Run("楽観的ロック競合は409", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("UpdateEvent", mock.Anything, mock.AnythingOfType("application.UpdateEventInput")).
			Return(nil, event.ErrOptimisticLockConflict)

		body := `{"name":"年末公演","event_date":"2026-12-31T18:00:00+09:00","price":5000,"capacity":100}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/events/event-1", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		err := h.Update(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("予約済み人数を下回る定員削減は400", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("UpdateEvent", mock.Anything, mock.AnythingOfType("application.UpdateEventInput")).
			Return(nil, event.ErrCapacityBelowBooked)

		body := `{"name":"年末公演","event_date":"2026-12-31T18:00:00+09:00","price":5000,"capacity":5}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/events/event-1", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		err := h.Update(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventHandler_Publish(t *testing.T) {
	e := NewTestEcho()
	mockService := new(MockEventService)
	h := NewEventHandler(mockService)

	published := sampleEvent()
	published.IsPublished = true
	mockService.On("PublishEvent", mock.Anything, "event-1").Return(published, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/event-1/publish", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("event-1")

	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsPublished)
}

func TestEventHandler_Delete(t *testing.T) {
	t.Run("予約がなければ204", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("DeleteEvent", mock.Anything, "event-1").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/event-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		require.NoError(t, h.Delete(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("有効な予約が残っていると409", func(t *testing.T) {
		e := NewTestEcho()
		mockService := new(MockEventService)
		h := NewEventHandler(mockService)

		mockService.On("DeleteEvent", mock.Anything, "event-1").Return(event.ErrEventHasBookings)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/event-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		err := h.Delete(c)
		require.Error(t, err)
		e.HTTPErrorHandler(err, c)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
