package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/domain/booking"
	"github.com/danribes/go-event-booking/internal/domain/event"
	"github.com/danribes/go-event-booking/internal/pkg/logger"
)

// エラー種別（APIクライアント向けの機械可読なコード）
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindInternal   = "internal"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

var validationErrors = []error{
	booking.ErrEventIDRequired,
	booking.ErrUserIDRequired,
	booking.ErrInvalidAttendees,
	booking.ErrTooManyAttendees,
	booking.ErrInvalidTotalPrice,
	booking.ErrBookingAlreadyCancelled,
	booking.ErrBookingAlreadyAttended,
	booking.ErrBookingNotPending,
	booking.ErrBookingNotConfirmed,
	booking.ErrNotBookingOwner,
	event.ErrEventNameRequired,
	event.ErrEventDateRequired,
	event.ErrInvalidCapacity,
	event.ErrInvalidPrice,
	event.ErrInvalidAvailableSpots,
	event.ErrEventNotPublished,
	event.ErrEventAlreadyStarted,
	event.ErrCapacityBelowBooked,
}

var notFoundErrors = []error{
	booking.ErrBookingNotFound,
	event.ErrEventNotFound,
}

var conflictErrors = []error{
	booking.ErrDuplicateBooking,
	booking.ErrBookingStatusConflict,
	event.ErrInsufficientCapacity,
	event.ErrEventHasBookings,
	event.ErrOptimisticLockConflict,
}

// Kind はドメインエラーの種別を返す
func Kind(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return KindValidation
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return KindNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return KindConflict
		}
	}
	return KindInternal
}

func statusOf(kind string) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DomainHTTPError はドメインエラーを適切なHTTPエラーに変換する
// ハンドラーはサービスから返ったエラーをそのままこの関数に渡せばよい
func DomainHTTPError(err error) *echo.HTTPError {
	kind := Kind(err)
	he := echo.NewHTTPError(statusOf(kind), err.Error())
	he.Internal = err
	return he
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// すべてのエラーを {error, code, kind} のJSONで返す
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		kind    = KindInternal
		message = "内部サーバーエラー"
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
		if he.Internal != nil {
			kind = Kind(he.Internal)
		} else {
			switch code {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				kind = KindValidation
			case http.StatusNotFound:
				kind = KindNotFound
			case http.StatusConflict:
				kind = KindConflict
			}
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
		Kind:  kind,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
