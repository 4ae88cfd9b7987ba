package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danribes/go-event-booking/internal/pkg/metrics"
)

func TestPrometheusMiddleware(t *testing.T) {
	t.Run("成功したリクエストを記録する", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegistry(reg)

		e := echo.New()
		e.Use(PrometheusMiddleware(m))
		e.GET("/api/v1/events", func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1),
			testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events", "200")))
	})

	t.Run("エラーのステータスコードを記録する", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegistry(reg)

		e := echo.New()
		e.Use(PrometheusMiddleware(m))
		e.GET("/api/v1/events/:id", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "見つかりません")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, float64(1),
			testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/:id", "404")))
	})

	t.Run("HTTPError以外のエラーはレスポンスのステータスを使う", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegistry(reg)

		e := echo.New()
		e.Use(PrometheusMiddleware(m))
		e.GET("/boom", func(c echo.Context) error {
			return errors.New("予期しないエラー")
		})

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
