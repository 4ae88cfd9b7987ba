package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware は共通ミドルウェアを設定する
// 順序に意味がある: リクエストIDを振ってからログし、
// リカバリーはハンドラーのパニックを最後に受け止める
func SetupMiddleware(e *echo.Echo) {
	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())

	// 予約APIのボディは小さいDTOのみ
	e.Use(middleware.BodyLimit("64K"))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders: []string{echo.HeaderContentType, "X-User-ID"},
		MaxAge:       300,
	}))
}
