package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/api/handler"
	"github.com/Joy2225/timetable/internal/api/middleware"
	"github.com/Joy2225/timetable/internal/dto"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时限流中间件放行所有请求
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidations(v); err != nil {
			logger.Fatal("注册自定义校验器失败", zap.Error(err))
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, cfg.Timetable.RateLimit, cfg.Timetable.RateWindow, logger))
	{
		// 节次时钟
		periods := v1.Group("/periods")
		{
			periods.GET("", h.Period.ListPeriods)
			periods.GET("/current", h.Period.CurrentPeriod)
			periods.GET("/next", h.Period.NextBoundary)
		}

		// 课表维护与投影
		timetables := v1.Group("/timetables")
		{
			timetables.GET("", h.Timetable.ListTimetables)
			timetables.POST("", h.Timetable.CreateTimetable)
			timetables.GET("/:key", h.Timetable.GetTimetable)
			timetables.PUT("/:key", h.Timetable.UpdateTimetable)
			timetables.DELETE("/:key", h.Timetable.DeleteTimetable)
			timetables.GET("/:key/days/:day", h.Timetable.ProjectDay)
			timetables.GET("/:key/week", h.Timetable.ProjectWeek)
			timetables.GET("/:key/export/xlsx", h.Export.ExportExcel)
			timetables.GET("/:key/export/ics", h.Export.ExportICS)
		}

		// 桌面挂件
		widgets := v1.Group("/widgets")
		{
			widgets.GET("/:id", h.Widget.GetWidget)
			widgets.PUT("/:id", h.Widget.ConfigureWidget)
			widgets.GET("/:id/render", h.Widget.RenderWidget)
		}
	}

	return r
}
