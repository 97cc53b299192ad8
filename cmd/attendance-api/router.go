package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/handler"
	"github.com/noah-isme/face-attendance-api/internal/middleware"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/internal/service"
	"github.com/noah-isme/face-attendance-api/pkg/config"
	"github.com/noah-isme/face-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/face-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/face-attendance-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth        *service.AuthService
	metrics     *service.MetricsService
	checks      map[string]handler.ReadinessCheck
	authHandler *handler.AuthHandler
	students    *handler.StudentHandler
	embeddings  *handler.EmbeddingHandler
	attendance  *handler.AttendanceHandler
	reports     *handler.ReportHandler
	exports     *handler.ExportHandler
	courses     *handler.CourseHandler
	settings    *handler.SettingsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(deps.metrics, deps.checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Authentication is enforced only when enabled; RBAC follows it.
	authn := middleware.OptionalJWT(deps.auth)
	guard := func(roles ...models.UserRole) gin.HandlerFunc {
		return func(c *gin.Context) { c.Next() }
	}
	self := func(param string, roles ...models.UserRole) gin.HandlerFunc {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Auth.Enabled {
		authn = middleware.JWT(deps.auth)
		guard = middleware.RequireRoles
		self = middleware.RoleOrSelf
	}
	staff := []models.UserRole{models.RoleAdmin, models.RoleTeacher}

	api.POST("/signup", deps.authHandler.Signup)
	api.POST("/login", deps.authHandler.Login)
	api.POST("/logout", middleware.JWT(deps.auth), deps.authHandler.Logout)
	api.GET("/metrics/summary", authn, guard(models.RoleAdmin), ops.Snapshot)

	// Kiosk endpoints used by the registration and camera screens.
	api.GET("/students/check/:studentId", deps.students.Check)
	api.POST("/attendance/mark", deps.attendance.Mark)
	recognize := middleware.NewTokenBucket(0, cfg.RateLimit.RecognizePerMinute)
	api.POST("/attendance/recognize", recognize.Middleware(), deps.attendance.Recognize)

	protected := api.Group("")
	protected.Use(authn)
	{
		protected.POST("/students/register", guard(staff...), deps.students.Register)
		protected.GET("/students/all", guard(staff...), deps.students.Images)

		protected.POST("/embeddings/save", guard(models.RoleAdmin), deps.embeddings.Save)
		protected.GET("/embeddings/latest", guard(staff...), deps.embeddings.Latest)
		protected.POST("/embeddings/rebuild", guard(models.RoleAdmin), deps.embeddings.Rebuild)

		protected.GET("/attendance/date/:date", guard(staff...), deps.attendance.ByDate)

		reports := protected.Group("/reports", guard(staff...))
		reports.GET("/today", deps.reports.Today)
		reports.GET("/weekly", deps.reports.Weekly)
		reports.GET("/monthly", deps.reports.Monthly)
		reports.GET("/courses", deps.reports.Courses)
		reports.GET("/students", deps.reports.Students)
		reports.GET("/alerts", deps.reports.Alerts)
		reports.GET("/date-range", deps.reports.DateRange)
		if deps.exports != nil {
			reports.POST("/exports", deps.exports.Create)
			reports.GET("/exports/:id", deps.exports.Status)
		}

		protected.GET("/courses", guard(staff...), deps.courses.List)
		protected.POST("/courses", guard(models.RoleAdmin), deps.courses.Create)

		protected.GET("/settings/admin/:adminId", self("adminId", models.RoleAdmin), deps.settings.Get)
		protected.PUT("/settings/admin/:adminId", self("adminId", models.RoleAdmin), deps.settings.Update)
		protected.GET("/settings/students/search", guard(staff...), deps.students.Search)
		protected.GET("/settings/students/:id", guard(staff...), deps.students.Get)
		protected.PUT("/settings/students/:id", guard(models.RoleAdmin), deps.students.Update)
	}

	// Signed download links carry their own authorization.
	if deps.exports != nil {
		api.GET("/export/:token", deps.exports.Download)
	}

	return r
}
