package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Auth         *service.AuthService
	Patients     *service.PatientService
	Doctors      *service.DoctorService
	Catalog      *service.CatalogService
	Appointments *service.AppointmentService
	Tokens       middleware.TokenValidator
	DB           Pinger
	Metrics      *metrics.Collector
	Log          *zap.Logger
	Version      string

	BodyLimit int64
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter       middleware.Limiter
	RateLimitFailOpen bool
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = false

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Logger(d.Log),
		middleware.Metrics(d.Metrics),
		middleware.SecurityHeaders(),
		middleware.BodyLimit(d.BodyLimit),
	)
	if d.RateLimiter != nil {
		r.Use(middleware.RateLimit(d.RateLimiter, d.RateLimitFailOpen, d.Metrics, d.Log))
	}

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	health := NewHealthHandler(d.DB, d.Version, d.Log)
	authH := NewAuthHandler(d.Auth, d.Log)
	patients := NewPatientHandler(d.Patients, d.Log)
	doctors := NewDoctorHandler(d.Doctors, d.Appointments, d.Log)
	catalog := NewCatalogHandler(d.Catalog, d.Log)
	appointments := NewAppointmentHandler(d.Appointments, d.Log)

	api := r.Group("/api")
	api.GET("/health", health.Check)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authH.Register)
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/refresh", authH.Refresh)

	// Reference data is readable without a token so the booking page can render.
	api.GET("/doctors", doctors.List)
	api.GET("/doctors/:id", doctors.Get)
	api.GET("/doctors/:id/availability", doctors.Availability)
	api.GET("/services", catalog.ListServices)
	api.GET("/medical-aids", catalog.ListMedicalAids)

	staff := []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RoleReceptionist}

	authed := api.Group("", middleware.Authenticate(d.Tokens))
	authed.POST("/auth/change-password", authH.ChangePassword)

	authed.GET("/patients", middleware.RequireRoles(staff...), patients.List)
	authed.POST("/patients", middleware.RequireRoles(staff...), patients.Create)
	authed.GET("/patients/:id", patients.Get)
	authed.PUT("/patients/:id", patients.Update)
	authed.DELETE("/patients/:id", middleware.RequireRoles(staff...), patients.Deactivate)

	authed.POST("/doctors", middleware.RequireRoles(domain.RoleAdmin), doctors.Create)
	authed.PUT("/doctors/:id", middleware.RequireRoles(domain.RoleAdmin, domain.RoleDoctor), doctors.Update)

	authed.POST("/services", middleware.RequireRoles(domain.RoleAdmin), catalog.CreateService)
	authed.PUT("/services/:id", middleware.RequireRoles(domain.RoleAdmin), catalog.UpdateService)
	authed.POST("/medical-aids", middleware.RequireRoles(domain.RoleAdmin), catalog.CreateMedicalAid)

	authed.POST("/appointments", appointments.Book)
	authed.GET("/appointments", appointments.List)
	authed.GET("/appointments/:id", appointments.Get)
	authed.PATCH("/appointments/:id", appointments.Patch)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found"})
	})

	return r
}
