package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/handler"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Student       *handler.StudentHandler
	Course        *handler.CourseHandler
	Enrollment    *handler.EnrollmentHandler
	Dashboard     *handler.DashboardHandler
	StudentPortal *handler.StudentPortalHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	loginLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))

	router.GET("/health", handlers.System.Health)

	authenticated := []gin.HandlerFunc{
		middleware.NoStore(),
		middleware.RequireJWT(authService),
		middleware.CheckActiveSession(authService, log),
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/register", loginLimiter.Middleware(), handlers.Auth.Register)

		me := auth.Group("", authenticated...)
		me.POST("/logout", handlers.Auth.Logout)
		me.GET("/me", handlers.Auth.Me)
		me.PUT("/password", handlers.Auth.ChangePassword)
	}

	// ─── 2. Student Group (JWT + Session + Student Role) ───────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(authenticated...)
	studentAPI.Use(middleware.RequireRole(model.RoleStudent))
	{
		studentAPI.GET("/dashboard", handlers.StudentPortal.GetDashboard)
		studentAPI.GET("/profile", handlers.StudentPortal.GetProfile)
		studentAPI.PUT("/profile", handlers.StudentPortal.UpdateProfile)
		studentAPI.GET("/courses", handlers.StudentPortal.GetCourses)
		studentAPI.POST("/courses/:id/enroll", handlers.StudentPortal.EnrollCourse)
		studentAPI.DELETE("/courses/:id/enroll", handlers.StudentPortal.DropCourse)
		studentAPI.GET("/enrollments", handlers.StudentPortal.GetEnrollments)
		studentAPI.GET("/enrollments/:id", handlers.StudentPortal.GetEnrollment)
		studentAPI.GET("/grades", handlers.StudentPortal.GetGrades)
	}

	// ─── 3. Admin Group (JWT + Session + Admin Role) ───────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(authenticated...)
	adminAPI.Use(middleware.RequireRole(model.RoleAdmin))
	{
		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)
		adminAPI.GET("/system/stats", handlers.System.GetStats)

		// User management
		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.POST("/users", handlers.User.CreateUser)
		adminAPI.POST("/users/activate-all", handlers.User.ActivateAll)
		adminAPI.POST("/users/sync-students", handlers.User.SyncStudents)
		adminAPI.POST("/users/student-accounts", handlers.User.CreateStudentAccounts)
		adminAPI.GET("/users/:id", handlers.User.GetUser)
		adminAPI.PUT("/users/:id", handlers.User.UpdateUser)
		adminAPI.DELETE("/users/:id", handlers.User.DeleteUser)

		// Student management
		adminAPI.GET("/students", handlers.Student.ListStudents)
		adminAPI.POST("/students", handlers.Student.CreateStudent)
		adminAPI.GET("/students/:id", handlers.Student.GetStudent)
		adminAPI.PUT("/students/:id", handlers.Student.UpdateStudent)
		adminAPI.DELETE("/students/:id", handlers.Student.DeleteStudent)
		adminAPI.GET("/students/:id/courses", handlers.Student.GetStudentCourses)

		// Course catalog
		adminAPI.GET("/courses", handlers.Course.ListCourses)
		adminAPI.POST("/courses", handlers.Course.CreateCourse)
		adminAPI.GET("/courses/:id", handlers.Course.GetCourse)
		adminAPI.PUT("/courses/:id", handlers.Course.UpdateCourse)
		adminAPI.DELETE("/courses/:id", handlers.Course.DeleteCourse)

		// Enrollments
		adminAPI.GET("/enrollments", handlers.Enrollment.ListEnrollments)
		adminAPI.POST("/enrollments", handlers.Enrollment.CreateEnrollment)
		adminAPI.GET("/enrollments/check", handlers.Enrollment.CheckEnrollment)
		adminAPI.GET("/enrollments/:id", handlers.Enrollment.GetEnrollment)
		adminAPI.PUT("/enrollments/:id", handlers.Enrollment.EditEnrollment)
		adminAPI.DELETE("/enrollments/:id", handlers.Enrollment.DeleteEnrollment)

		// Grades
		adminAPI.GET("/grades", handlers.Enrollment.ListGrades)
		adminAPI.POST("/grades", handlers.Enrollment.RecordGrade)
		adminAPI.GET("/grades/export", handlers.Enrollment.ExportGrades)
		adminAPI.DELETE("/grades/:id", handlers.Enrollment.DeleteEnrollment)
	}

	return router
}
