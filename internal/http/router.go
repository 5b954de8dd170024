package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/internal/guard"
	"github.com/you/taskconsole/internal/http/handlers"
	"github.com/you/taskconsole/internal/http/middleware"
)

// Deps are the handlers and middleware the console routes need
type Deps struct {
	Auth     *handlers.AuthHandlers
	Pages    *handlers.PageHandlers
	Users    *handlers.UserHandlers
	Tasks    *handlers.TaskHandlers
	Policies *handlers.PolicyHandlers

	Slots    *middleware.SlotMW
	Sessions *middleware.AuthMW
	Guard    *middleware.GuardMW
	Casbin   middleware.CasbinMiddleware
}

func BuildRouter(d Deps) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	console := r.Group("/")
	console.Use(d.Slots.Attach(), d.Guard.Enforce())

	console.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, guard.LoginPath) })

	auth := console.Group("/auth")
	auth.GET("/login", d.Auth.LoginPage)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/session", d.Auth.Session)
	auth.POST("/forgot-password", d.Auth.RequestOTP)
	auth.POST("/otp/resend", d.Auth.RequestOTP)
	auth.POST("/otp/verify", d.Auth.VerifyOTP)
	auth.PUT("/reset-password", d.Auth.ResetPassword)
	auth.GET("/recovery", d.Auth.RecoveryStatus)
	auth.DELETE("/recovery", d.Auth.AbandonRecovery)

	// role areas; the guard has already checked the session's role
	console.GET(guard.AdminHomePath, d.Pages.Home)
	console.GET(guard.AdminHomePath+"/:page", d.Pages.SubPage)
	console.GET(guard.UserHomePath, d.Pages.Home)
	console.GET(guard.UserHomePath+"/:page", d.Pages.SubPage)

	api := console.Group("/api")
	api.Use(d.Sessions.WithSession(), d.Casbin.Enforce())
	api.GET("/users", d.Users.List)
	api.POST("/users", d.Users.Create)
	api.PUT("/users", d.Users.Update)
	api.GET("/users/names", d.Users.Names)
	api.DELETE("/users/:id", d.Users.Delete)
	api.GET("/tasks", d.Tasks.List)
	api.POST("/tasks", d.Tasks.Create)
	api.PUT("/tasks/:id", d.Tasks.Update)
	api.DELETE("/tasks/:id", d.Tasks.Delete)
	api.GET("/policies", d.Policies.List)
	api.POST("/policies", d.Policies.Add)
	api.DELETE("/policies", d.Policies.Remove)

	r.NoRoute(func(c *gin.Context) { c.Redirect(http.StatusFound, "/") })

	return r
}
