package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/peti-app/peti-server/internal/container"
	"github.com/peti-app/peti-server/internal/handlers"
	"github.com/peti-app/peti-server/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container.
// Every route declares its auth mode explicitly.
func SetupRoutes(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     c.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(gin.Recovery())

	optional := middleware.Auth(c.TokenCodec, middleware.OptionalAuth)
	required := middleware.Auth(c.TokenCodec, middleware.RequiredAuth)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{
			"status":  "OK",
			"service": "peti-api",
		})
	})

	// Uploaded images are served straight from disk.
	r.Static("/images", c.Config.UploadDir)

	users := r.Group("/users")
	{
		users.POST("/register", handlers.Register(c.UserService))
		users.GET("/activate/:id/verify/:token", handlers.ActivateAccount(c.UserService))
		users.POST("/login", handlers.Login(c.UserService))
		users.POST("/reset", handlers.RequestPasswordReset(c.UserService))
		users.GET("/reset/:id/:token", handlers.CheckResetLink(c.UserService))
		users.PATCH("/reset", handlers.ResetPassword(c.UserService))

		users.GET("/checkuser", optional, handlers.CheckUser(c.UserService))
		users.GET("/favorites", required, handlers.GetFavorites(c.UserService))
		users.PATCH("/favorites/:id", required, handlers.ToggleFavorite(c.UserService))
		users.PATCH("/edit", required, handlers.EditProfile(c.UserService))
		users.GET("/:id", handlers.GetUserByID(c.UserService))
	}

	pets := r.Group("/pets")
	{
		pets.POST("/create", required, handlers.CreatePet(c.PetService, c.UserService))
		pets.GET("", handlers.ListPets(c.PetService))
		pets.GET("/mypets", required, handlers.MyPets(c.PetService))
		pets.GET("/:id", optional, handlers.GetPetByID(c.PetService))
		pets.PATCH("/:id", required, handlers.UpdatePet(c.PetService))
		pets.DELETE("/:id", required, handlers.DeletePet(c.PetService))
	}

	return r
}
