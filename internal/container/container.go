package container

import (
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peti-app/peti-server/internal/config"
	"github.com/peti-app/peti-server/internal/helpers"
	"github.com/peti-app/peti-server/internal/mailer"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/services"
	"github.com/peti-app/peti-server/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	Config *config.Config

	MongoDBClient *mongo.Client
	Repo          *models.MongodbRepo

	TokenCodec  *helpers.TokenCodec
	UserService *services.UserService
	PetService  *services.PetService
}

// NewContainer creates a new dependency injection container
func NewContainer(logger *slog.Logger, cfg *config.Config, mongoDBClient *mongo.Client) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)
	codec := helpers.NewTokenCodec(cfg.TokenSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	hasher := helpers.NewPasswordHasher(cfg.HashCost)
	images := storage.NewImageStore(cfg.UploadDir)
	notifier := mailer.New(cfg)

	userService := services.NewUserService(repo, repo, repo, hasher, codec, notifier, images, logger)
	petService := services.NewPetService(repo, images, logger)

	return &Container{
		Logger:        logger,
		Config:        cfg,
		MongoDBClient: mongoDBClient,
		Repo:          repo,
		TokenCodec:    codec,
		UserService:   userService,
		PetService:    petService,
	}
}
