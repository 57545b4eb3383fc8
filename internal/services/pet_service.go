package services

import (
	"context"
	"log/slog"
	"mime/multipart"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/peti-app/peti-server/internal/helpers"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/storage"
)

// PageSize is the fixed listing page size.
const PageSize = 4

type PetService struct {
	petRepo models.PetRepo
	images  *storage.ImageStore
	logger  *slog.Logger
}

func NewPetService(petRepo models.PetRepo, images *storage.ImageStore, logger *slog.Logger) *PetService {
	return &PetService{
		petRepo: petRepo,
		images:  images,
		logger:  logger,
	}
}

type PetInput struct {
	Name         string
	Type         string
	SpecificType string
	Sex          string
	Years        int
	Months       int
	WeightKg     int
	WeightG      int
	Bio          string
	LatLong      []float64
	State        string
	City         string
	District     string
}

func (in *PetInput) validate() error {
	if in.Name == "" {
		return helpers.Validation("pet name is required")
	}
	if in.Type == "" {
		return helpers.Validation("pet type is required")
	}
	if in.SpecificType == "" {
		return helpers.Validation("specific type is required")
	}
	if in.Sex == "" {
		return helpers.Validation("sex is required")
	}
	if in.Years == 0 && in.Months == 0 {
		return helpers.Validation("age is required")
	}
	if in.WeightKg == 0 && in.WeightG == 0 {
		return helpers.Validation("weight is required")
	}
	if in.Bio == "" {
		return helpers.Validation("bio is required")
	}
	if len(in.LatLong) != 2 {
		return helpers.Validation("a map location is required")
	}
	if in.State == "" {
		return helpers.Validation("state is required")
	}
	return nil
}

// Create stores a new listing. The pet id is generated before any file
// write so images land directly in the final id-keyed directory; if the
// insert then fails the directory is removed again.
func (ps *PetService) Create(ctx context.Context, owner *models.User, in PetInput, files []*multipart.FileHeader) (*models.Pet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, helpers.Validation("at least one image is required")
	}

	petID := primitive.NewObjectID()
	names, err := ps.images.SaveAll(files, storage.KindPets, petID.Hex(), storage.MaxPetImages)
	if err != nil {
		return nil, err
	}

	pet := &models.Pet{
		ID:           petID,
		Name:         in.Name,
		Type:         in.Type,
		SpecificType: in.SpecificType,
		Sex:          in.Sex,
		Years:        in.Years,
		Months:       in.Months,
		WeightKg:     in.WeightKg,
		WeightG:      in.WeightG,
		Bio:          in.Bio,
		LatLong:      in.LatLong,
		State:        in.State,
		City:         in.City,
		District:     in.District,
		Images:       names,
		Active:       true,
		User: models.OwnerSnapshot{
			ID:    owner.ID,
			Name:  owner.Name,
			Image: owner.Image,
			Phone: owner.Phone,
		},
	}

	if err := ps.petRepo.CreatePet(ctx, pet); err != nil {
		ps.logger.Error("failed to create pet", "error", err)
		if rmErr := ps.images.RemoveDir(storage.KindPets, petID.Hex()); rmErr != nil {
			ps.logger.Error("failed to remove image directory after failed insert", "error", rmErr)
		}
		return nil, helpers.Internal()
	}
	return pet, nil
}

// List pages public listings with substring name search and a sort
// direction on creation time.
func (ps *PetService) List(ctx context.Context, page int, search string, sort int) ([]*models.Pet, int64, error) {
	if page < 1 {
		page = 1
	}
	skip := int64(page-1) * PageSize

	pets, total, err := ps.petRepo.ListPets(ctx, search, sort, skip, PageSize)
	if err != nil {
		ps.logger.Error("failed to list pets", "error", err)
		return nil, 0, helpers.Internal()
	}
	if pets == nil {
		pets = []*models.Pet{}
	}
	return pets, total, nil
}

func (ps *PetService) OwnerPets(ctx context.Context, ownerIDHex string) ([]*models.Pet, error) {
	ownerID, err := primitive.ObjectIDFromHex(ownerIDHex)
	if err != nil {
		return nil, helpers.Unauthenticated("access denied, please log in")
	}
	pets, err := ps.petRepo.ListPetsByOwner(ctx, ownerID)
	if err != nil {
		ps.logger.Error("failed to list owner pets", "error", err)
		return nil, helpers.Internal()
	}
	if pets == nil {
		pets = []*models.Pet{}
	}
	return pets, nil
}

// GetByID fetches a listing; when the viewer is authenticated the
// returned flag reports whether they own it.
func (ps *PetService) GetByID(ctx context.Context, idHex string, claims *helpers.UserClaims) (*models.Pet, bool, error) {
	petID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, false, helpers.Validation("invalid ID")
	}
	pet, err := ps.petRepo.GetPetByID(ctx, petID)
	if err != nil {
		ps.logger.Error("failed to get pet", "error", err)
		return nil, false, helpers.Internal()
	}
	if pet == nil {
		return nil, false, helpers.NotFound("pet not found")
	}

	isOwner := claims != nil && claims.UserID == pet.User.ID.Hex()
	return pet, isOwner, nil
}

// Update re-validates every field. New images replace the stored list;
// when none are supplied the existing images are retained.
func (ps *PetService) Update(ctx context.Context, idHex, requesterIDHex string, in PetInput, files []*multipart.FileHeader) (*models.Pet, error) {
	petID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, helpers.Validation("invalid ID")
	}
	pet, err := ps.petRepo.GetPetByID(ctx, petID)
	if err != nil {
		ps.logger.Error("failed to get pet", "error", err)
		return nil, helpers.Internal()
	}
	if pet == nil {
		return nil, helpers.NotFound("pet not found")
	}
	if pet.User.ID.Hex() != requesterIDHex {
		return nil, helpers.Unauthorized("you are not the owner of this pet")
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	fields := bson.M{
		"name":          in.Name,
		"type":          in.Type,
		"specific_type": in.SpecificType,
		"sex":           in.Sex,
		"years":         in.Years,
		"months":        in.Months,
		"weight_kg":     in.WeightKg,
		"weight_g":      in.WeightG,
		"bio":           in.Bio,
		"lat_long":      in.LatLong,
		"state":         in.State,
		"city":          in.City,
		"district":      in.District,
	}

	if len(files) > 0 {
		names, err := ps.images.SaveAll(files, storage.KindPets, petID.Hex(), storage.MaxPetImages)
		if err != nil {
			return nil, err
		}
		fields["images"] = names
		pet.Images = names
	}

	if err := ps.petRepo.UpdatePet(ctx, petID, fields); err != nil {
		ps.logger.Error("failed to update pet", "error", err)
		return nil, helpers.Internal()
	}

	pet.Name = in.Name
	pet.Type = in.Type
	pet.SpecificType = in.SpecificType
	pet.Sex = in.Sex
	pet.Years = in.Years
	pet.Months = in.Months
	pet.WeightKg = in.WeightKg
	pet.WeightG = in.WeightG
	pet.Bio = in.Bio
	pet.LatLong = in.LatLong
	pet.State = in.State
	pet.City = in.City
	pet.District = in.District
	return pet, nil
}

// Delete removes an owned listing and cascades to its image directory.
func (ps *PetService) Delete(ctx context.Context, idHex, requesterIDHex string) error {
	petID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return helpers.Validation("invalid ID")
	}
	pet, err := ps.petRepo.GetPetByID(ctx, petID)
	if err != nil {
		ps.logger.Error("failed to get pet", "error", err)
		return helpers.Internal()
	}
	if pet == nil {
		return helpers.NotFound("pet not found")
	}
	if pet.User.ID.Hex() != requesterIDHex {
		return helpers.Unauthorized("you are not the owner of this pet")
	}

	if err := ps.petRepo.DeletePet(ctx, petID); err != nil {
		ps.logger.Error("failed to delete pet", "error", err)
		return helpers.Internal()
	}
	if err := ps.images.RemoveDir(storage.KindPets, petID.Hex()); err != nil {
		ps.logger.Error("failed to remove pet image directory", "error", err)
	}
	return nil
}
