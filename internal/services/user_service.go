package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/peti-app/peti-server/internal/helpers"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/storage"
)

// Notifier delivers account emails. Failures are best-effort at every
// call site: account flows never roll back because a mail was lost.
type Notifier interface {
	SendVerification(to, name, userID, token string) error
	SendPasswordReset(to, name, userID, token string) error
}

type UserService struct {
	userRepo  models.UserRepo
	petRepo   models.PetRepo
	tokenRepo models.LinkTokenRepo
	hasher    *helpers.PasswordHasher
	codec     *helpers.TokenCodec
	notifier  Notifier
	images    *storage.ImageStore
	logger    *slog.Logger
}

func NewUserService(
	userRepo models.UserRepo,
	petRepo models.PetRepo,
	tokenRepo models.LinkTokenRepo,
	hasher *helpers.PasswordHasher,
	codec *helpers.TokenCodec,
	notifier Notifier,
	images *storage.ImageStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		petRepo:   petRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		codec:     codec,
		notifier:  notifier,
		images:    images,
		logger:    logger,
	}
}

type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Image           *multipart.FileHeader
}

func (in *RegisterInput) validate() error {
	if in.Name == "" {
		return helpers.Validation("name is required")
	}
	if in.Email == "" {
		return helpers.Validation("email is required")
	}
	if err := models.Validate.Var(in.Email, "required,email"); err != nil {
		return helpers.Validation("email is invalid")
	}
	if in.Phone == "" {
		return helpers.Validation("phone is required")
	}
	if in.Password == "" {
		return helpers.Validation("password is required")
	}
	if in.ConfirmPassword == "" {
		return helpers.Validation("password confirmation is required")
	}
	if in.Password != in.ConfirmPassword {
		return helpers.Validation("password and confirmation must match")
	}
	return nil
}

// Register creates a Pending user and emails a verification link. The
// account is created even if the email never leaves the relay; logging
// in again resends it.
func (us *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := us.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		us.logger.Error("failed to look up email", "error", err)
		return nil, helpers.Internal()
	}
	if existing != nil {
		return nil, helpers.Validation("email already registered")
	}

	digest, err := us.hasher.Hash(in.Password)
	if err != nil {
		us.logger.Error("failed to hash password", "error", err)
		return nil, helpers.Internal()
	}

	user := &models.User{
		Name:     in.Name,
		Email:    strings.ToLower(in.Email),
		Phone:    in.Phone,
		Password: digest,
		Active:   false,
	}

	user, err = us.userRepo.CreateUser(ctx, user)
	if err != nil {
		if err == models.ErrDuplicateEmail {
			return nil, helpers.Validation("email already registered")
		}
		us.logger.Error("failed to create user", "error", err)
		return nil, helpers.Internal()
	}

	if in.Image != nil {
		name, err := us.images.SaveOne(in.Image, storage.KindUsers, user.ID.Hex())
		if err != nil {
			return nil, err
		}
		user.Image = name
		if err := us.userRepo.UpdateUser(ctx, user); err != nil {
			us.logger.Error("failed to store profile image name", "error", err)
			return nil, helpers.Internal()
		}
	}

	us.sendVerification(ctx, user)
	return user, nil
}

// sendVerification reuses the live token when one exists and otherwise
// mints a new one before mailing the link.
func (us *UserService) sendVerification(ctx context.Context, user *models.User) {
	lt, err := us.linkTokenFor(ctx, user.ID)
	if err != nil || lt == nil {
		return
	}
	if err := us.notifier.SendVerification(user.Email, user.Name, user.ID.Hex(), lt.Token); err != nil {
		us.logger.Error("failed to send verification email", "email", user.Email, "error", err)
	}
}

// resendVerificationIfMissing mails a fresh link only when no live token
// exists, so repeated pending logins stay single-flight per user.
func (us *UserService) resendVerificationIfMissing(ctx context.Context, user *models.User) {
	lt, err := us.tokenRepo.GetLinkTokenByUser(ctx, user.ID)
	if err != nil {
		us.logger.Error("failed to look up link token", "error", err)
		return
	}
	if lt != nil {
		return
	}
	us.sendVerification(ctx, user)
}

// linkTokenFor returns the user's live token, creating one if needed.
func (us *UserService) linkTokenFor(ctx context.Context, userID primitive.ObjectID) (*models.LinkToken, error) {
	lt, err := us.tokenRepo.GetLinkTokenByUser(ctx, userID)
	if err != nil {
		us.logger.Error("failed to look up link token", "error", err)
		return nil, err
	}
	if lt != nil {
		return lt, nil
	}

	token, err := helpers.RandomToken()
	if err != nil {
		us.logger.Error("failed to generate link token", "error", err)
		return nil, err
	}
	lt, err = us.tokenRepo.CreateLinkToken(ctx, userID, token)
	if err != nil {
		us.logger.Error("failed to store link token", "error", err)
		return nil, err
	}
	return lt, nil
}

// Activate redeems a verification link: Pending -> Active, token deleted
// so a second redemption fails.
func (us *UserService) Activate(ctx context.Context, idHex, token string) (*models.User, error) {
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, helpers.Unauthorized("invalid link")
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return nil, helpers.Internal()
	}
	if user == nil {
		return nil, helpers.Unauthorized("invalid link")
	}

	lt, err := us.tokenRepo.GetLinkToken(ctx, userID, token)
	if err != nil {
		us.logger.Error("failed to get link token", "error", err)
		return nil, helpers.Internal()
	}
	if lt == nil {
		return nil, helpers.Unauthorized("invalid link")
	}

	user.Active = true
	if err := us.userRepo.UpdateUser(ctx, user); err != nil {
		us.logger.Error("failed to activate user", "error", err)
		return nil, helpers.Internal()
	}
	if err := us.tokenRepo.DeleteLinkToken(ctx, lt.ID); err != nil {
		us.logger.Error("failed to delete link token", "error", err)
	}

	return user, nil
}

// Login verifies the credentials and issues a bearer token. A Pending
// user is rejected and the verification email is resent, but only when
// no live token exists.
func (us *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" {
		return "", nil, helpers.Validation("email is required")
	}
	if password == "" {
		return "", nil, helpers.Validation("password is required")
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		us.logger.Error("failed to look up user", "error", err)
		return "", nil, helpers.Internal()
	}
	if user == nil || !us.hasher.Verify(password, user.Password) {
		return "", nil, helpers.Validation("invalid credentials")
	}

	if !user.Active {
		us.resendVerificationIfMissing(ctx, user)
		return "", nil, helpers.Unauthenticated(
			fmt.Sprintf("a confirmation email was sent to %s, open the link in it to activate your account", user.Email))
	}

	token, err := us.codec.Sign(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		us.logger.Error("failed to sign token", "error", err)
		return "", nil, helpers.Internal()
	}
	return token, user, nil
}

// RequestPasswordReset mails a reset link, reusing the live token if one
// exists. Delivery failure is logged, not surfaced.
func (us *UserService) RequestPasswordReset(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, helpers.Validation("email is required")
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		us.logger.Error("failed to look up user", "error", err)
		return nil, helpers.Internal()
	}
	if user == nil {
		return nil, helpers.Validation("email not registered")
	}

	lt, err := us.linkTokenFor(ctx, user.ID)
	if err != nil {
		return nil, helpers.Internal()
	}

	if err := us.notifier.SendPasswordReset(user.Email, user.Name, user.ID.Hex(), lt.Token); err != nil {
		us.logger.Error("failed to send reset email", "email", user.Email, "error", err)
	}
	return user, nil
}

// CheckResetLink validates a reset link without consuming it, so the
// frontend can show the new-password form only for live links.
func (us *UserService) CheckResetLink(ctx context.Context, idHex, token string) error {
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return helpers.NotFound("invalid link")
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return helpers.Internal()
	}
	if user == nil {
		return helpers.NotFound("invalid link")
	}

	lt, err := us.tokenRepo.GetLinkToken(ctx, userID, token)
	if err != nil {
		us.logger.Error("failed to get link token", "error", err)
		return helpers.Internal()
	}
	if lt == nil {
		return helpers.NotFound("invalid link")
	}
	return nil
}

type ResetPasswordInput struct {
	UserID          string
	Token           string
	Password        string
	ConfirmPassword string
}

// ResetPassword consumes a reset token and sets the new password. A
// Pending user becomes Active as a side effect: redeeming the link also
// proves control of the email address.
func (us *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.Password == "" {
		return helpers.Validation("password is required")
	}
	if in.Password != in.ConfirmPassword {
		return helpers.Validation("password and confirmation must match")
	}

	userID, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		return helpers.NotFound("invalid link")
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return helpers.Internal()
	}
	if user == nil {
		return helpers.NotFound("invalid link")
	}

	lt, err := us.tokenRepo.GetLinkToken(ctx, userID, in.Token)
	if err != nil {
		us.logger.Error("failed to get link token", "error", err)
		return helpers.Internal()
	}
	if lt == nil {
		return helpers.NotFound("invalid link")
	}

	digest, err := us.hasher.Hash(in.Password)
	if err != nil {
		us.logger.Error("failed to hash password", "error", err)
		return helpers.Internal()
	}

	user.Password = digest
	user.Active = true
	if err := us.userRepo.UpdateUser(ctx, user); err != nil {
		us.logger.Error("failed to update password", "error", err)
		return helpers.Internal()
	}
	if err := us.tokenRepo.DeleteLinkToken(ctx, lt.ID); err != nil {
		us.logger.Error("failed to delete link token", "error", err)
	}
	return nil
}

// CurrentUser resolves the verified claims to a full record; nil claims
// means an anonymous request and yields nil without error.
func (us *UserService) CurrentUser(ctx context.Context, claims *helpers.UserClaims) (*models.User, error) {
	if claims == nil {
		return nil, nil
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, helpers.Unauthenticated("invalid token")
	}
	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return nil, helpers.Internal()
	}
	return user, nil
}

func (us *UserService) GetUserByID(ctx context.Context, idHex string) (*models.User, error) {
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, helpers.Validation("invalid ID")
	}
	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return nil, helpers.Internal()
	}
	if user == nil {
		return nil, helpers.NotFound("user not found")
	}
	return user, nil
}

// ToggleFavorite applies symmetric-difference semantics: favoriting an
// already-favorited pet removes it. Self-favoriting is rejected.
func (us *UserService) ToggleFavorite(ctx context.Context, userIDHex, petIDHex string) (string, error) {
	petID, err := primitive.ObjectIDFromHex(petIDHex)
	if err != nil {
		return "", helpers.Validation("invalid ID")
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return "", helpers.Unauthenticated("access denied, please log in")
	}

	pet, err := us.petRepo.GetPetByID(ctx, petID)
	if err != nil {
		us.logger.Error("failed to get pet", "error", err)
		return "", helpers.Internal()
	}
	if pet == nil {
		return "", helpers.NotFound("pet not found")
	}
	if pet.User.ID == userID {
		return "", helpers.Validation("you cannot favorite your own pet")
	}

	nowFavorite, err := us.userRepo.ToggleFavorite(ctx, userID, petID)
	if err != nil {
		us.logger.Error("failed to toggle favorite", "error", err)
		return "", helpers.Internal()
	}

	if nowFavorite {
		return fmt.Sprintf("%s was added to your favorites", pet.Name), nil
	}
	return fmt.Sprintf("%s was removed from your favorites", pet.Name), nil
}

// Favorites returns the user's favorited pets in list order, pruning
// references to pets that were deleted since.
func (us *UserService) Favorites(ctx context.Context, userIDHex string) ([]*models.Pet, error) {
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return nil, helpers.Unauthenticated("access denied, please log in")
	}
	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return nil, helpers.Internal()
	}
	if user == nil {
		return nil, helpers.Unauthenticated("access denied, please log in")
	}

	pets, err := us.petRepo.GetPetsByIDs(ctx, user.Favorites)
	if err != nil {
		us.logger.Error("failed to get favorite pets", "error", err)
		return nil, helpers.Internal()
	}

	if len(pets) != len(user.Favorites) {
		kept := make([]primitive.ObjectID, 0, len(pets))
		for _, pet := range pets {
			kept = append(kept, pet.ID)
		}
		if err := us.userRepo.SetFavorites(ctx, userID, kept); err != nil {
			us.logger.Error("failed to prune favorites", "error", err)
		}
	}

	if pets == nil {
		pets = []*models.Pet{}
	}
	return pets, nil
}

type EditProfileInput struct {
	Name            string
	Phone           string
	Password        string
	ConfirmPassword string
	Image           *multipart.FileHeader
}

// EditProfile updates name, phone and optionally password and profile
// image. The write is revision-guarded; a concurrent edit makes this one
// fail instead of being silently overwritten.
func (us *UserService) EditProfile(ctx context.Context, userIDHex string, in EditProfileInput) (*models.User, error) {
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return nil, helpers.Unauthenticated("access denied, please log in")
	}
	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		us.logger.Error("failed to get user", "error", err)
		return nil, helpers.Internal()
	}
	if user == nil {
		return nil, helpers.Unauthenticated("access denied, please log in")
	}

	if in.Name == "" {
		return nil, helpers.Validation("name is required")
	}
	if in.Phone == "" {
		return nil, helpers.Validation("phone is required")
	}
	user.Name = in.Name
	user.Phone = in.Phone

	if in.Password != "" {
		if in.Password != in.ConfirmPassword {
			return nil, helpers.Validation("password and confirmation must match")
		}
		digest, err := us.hasher.Hash(in.Password)
		if err != nil {
			us.logger.Error("failed to hash password", "error", err)
			return nil, helpers.Internal()
		}
		user.Password = digest
	}

	if in.Image != nil {
		name, err := us.images.SaveOne(in.Image, storage.KindUsers, user.ID.Hex())
		if err != nil {
			return nil, err
		}
		user.Image = name
	}

	if err := us.userRepo.UpdateUser(ctx, user); err != nil {
		if err == models.ErrStaleDocument {
			return nil, helpers.Validation("your profile was modified by another request, please try again")
		}
		us.logger.Error("failed to update user", "error", err)
		return nil, helpers.Internal()
	}
	return user, nil
}
