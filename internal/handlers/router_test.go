package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/peti-app/peti-server/internal/helpers"
	"github.com/peti-app/peti-server/internal/middleware"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/services"
	"github.com/peti-app/peti-server/internal/storage"
)

type stubUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func (r *stubUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.users[id], nil
}

func (r *stubUserRepo) UpdateUser(ctx context.Context, user *models.User) error { return nil }

func (r *stubUserRepo) ToggleFavorite(ctx context.Context, userID, petID primitive.ObjectID) (bool, error) {
	return true, nil
}

func (r *stubUserRepo) SetFavorites(ctx context.Context, userID primitive.ObjectID, favorites []primitive.ObjectID) error {
	return nil
}

type stubPetRepo struct {
	pets []*models.Pet
}

func (r *stubPetRepo) CreatePet(ctx context.Context, pet *models.Pet) error {
	r.pets = append(r.pets, pet)
	return nil
}

func (r *stubPetRepo) GetPetByID(ctx context.Context, id primitive.ObjectID) (*models.Pet, error) {
	for _, p := range r.pets {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubPetRepo) GetPetsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Pet, error) {
	return []*models.Pet{}, nil
}

func (r *stubPetRepo) ListPets(ctx context.Context, search string, sort int, skip, limit int64) ([]*models.Pet, int64, error) {
	return r.pets, int64(len(r.pets)), nil
}

func (r *stubPetRepo) ListPetsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.Pet, error) {
	return []*models.Pet{}, nil
}

func (r *stubPetRepo) UpdatePet(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	return nil
}

func (r *stubPetRepo) DeletePet(ctx context.Context, id primitive.ObjectID) error { return nil }

type stubTokenRepo struct{}

func (r *stubTokenRepo) CreateLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*models.LinkToken, error) {
	return &models.LinkToken{ID: primitive.NewObjectID(), UserID: userID, Token: token, CreatedAt: time.Now()}, nil
}

func (r *stubTokenRepo) GetLinkTokenByUser(ctx context.Context, userID primitive.ObjectID) (*models.LinkToken, error) {
	return nil, nil
}

func (r *stubTokenRepo) GetLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*models.LinkToken, error) {
	return nil, nil
}

func (r *stubTokenRepo) DeleteLinkToken(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) SendVerification(to, name, userID, token string) error  { return nil }
func (noopNotifier) SendPasswordReset(to, name, userID, token string) error { return nil }

type testEnv struct {
	router *gin.Engine
	codec  *helpers.TokenCodec
	users  *stubUserRepo
	pets   *stubPetRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &stubUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	pets := &stubPetRepo{}
	tokens := &stubTokenRepo{}
	images := storage.NewImageStore(t.TempDir())
	codec := helpers.NewTokenCodec("test-secret", time.Hour)
	hasher := helpers.NewPasswordHasher(bcrypt.MinCost)

	userSvc := services.NewUserService(users, pets, tokens, hasher, codec, noopNotifier{}, images, logger)
	petSvc := services.NewPetService(pets, images, logger)

	required := middleware.Auth(codec, middleware.RequiredAuth)
	optional := middleware.Auth(codec, middleware.OptionalAuth)

	r := gin.New()
	r.POST("/users/register", Register(userSvc))
	r.GET("/users/checkuser", optional, CheckUser(userSvc))
	r.POST("/pets/create", required, CreatePet(petSvc, userSvc))
	r.GET("/pets", ListPets(petSvc))
	r.GET("/pets/mypets", required, MyPets(petSvc))

	return &testEnv{router: r, codec: codec, users: users, pets: pets}
}

func (env *testEnv) seedUser(t *testing.T) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Name:   "Ana",
		Email:  "ana@example.com",
		Phone:  "11987654321",
		Active: true,
	}
	user.ID = primitive.NewObjectID()
	env.users.users[user.ID] = user
	token, err := env.codec.Sign(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return user, token
}

func decodeMessage(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var res struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Bytes(), &res); err != nil {
		t.Fatalf("decode body %q: %v", body.String(), err)
	}
	return res.Message
}

func TestRequiredRouteWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pets/mypets", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := decodeMessage(t, w.Body); msg != "access denied, please log in" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRequiredRouteWithInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pets/mypets", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := decodeMessage(t, w.Body); msg != "invalid token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRegisterJSONValidation(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{
		"name":  "Ana",
		"email": "ana@example.com",
		"phone": "11987654321",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/users/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if msg := decodeMessage(t, w.Body); msg != "password is required" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestCheckUserAnonymous(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/users/checkuser", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "null" {
		t.Fatalf("expected null body for anonymous checkuser, got %q", body)
	}
}

// petForm writes the full multipart create form plus one image part with
// the given filename and content type.
func petForm(t *testing.T, filename, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"name":         "Rex",
		"type":         "dog",
		"specificType": "vira-lata",
		"sex":          "male",
		"years":        "2",
		"weightKg":     "12",
		"bio":          "friendly",
		"latLong":      "-23.55,-46.63",
		"state":        "SP",
		"city":         "Sao Paulo",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="images"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}
	return &body, w.FormDataContentType()
}

func TestCreatePetRejectsWrongImageType(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t)

	body, contentType := petForm(t, "anim.gif", "image/gif", 64)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pets/create", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.pets.pets) != 0 {
		t.Fatal("pet persisted despite rejected upload")
	}
}

func TestCreatePetRejectsOversizeImage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t)

	body, contentType := petForm(t, "big.png", "image/png", int(storage.MaxFileSize)+1)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pets/create", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.pets.pets) != 0 {
		t.Fatal("pet persisted despite rejected upload")
	}
}

func TestCreatePetHappyPath(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t)

	body, contentType := petForm(t, "rex.png", "image/png", 64)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pets/create", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.pets.pets) != 1 {
		t.Fatalf("expected 1 persisted pet, got %d", len(env.pets.pets))
	}
}

func TestListPetsIsPublic(t *testing.T) {
	env := newTestEnv(t)
	env.pets.pets = append(env.pets.pets, &models.Pet{
		ID:     primitive.NewObjectID(),
		Name:   "Rex",
		Active: true,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pets", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var res struct {
		Data  []json.RawMessage `json:"data"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
		Total int64             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(res.Data) != 1 || res.Total != 1 {
		t.Fatalf("unexpected listing: %s", w.Body.String())
	}
	if res.Page != 1 || res.Limit != services.PageSize {
		t.Fatalf("unexpected paging fields: page=%d limit=%d", res.Page, res.Limit)
	}
}
