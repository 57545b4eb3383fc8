package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peti-app/peti-server/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Favorites = append([]primitive.ObjectID(nil), u.Favorites...)
	return &cp
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(user.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			return nil, models.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	user.Email = email
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok || stored.Revision != user.Revision {
		return models.ErrStaleDocument
	}
	stored.Name = user.Name
	stored.Phone = user.Phone
	stored.Password = user.Password
	stored.Image = user.Image
	stored.Active = user.Active
	stored.Revision++
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) ToggleFavorite(ctx context.Context, userID, petID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	for i, id := range u.Favorites {
		if id == petID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			return false, nil
		}
	}
	u.Favorites = append(u.Favorites, petID)
	return true, nil
}

func (r *fakeUserRepo) SetFavorites(ctx context.Context, userID primitive.ObjectID, favorites []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Favorites = append([]primitive.ObjectID(nil), favorites...)
	}
	return nil
}

type fakePetRepo struct {
	mu   sync.Mutex
	pets []*models.Pet
	seq  int
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{}
}

func copyPet(p *models.Pet) *models.Pet {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.LatLong = append([]float64(nil), p.LatLong...)
	return &cp
}

func (r *fakePetRepo) CreatePet(ctx context.Context, pet *models.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	pet.CreatedAt = time.Unix(int64(r.seq), 0)
	pet.UpdatedAt = pet.CreatedAt
	r.pets = append(r.pets, copyPet(pet))
	return nil
}

func (r *fakePetRepo) GetPetByID(ctx context.Context, id primitive.ObjectID) (*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pets {
		if p.ID == id {
			return copyPet(p), nil
		}
	}
	return nil, nil
}

func (r *fakePetRepo) GetPetsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Pet
	for _, id := range ids {
		for _, p := range r.pets {
			if p.ID == id {
				out = append(out, copyPet(p))
				break
			}
		}
	}
	if out == nil {
		out = []*models.Pet{}
	}
	return out, nil
}

func (r *fakePetRepo) ListPets(ctx context.Context, search string, sort int, skip, limit int64) ([]*models.Pet, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Pet
	for _, p := range r.pets {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			matched = append(matched, p)
		}
	}

	// pets are appended in creation order; descending means reversed
	if sort < 0 {
		reversed := make([]*models.Pet, len(matched))
		for i, p := range matched {
			reversed[len(matched)-1-i] = p
		}
		matched = reversed
	}

	total := int64(len(matched))
	if skip >= total {
		return []*models.Pet{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	out := make([]*models.Pet, 0, end-skip)
	for _, p := range matched[skip:end] {
		out = append(out, copyPet(p))
	}
	return out, total, nil
}

func (r *fakePetRepo) ListPetsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Pet{}
	for _, p := range r.pets {
		if p.User.ID == ownerID {
			out = append(out, copyPet(p))
		}
	}
	return out, nil
}

func (r *fakePetRepo) UpdatePet(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pets {
		if p.ID != id {
			continue
		}
		if v, ok := fields["name"].(string); ok {
			p.Name = v
		}
		if v, ok := fields["bio"].(string); ok {
			p.Bio = v
		}
		if v, ok := fields["images"].([]string); ok {
			p.Images = append([]string(nil), v...)
		}
		p.UpdatedAt = time.Now()
		return nil
	}
	return mongo.ErrNoDocuments
}

func (r *fakePetRepo) DeletePet(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pets {
		if p.ID == id {
			r.pets = append(r.pets[:i], r.pets[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]*models.LinkToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[primitive.ObjectID]*models.LinkToken)}
}

func (r *fakeTokenRepo) CreateLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*models.LinkToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lt := &models.LinkToken{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
	}
	r.tokens[userID] = lt
	return lt, nil
}

func (r *fakeTokenRepo) GetLinkTokenByUser(ctx context.Context, userID primitive.ObjectID) (*models.LinkToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lt, ok := r.tokens[userID]
	if !ok {
		return nil, nil
	}
	return lt, nil
}

func (r *fakeTokenRepo) GetLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*models.LinkToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lt, ok := r.tokens[userID]
	if !ok || lt.Token != token {
		return nil, nil
	}
	return lt, nil
}

func (r *fakeTokenRepo) DeleteLinkToken(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, lt := range r.tokens {
		if lt.ID == id {
			delete(r.tokens, userID)
			return nil
		}
	}
	return nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	verifications int
	resets        int
	lastToken     string
}

func (n *fakeNotifier) SendVerification(to, name, userID, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications++
	n.lastToken = token
	return nil
}

func (n *fakeNotifier) SendPasswordReset(to, name, userID, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets++
	n.lastToken = token
	return nil
}

func (n *fakeNotifier) sentVerifications() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verifications
}
