package service

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/metrics"
	"hotel-pms/internal/model"
	"hotel-pms/internal/store"
	"hotel-pms/pkg/apierror"
)

const (
	UsersStoreKey = "users-store"
	usersModule   = "users"
)

func DefaultUsersState() model.UsersState {
	return model.UsersState{Users: []model.User{}, Activity: []model.ActivityEntry{}}
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleStaff
}

type AuthService struct {
	store         *store.Store[model.UsersState]
	bus           event.Bus
	jwtSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int
	now           func() time.Time
	mu            sync.Mutex
	refreshTokens map[string]string
}

func NewAuthService(st *store.Store[model.UsersState], bus event.Bus, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &AuthService{
		store:         st,
		bus:           bus,
		jwtSecret:     []byte(jwtSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		bcryptCost:    bcryptCost,
		now:           utcNow,
		refreshTokens: map[string]string{},
	}
}

func (s *AuthService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Seed hashes the demo users' plain passwords. When the fixture yields no usable
// user a default admin/admin123 account is created so the service stays reachable.
func (s *AuthService) Seed(ctx context.Context, loader *demo.Loader) (int, error) {
	seeds := demo.LoadList[model.SeedUser](ctx, loader, demo.UsersPath)
	if len(seeds) == 0 {
		seeds = []model.SeedUser{{Username: "admin", Password: "admin123", FullName: "Administrator", Role: model.RoleAdmin}}
	}

	state := DefaultUsersState()
	seen := map[string]bool{}
	now := s.now()

	for _, seed := range seeds {
		username := strings.TrimSpace(seed.Username)
		key := strings.ToLower(username)
		if username == "" || seed.Password == "" || seen[key] {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(seed.Role))
		if !validRole(role) {
			role = model.RoleStaff
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), s.bcryptCost)
		if err != nil {
			return 0, fmt.Errorf("hash password for %s: %w", username, err)
		}

		seen[key] = true
		state.Users = append(state.Users, model.User{
			ID:           uuid.NewString(),
			Username:     username,
			FullName:     seed.FullName,
			Email:        seed.Email,
			Department:   seed.Department,
			PasswordHash: string(hash),
			Role:         role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	s.store.Replace(ctx, state)
	return len(state.Users), nil
}

func (s *AuthService) Login(username string, password string) (model.TokenPair, error) {
	user, found := s.findByUsername(username)
	if !found || !user.Active {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "invalid credentials", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Refresh(refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	ownerID, exists := s.refreshTokens[refreshToken]
	if !exists || ownerID != claims.UserID {
		s.mu.Unlock()
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "refresh token is invalid", "", http.StatusUnauthorized)
	}
	delete(s.refreshTokens, refreshToken)
	s.mu.Unlock()

	user, found := s.findByID(claims.UserID)
	if !found || !user.Active {
		return model.TokenPair{}, apierror.New("UNAUTHORIZED", "user not found", "", http.StatusUnauthorized)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.refreshTokens, refreshToken)
	s.mu.Unlock()
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.New("UNAUTHORIZED", "invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.New("UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}

func (s *AuthService) GetUser(id string) (model.AuthUser, error) {
	user, found := s.findByID(id)
	if !found {
		return model.AuthUser{}, fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	return toAuthUser(user), nil
}

// ListUsers filters by role (query.Type), active flag (query.Status "active" or
// "inactive") and search text, ordered by username.
func (s *AuthService) ListUsers(query model.ListQuery) ([]model.AuthUser, model.Meta) {
	users := s.filterUsers(query)

	out := make([]model.AuthUser, 0, len(users))
	for _, user := range users {
		out = append(out, toAuthUser(user))
	}

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(out, page, limit)
}

// ExportUsers returns the full records for CSV export. Callers must not expose PasswordHash.
func (s *AuthService) ExportUsers(query model.ListQuery) []model.User {
	return s.filterUsers(query)
}

func (s *AuthService) filterUsers(query model.ListQuery) []model.User {
	search := normalizeSearch(query.Search)
	activeFilter := strings.ToLower(strings.TrimSpace(query.Status))

	out := make([]model.User, 0)
	s.store.Read(func(state *model.UsersState) {
		for _, user := range state.Users {
			if query.Type != "" && !strings.EqualFold(user.Role, query.Type) {
				continue
			}
			if activeFilter == "active" && !user.Active {
				continue
			}
			if activeFilter == "inactive" && user.Active {
				continue
			}
			if search != "" &&
				!containsFold(user.Username, search) &&
				!containsFold(user.FullName, search) &&
				!containsFold(user.Email, search) {
				continue
			}
			out = append(out, user)
		}
	})

	sort.SliceStable(out, func(i int, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out
}

func (s *AuthService) CreateUser(ctx context.Context, actor model.Actor, req model.CreateUserRequest) (model.AuthUser, error) {
	username := strings.TrimSpace(req.Username)
	role := strings.ToLower(strings.TrimSpace(req.Role))
	email := strings.TrimSpace(req.Email)

	if username == "" || strings.TrimSpace(req.Password) == "" {
		return model.AuthUser{}, fmt.Errorf("%w: username and password are required", model.ErrInvalidInput)
	}
	if role == "" {
		role = model.RoleStaff
	}
	if !validRole(role) {
		return model.AuthUser{}, fmt.Errorf("%w: invalid role %q", model.ErrInvalidInput, role)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return model.AuthUser{}, fmt.Errorf("%w: invalid email %q", model.ErrInvalidInput, email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.AuthUser{}, err
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Department:   strings.TrimSpace(req.Department),
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.Mutate(ctx, func(state *model.UsersState) error {
		for _, existing := range state.Users {
			if strings.EqualFold(existing.Username, username) {
				return fmt.Errorf("%w: %s", model.ErrUserAlreadyExists, username)
			}
		}
		state.Users = append(state.Users, user)
		appendActivity(&state.Activity, actor, "created", user.ID, fmt.Sprintf("Created %s user %s", role, username), now)
		return nil
	})
	if err != nil {
		observeRejection(usersModule, err)
		return model.AuthUser{}, err
	}

	s.afterMutation("created", toAuthUser(user), actor)
	return toAuthUser(user), nil
}

// UpdateUser changes role and active flag. Admins cannot demote or deactivate themselves.
func (s *AuthService) UpdateUser(ctx context.Context, actor model.Actor, id string, req model.UpdateUserRequest) (model.AuthUser, error) {
	var updated model.User

	err := s.store.Mutate(ctx, func(state *model.UsersState) error {
		idx := indexUser(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
		}
		user := &state.Users[idx]
		var changes []string

		if req.Role != nil {
			role := strings.ToLower(strings.TrimSpace(*req.Role))
			if !validRole(role) {
				return fmt.Errorf("%w: invalid role %q", model.ErrInvalidInput, role)
			}
			if user.ID == actor.UserID && role != user.Role {
				return fmt.Errorf("%w: cannot change own role", model.ErrForbidden)
			}
			if role != user.Role {
				changes = append(changes, fmt.Sprintf("role %s -> %s", user.Role, role))
				user.Role = role
			}
		}
		if req.Active != nil && *req.Active != user.Active {
			if user.ID == actor.UserID && !*req.Active {
				return fmt.Errorf("%w: cannot deactivate own account", model.ErrForbidden)
			}
			user.Active = *req.Active
			changes = append(changes, fmt.Sprintf("active=%t", user.Active))
		}

		user.UpdatedAt = s.now()
		updated = *user
		details := "No changes"
		if len(changes) > 0 {
			details = strings.Join(changes, ", ")
		}
		appendActivity(&state.Activity, actor, "updated", id, details, user.UpdatedAt)
		return nil
	})
	if err != nil {
		observeRejection(usersModule, err)
		return model.AuthUser{}, err
	}

	if !updated.Active {
		s.revokeUser(updated.ID)
	}

	s.afterMutation("updated", toAuthUser(updated), actor)
	return toAuthUser(updated), nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor model.Actor, id string) error {
	if id == actor.UserID {
		return model.ErrCannotDeleteSelf
	}

	var removed model.User
	err := s.store.Mutate(ctx, func(state *model.UsersState) error {
		idx := indexUser(state, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
		}
		removed = state.Users[idx]
		state.Users = append(state.Users[:idx], state.Users[idx+1:]...)
		appendActivity(&state.Activity, actor, "deleted", id, "Deleted user "+removed.Username, s.now())
		return nil
	})
	if err != nil {
		return err
	}

	s.revokeUser(id)
	s.afterMutation("deleted", toAuthUser(removed), actor)
	return nil
}

func (s *AuthService) Activity(limit int) []model.ActivityEntry {
	var out []model.ActivityEntry
	s.store.Read(func(state *model.UsersState) {
		out = newestFirst(state.Activity, limit)
	})
	return out
}

func (s *AuthService) afterMutation(action string, payload any, actor model.Actor) {
	metrics.ObserveMutation(usersModule, action)
	event.Emit(s.bus, event.TypeUserChanged, payload, actor.UserID)
}

func (s *AuthService) revokeUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, owner := range s.refreshTokens {
		if owner == userID {
			delete(s.refreshTokens, token)
		}
	}
}

func (s *AuthService) findByUsername(username string) (model.User, bool) {
	key := strings.TrimSpace(username)

	var found model.User
	ok := false
	s.store.Read(func(state *model.UsersState) {
		for _, user := range state.Users {
			if strings.EqualFold(user.Username, key) {
				found, ok = user, true
				return
			}
		}
	})
	return found, ok
}

func (s *AuthService) findByID(id string) (model.User, bool) {
	var found model.User
	ok := false
	s.store.Read(func(state *model.UsersState) {
		if idx := indexUser(state, id); idx >= 0 {
			found, ok = state.Users[idx], true
		}
	})
	return found, ok
}

func (s *AuthService) issueTokenPair(user model.User) (model.TokenPair, error) {
	now := s.now()

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "access",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "refresh",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	s.mu.Lock()
	s.refreshTokens[refreshToken] = user.ID
	s.mu.Unlock()

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         toAuthUser(user),
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func indexUser(state *model.UsersState, id string) int {
	for i, user := range state.Users {
		if user.ID == id {
			return i
		}
	}
	return -1
}

func toAuthUser(user model.User) model.AuthUser {
	return model.AuthUser{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Email:      user.Email,
		Department: user.Department,
		Role:       user.Role,
		Active:     user.Active,
	}
}
