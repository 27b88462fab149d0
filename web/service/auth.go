package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/crypto"
	"github.com/todopanel/todo-panel/web/entity"
)

const invalidCredentials = "Invalid credentials"

// Claims is the payload of a bearer token.
type Claims struct {
	UserID int        `json:"userId"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService registers accounts, checks credentials and issues tokens.
type AuthService struct {
	db     *gorm.DB
	users  *UserService
	secret []byte
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, users *UserService, secret string) *AuthService {
	return &AuthService{
		db:     db,
		users:  users,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Register creates a regular user account and returns a token for it.
// Public registration never grants the admin role.
func (s *AuthService) Register(ctx context.Context, req entity.RegisterRequest) (*entity.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Role != "" && req.Role != string(model.RoleUser) {
		logger.Warningf("registration of %q requested role %q, forcing %q", req.Username, req.Role, model.RoleUser)
	}

	if taken, err := s.users.emailTaken(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, common.NewConflictError("Email already registered")
	}
	if taken, err := s.users.usernameTaken(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, common.NewConflictError("Username already taken")
	}

	hash, err := crypto.HashPasswordAsBcrypt(req.Password)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, common.NewConflictError("Email or username already taken")
		}
		return nil, common.NewInternalError(err)
	}
	logger.Infof("registered user %s (id %d)", user.Username, user.Id)
	return s.respond(user)
}

// Login accepts an email or a username. Every failure yields the same
// AuthError so callers cannot tell which accounts exist.
func (s *AuthService) Login(ctx context.Context, req entity.LoginRequest) (*entity.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.FindByLogin(ctx, req.Login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt time as a real mismatch.
		crypto.CheckPasswordHash(dummyHash(), req.Password)
		return nil, common.NewAuthError(invalidCredentials)
	}
	if !crypto.CheckPasswordHash(user.PasswordHash, req.Password) {
		return nil, common.NewAuthError(invalidCredentials)
	}
	return s.respond(user)
}

func (s *AuthService) respond(user *model.User) (*entity.AuthResponse, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return &entity.AuthResponse{Profile: entity.NewProfile(user), Token: token}, nil
}

// IssueToken signs a token for user valid for config.TokenTTL.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.Id,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.Id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies signature and expiry. Any failure is an AuthError.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return nil, common.NewAuthError("Invalid token")
	}
	return claims, nil
}

// Authenticate resolves a token to the current user record. The role in the
// token is not trusted; the stored role is authoritative.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if common.IsKind(err, common.KindNotFound) {
		return nil, common.NewAuthError("User not found")
	}
	return user, err
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = crypto.HashPasswordAsBcrypt("not-a-real-password")
	})
	return dummy
}
