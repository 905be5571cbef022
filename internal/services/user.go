package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/netvoya/backend/internal/events"
	"github.com/netvoya/backend/internal/store"
	"github.com/netvoya/backend/types"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 10

// Expected, recoverable outcomes of the credential operations. The HTTP
// layer maps these to 400/409/401; anything else is a server-side failure.
var (
	ErrValidation         = errors.New("missing required fields")
	ErrDuplicateIdentity  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByIdentifier(ctx context.Context, identifier string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// RegisterInput carries a registration candidate. It deliberately has no
// role field: every record created through Register receives the partner
// role, regardless of what any caller requested upstream.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	CompanyName string
	Address     string
	City        string
	Zip         string
	Country     string
	VatID       string
}

// UserService owns the credential lifecycle: registration, authentication
// and the out-of-band admin operations.
type UserService struct {
	repo  UserRepository
	audit *events.Stream
}

func NewUserService(repo UserRepository, audit *events.Stream) *UserService {
	return &UserService{repo: repo, audit: audit}
}

// Register creates a new user record. The raw password is hashed with
// bcrypt before it ever reaches the repository. Uniqueness of username
// and email is pre-checked for a fast failure, but the unique indexes on
// the users table are the actual guarantee: a concurrent insert that
// slips past the check still surfaces as ErrDuplicateIdentity.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.User{}, ErrValidation
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return types.User{}, storeErr(err)
	}
	if exists {
		return types.User{}, ErrDuplicateIdentity
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		Role:         types.RolePartner,
		PasswordHash: string(hashed),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		CompanyName:  in.CompanyName,
		Address:      in.Address,
		City:         in.City,
		Zip:          in.Zip,
		Country:      in.Country,
		VatID:        in.VatID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateIdentity
		}
		return types.User{}, storeErr(err)
	}

	s.publishAudit(ctx, "user.registered", user)
	return user, nil
}

// Authenticate verifies a raw password against the record matching the
// given identifier (username or email). Unknown identifier and wrong
// password both return ErrInvalidCredentials so callers cannot probe
// which identities exist.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (types.User, error) {
	if identifier == "" || password == "" {
		return types.User{}, ErrValidation
	}

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, storeErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	s.publishAudit(ctx, "user.login", user)
	return user, nil
}

// ListPublic returns all users with the password hash stripped. Debug
// affordance, not a general query surface.
func (s *UserService) ListPublic(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	public := make([]types.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public, nil
}

// SeedAdmin creates the administrative account unless it already exists.
// This is the only path that assigns the admin role. Returns the record
// and whether it was created by this call.
func (s *UserService) SeedAdmin(ctx context.Context, username, email, password, firstName, lastName string) (types.User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, false, storeErr(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return types.User{}, false, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         types.RoleAdmin,
		PasswordHash: string(hashed),
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		return types.User{}, false, storeErr(err)
	}
	return user, true, nil
}

// ResetPassword replaces the stored hash for the account with the given
// email. Out-of-band tool support; never called from the request flow.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return storeErr(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return storeErr(err)
	}
	return nil
}

type auditEvent struct {
	Event  string    `json:"event"`
	UserID int       `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	At     time.Time `json:"at"`
}

// publishAudit emits a best-effort audit event. Failures are logged and
// never affect the request outcome.
func (s *UserService) publishAudit(ctx context.Context, name string, user types.User) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(auditEvent{
		Event:  name,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		At:     time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if _, err := s.audit.Publish(ctx, events.AuthChannel, payload, map[string]string{"event": name}); err != nil {
		log.Printf("audit publish failed for %s: %v", name, err)
	}
}

// storeErr marks an unexpected repository failure as a store
// availability problem so the HTTP layer cannot confuse it with a
// credential error.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
