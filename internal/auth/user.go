package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/gearguard/internal/authz"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the verified caller attached to the request context.
type User struct {
	ID       int64         `json:"id"`
	Email    string        `json:"email"`
	Name     string        `json:"name"`
	Role     coreUser.Role `json:"role"`
	IsActive bool          `json:"-"`
}

// Identity is what every core operation receives.
func (u *User) Identity() *authz.Identity {
	if u == nil {
		return nil
	}
	return &authz.Identity{ID: u.ID, Role: u.Role}
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == coreUser.RoleAdmin
}

func (u *User) HasRole(roles ...coreUser.Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// IdentityFromContext returns nil when the request is anonymous.
func IdentityFromContext(ctx context.Context) *authz.Identity {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil
	}
	return u.Identity()
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
