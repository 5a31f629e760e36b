package realtime

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Sean4E/PMHub2/models"
	"github.com/Sean4E/PMHub2/utils"
)

// IdentityResolver looks up the minimal identity for a credential subject.
// Satisfied by services.UserService.
type IdentityResolver interface {
	GetIdentity(userID string) (*models.Identity, error)
}

// AuthGate validates the bearer credential presented with the websocket
// handshake. A connection that fails here is refused before the upgrade,
// so the registry never observes a rejected attempt.
type AuthGate struct {
	Users IdentityResolver
}

func NewAuthGate(users IdentityResolver) *AuthGate {
	return &AuthGate{Users: users}
}

// Authenticate extracts the token from the handshake request (query
// parameter or Authorization header), verifies signature and expiry, and
// resolves the subject. The returned error text is the reason string sent
// back on the refused handshake.
func (g *AuthGate) Authenticate(r *http.Request) (*models.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		return nil, fmt.Errorf("authentication error: no token provided")
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("authentication error: %v", err)
	}

	identity, err := g.Users.GetIdentity(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("authentication error: %v", err)
	}

	return identity, nil
}
