package realtime

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sean4E/PMHub2/models"
	"github.com/Sean4E/PMHub2/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeResolver struct {
	identities map[string]*models.Identity
}

func (f *fakeResolver) GetIdentity(userID string) (*models.Identity, error) {
	identity, ok := f.identities[userID]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return identity, nil
}

func signExpiredToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &utils.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthenticateValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID()
	resolver := &fakeResolver{identities: map[string]*models.Identity{
		userID.Hex(): {ID: userID, Name: "alice", Email: "alice@example.com"},
	}}
	gate := NewAuthGate(resolver)

	token, err := utils.GenerateToken(userID.Hex(), "alice@example.com", "member")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/ws?token="+token, nil)
	identity, err := gate.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Name)
	assert.Equal(t, userID, identity.ID)
}

func TestAuthenticateTokenFromHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID()
	resolver := &fakeResolver{identities: map[string]*models.Identity{
		userID.Hex(): {ID: userID, Name: "alice"},
	}}
	gate := NewAuthGate(resolver)

	token, err := utils.GenerateToken(userID.Hex(), "alice@example.com", "member")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	identity, err := gate.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Name)
}

func TestAuthenticateMissingToken(t *testing.T) {
	gate := NewAuthGate(&fakeResolver{})

	r := httptest.NewRequest("GET", "/api/ws", nil)
	_, err := gate.Authenticate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token provided")
}

func TestAuthenticateExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID()
	gate := NewAuthGate(&fakeResolver{identities: map[string]*models.Identity{
		userID.Hex(): {ID: userID, Name: "alice"},
	}})

	r := httptest.NewRequest("GET", "/api/ws?token="+signExpiredToken(t, userID.Hex()), nil)
	_, err := gate.Authenticate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication error")
}

func TestAuthenticateGarbageToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	gate := NewAuthGate(&fakeResolver{})

	r := httptest.NewRequest("GET", "/api/ws?token=not-a-jwt", nil)
	_, err := gate.Authenticate(r)
	require.Error(t, err)
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	gate := NewAuthGate(&fakeResolver{identities: map[string]*models.Identity{}})

	token, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "ghost@example.com", "member")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/ws?token="+token, nil)
	_, err = gate.Authenticate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}
