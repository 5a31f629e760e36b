package services

import (
	"context"
	"fmt"

	"github.com/Sean4E/PMHub2/models"
	"github.com/Sean4E/PMHub2/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	UsersCollection *mongo.Collection
}

func NewUserService(usersCollection *mongo.Collection) *UserService {
	return &UserService{UsersCollection: usersCollection}
}

// GetIdentity resolves a credential subject to the minimal identity carried
// on a connection. Unknown and inactive users are rejected.
func (s *UserService) GetIdentity(userID string) (*models.Identity, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %v", err)
	}

	var user models.User
	if err := s.UsersCollection.FindOne(context.Background(), bson.M{"_id": userObjectID}).Decode(&user); err != nil {
		return nil, fmt.Errorf("user not found")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user account is inactive")
	}

	identity := user.Identity()
	return &identity, nil
}

// Login checks the credentials against the stored bcrypt hash and issues a
// bearer token for the session.
func (s *UserService) Login(email, password string) (string, *models.Identity, error) {
	var user models.User
	if err := s.UsersCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user); err != nil {
		return "", nil, fmt.Errorf("invalid email or password")
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("user account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %v", err)
	}

	identity := user.Identity()
	return token, &identity, nil
}
