package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Sean4E/PMHub2/logging"
	"github.com/Sean4E/PMHub2/models"
	"github.com/Sean4E/PMHub2/services"
)

type LoginHandler struct {
	service *services.UserService
}

func NewLoginHandler(service *services.UserService) *LoginHandler {
	return &LoginHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.Email == "" || request.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	token, identity, err := h.service.Login(request.Email, request.Password)
	if err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Login failed for %s: %v", request.Email, err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", identity.Name)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Token: token, User: identity})
}
