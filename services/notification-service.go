package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
)

// NotificationService is the HTTP client for the external notifications
// service. Every call goes through a circuit breaker so a down collaborator
// cannot pile up blocked requests here.
type NotificationService struct {
	ServiceURL string
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
}

func NewNotificationService(serviceURL string, httpClient *http.Client, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{
		ServiceURL: serviceURL,
		HTTPClient: httpClient,
		Breaker:    breaker,
	}
}

func (s *NotificationService) SendTaskAssigned(userID, taskTitle string) error {
	payload := map[string]string{
		"userId":  userID,
		"message": fmt.Sprintf("You have been assigned to task: %s", taskTitle),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %v", err)
	}

	_, err = s.Breaker.Execute(func() (interface{}, error) {
		resp, err := s.HTTPClient.Post(s.ServiceURL+"/api/notifications", "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
