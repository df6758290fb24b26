package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/techcare-io/techcare-api/config"
)

// UserInfo is the subset of Auth0's /userinfo response we use when
// provisioning a profile.
type UserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Auth0Interface defines the Auth0 operations used by the controllers.
type Auth0Interface interface {
	GetUserInfo(accessToken string) (*UserInfo, error)
}

// Auth0Service calls the Auth0 tenant's endpoints.
type Auth0Service struct {
	domain string
	client *http.Client
}

var auth0ServiceInstance Auth0Interface

// InitAuth0Service initializes the Auth0 service from configuration.
func InitAuth0Service(cfg *config.Config) Auth0Interface {
	auth0ServiceInstance = &Auth0Service{
		domain: cfg.Auth0Domain,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	return auth0ServiceInstance
}

// GetAuth0Service returns the initialized Auth0 service instance.
func GetAuth0Service() Auth0Interface {
	return auth0ServiceInstance
}

// SetAuth0Service sets the Auth0 service instance (primarily for testing).
func SetAuth0Service(service Auth0Interface) {
	auth0ServiceInstance = service
}

// GetUserInfo fetches the caller's identity from Auth0's /userinfo endpoint
// using their access token.
func (s *Auth0Service) GetUserInfo(accessToken string) (*UserInfo, error) {
	url := fmt.Sprintf("https://%s/userinfo", s.domain)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &info, nil
}

// MockAuth0Service is a mock implementation for testing.
type MockAuth0Service struct {
	Users map[string]*UserInfo // access token → userinfo
}

// NewMockAuth0Service creates a mock with no users registered.
func NewMockAuth0Service() *MockAuth0Service {
	return &MockAuth0Service{Users: make(map[string]*UserInfo)}
}

// SetAsMockForTesting sets this mock as the global Auth0 service instance.
func (m *MockAuth0Service) SetAsMockForTesting() {
	SetAuth0Service(m)
}

// GetUserInfo returns the registered userinfo for the token.
func (m *MockAuth0Service) GetUserInfo(accessToken string) (*UserInfo, error) {
	info, ok := m.Users[accessToken]
	if !ok {
		return nil, fmt.Errorf("userinfo returned status %d", http.StatusUnauthorized)
	}
	return info, nil
}
