package handlers

import (
	"context"
	"net/http"
	"sync"

	"cpu_boost/internal/models"
	"cpu_boost/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       service.Identity
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (service.Identity, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockBoost struct {
	outcome      service.RequestOutcome
	params       models.BoostParams
	setErr       error
	requestCalls int
	setCalls     int
	lastSet      service.ParamsInput
}

func (m *mockBoost) Request(ctx context.Context) service.RequestOutcome {
	m.requestCalls++
	return m.outcome
}
func (m *mockBoost) Params(ctx context.Context) models.BoostParams {
	return m.params
}
func (m *mockBoost) SetParams(ctx context.Context, in service.ParamsInput) (models.BoostParams, error) {
	m.setCalls++
	m.lastSet = in
	if m.setErr != nil {
		return models.BoostParams{}, m.setErr
	}
	if in.FrequencyKHz != nil {
		m.params.FrequencyKHz = *in.FrequencyKHz
	}
	if in.DurationMs != nil {
		m.params.DurationMs = *in.DurationMs
	}
	return m.params, nil
}

type mockMonitoring struct {
	mu    sync.Mutex
	state models.BoostStatus
	err   error
	calls int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.BoostStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.state, m.err
}

func (m *mockMonitoring) set(st models.BoostStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
