// Package testutil provides a configurable mock fleet admin API server for
// testing.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockAdmin is a configurable mock admin API server. It implements the
// login, device-query, and paginated event-query endpoints and tracks
// request counts per endpoint.
type MockAdmin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	email    string
	password string
	token    string

	devices []map[string]any
	events  map[string][]map[string]any

	failLogins       int
	failDeviceQuery  int
	failEventQuery   int
	LoginCount       int
	DeviceQueryCount int
	EventQueryCount  int
}

// NewMockAdmin creates a mock admin server accepting the given account and
// issuing the given access token.
func NewMockAdmin(email, password, token string) *MockAdmin {
	mock := &MockAdmin{
		email:    email,
		password: password,
		token:    token,
		handlers: make(map[string]http.HandlerFunc),
		events:   make(map[string][]map[string]any),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case "/auth/login":
			mock.handleLogin(w, r)
		case "/devices/query":
			mock.handleDeviceQuery(w, r)
		case "/events/query":
			mock.handleEventQuery(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAdmin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAdmin) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and failure injections.
func (m *MockAdmin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoginCount = 0
	m.DeviceQueryCount = 0
	m.EventQueryCount = 0
	m.failLogins = 0
	m.failDeviceQuery = 0
	m.failEventQuery = 0
}

// SetHandler overrides the handler for a specific path.
func (m *MockAdmin) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetDevices configures the device-query result set.
func (m *MockAdmin) SetDevices(devices []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

// SetEvents configures the event stream for one device.
func (m *MockAdmin) SetEvents(deviceID string, events []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[deviceID] = events
}

// SeedTaskSummaries generates n synthetic task-summary events for a device,
// walking cleaning squares along a line so coordinates are distinct.
func (m *MockAdmin) SeedTaskSummaries(deviceID string, n int) {
	events := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, map[string]any{
			"id":       fmt.Sprintf("%s-evt-%d", deviceID, i),
			"deviceId": deviceID,
			"report": map[string]any{
				"robotCleaningSquareX": float64(i),
				"robotCleaningSquareY": float64(i),
			},
		})
	}
	m.SetEvents(deviceID, events)
}

// RotateToken changes the issued token. Previously cached bearer headers
// become invalid until the client logs in again.
func (m *MockAdmin) RotateToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// FailLogins makes the next n login attempts fail with a 500.
func (m *MockAdmin) FailLogins(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLogins = n
}

// FailDeviceQueries makes the next n device queries fail with a 500.
func (m *MockAdmin) FailDeviceQueries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDeviceQuery = n
}

// FailEventQueries makes the next n event queries fail with a 500.
func (m *MockAdmin) FailEventQueries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEventQuery = n
}

// GetLoginCount returns the number of login requests received.
func (m *MockAdmin) GetLoginCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LoginCount
}

// GetDeviceQueryCount returns the number of device-query requests received.
func (m *MockAdmin) GetDeviceQueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.DeviceQueryCount
}

// GetEventQueryCount returns the number of event-query requests received.
func (m *MockAdmin) GetEventQueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.EventQueryCount
}

// authorized checks the bearer token on an authenticated endpoint.
func (m *MockAdmin) authorized(r *http.Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return r.Header.Get("Authorization") == "Bearer "+m.token
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (m *MockAdmin) handleLogin(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.LoginCount++
	fail := m.failLogins > 0
	if fail {
		m.failLogins--
	}
	token := m.token
	m.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "backend unavailable"})
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	if body.Email != m.email || body.Password != m.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authentication": map[string]string{"accessToken": token},
	})
}

func (m *MockAdmin) handleDeviceQuery(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.DeviceQueryCount++
	fail := m.failDeviceQuery > 0
	if fail {
		m.failDeviceQuery--
	}
	m.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "backend unavailable"})
		return
	}

	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m.mu.RLock()
	items := make([]map[string]any, 0, len(m.devices))
	for _, d := range m.devices {
		if body.Enabled != nil && *body.Enabled {
			if enabled, _ := d["enabled"].(bool); !enabled {
				continue
			}
		}
		items = append(items, d)
	}
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (m *MockAdmin) handleEventQuery(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.EventQueryCount++
	fail := m.failEventQuery > 0
	if fail {
		m.failEventQuery--
	}
	m.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "backend unavailable"})
		return
	}

	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	var body struct {
		Count     int      `json:"count"`
		Offset    int      `json:"offset"`
		DeviceIDs []string `json:"deviceIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	m.mu.RLock()
	var all []map[string]any
	for _, id := range body.DeviceIDs {
		all = append(all, m.events[id]...)
	}
	m.mu.RUnlock()

	start := body.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + body.Count
	if end > len(all) {
		end = len(all)
	}

	items := all[start:end]
	if items == nil {
		items = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
