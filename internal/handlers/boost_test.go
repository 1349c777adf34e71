package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cpu_boost/internal/models"
	"cpu_boost/internal/service"
)

func doRequest(t *testing.T, h http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	h.ServeHTTP(w, req)
	return w
}

func newBoostRouter(role string) (*mockBoost, *mockMonitoring, http.Handler) {
	auth := &mockAuth{parseID: service.Identity{UserID: 7, Role: role}}
	mon := &mockMonitoring{state: models.BoostStatus{
		BoostState:      models.BoostState{Active: true, CycleID: "c-1", FloorKHz: 1134000},
		RemainingMs:     1500,
		DefaultFloorKHz: 192000,
		OnlineCPUs:      "0-3",
	}}
	boost := &mockBoost{
		outcome: service.RequestOutcome{Accepted: true},
		params:  models.BoostParams{FrequencyKHz: 1134000, DurationMs: 3000},
	}
	s := &service.Service{Authorization: auth, Monitoring: mon, Boost: boost}
	return boost, mon, newTestRouter(s)
}

func TestBoostHandlers_GetState(t *testing.T) {
	_, _, r := newBoostRouter(models.RoleRequester)

	// requires auth → 401 without header
	if w := doRequest(t, r, http.MethodGet, "/api/v1/boost/state", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w := doRequest(t, r, http.MethodGet, "/api/v1/boost/state", "valid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.BoostStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if !st.Active || st.CycleID != "c-1" || st.RemainingMs != 1500 || st.OnlineCPUs != "0-3" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestBoostHandlers_GetStateError(t *testing.T) {
	_, mon, r := newBoostRouter(models.RoleRequester)
	mon.err = errors.New("boom")

	w := doRequest(t, r, http.MethodGet, "/api/v1/boost/state", "valid", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), errGetState) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestBoostHandlers_Request(t *testing.T) {
	boost, _, r := newBoostRouter(models.RoleRequester)

	w := doRequest(t, r, http.MethodPost, "/api/v1/boost/request", "valid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request status=%d, body=%s", w.Code, w.Body.String())
	}
	if boost.requestCalls != 1 {
		t.Fatalf("expected Request to be called once, got %d", boost.requestCalls)
	}
	var resp struct {
		Status         string             `json:"status"`
		AlreadyPending bool               `json:"already_pending"`
		State          models.BoostStatus `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusRequested || resp.AlreadyPending {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.State.CycleID != "c-1" {
		t.Fatalf("state missing/invalid in response: %+v", resp.State)
	}

	boost.outcome = service.RequestOutcome{Accepted: false, AlreadyPending: true}
	w = doRequest(t, r, http.MethodPost, "/api/v1/boost/request", "valid", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Status != statusIgnored || !resp.AlreadyPending {
		t.Fatalf("expected ignored response, got %d %+v", w.Code, resp)
	}
}

func TestBoostHandlers_GetParams(t *testing.T) {
	_, _, r := newBoostRouter(models.RoleRequester)

	w := doRequest(t, r, http.MethodGet, "/api/v1/boost/params", "valid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("params status=%d", w.Code)
	}
	var p models.BoostParams
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.FrequencyKHz != 1134000 || p.DurationMs != 3000 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestBoostHandlers_SetParams(t *testing.T) {
	boost, _, r := newBoostRouter(models.RoleOperator)

	w := doRequest(t, r, http.MethodPut, "/api/v1/boost/params", "valid", bytes.NewBufferString(`{"duration_ms":500}`))
	if w.Code != http.StatusOK {
		t.Fatalf("set params status=%d, body=%s", w.Code, w.Body.String())
	}
	if boost.setCalls != 1 || boost.lastSet.FrequencyKHz != nil || boost.lastSet.DurationMs == nil || *boost.lastSet.DurationMs != 500 {
		t.Fatalf("wrong SetParams input: %+v", boost.lastSet)
	}
	var resp struct {
		Status string             `json:"status"`
		Params models.BoostParams `json:"params"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusParamsSet || resp.Params.DurationMs != 500 || resp.Params.FrequencyKHz != 1134000 {
		t.Fatalf("bad set params response: %+v", resp)
	}
}

func TestBoostHandlers_SetParamsErrors(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		body   string
		setErr error
		want   int
	}{
		{name: "requester forbidden", role: models.RoleRequester, body: `{"frequency_khz":1}`, want: http.StatusForbidden},
		{name: "malformed body", role: models.RoleOperator, body: `{"frequency_khz":"fast"}`, want: http.StatusBadRequest},
		{name: "no fields", role: models.RoleOperator, body: `{}`, want: http.StatusBadRequest},
		{name: "persist failure", role: models.RoleOperator, body: `{"frequency_khz":1}`, setErr: errors.New("readonly"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			boost, _, r := newBoostRouter(tc.role)
			boost.setErr = tc.setErr

			w := doRequest(t, r, http.MethodPut, "/api/v1/boost/params", "valid", bytes.NewBufferString(tc.body))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d, body=%s", w.Code, tc.want, w.Body.String())
			}
			if tc.want == http.StatusForbidden && boost.setCalls != 0 {
				t.Fatalf("SetParams must not be reached without the operator role")
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := doRequest(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), statusOK) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("expected default go collector output")
	}
}

func TestSwaggerDoc(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := doRequest(t, r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("swagger doc status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/v1/boost/request") {
		t.Fatalf("swagger doc missing boost routes: %s", w.Body.String())
	}
}
