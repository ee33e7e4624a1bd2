// Package health provides readiness tracking and HTTP health handlers
// for the MCP Snowflake server.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// State constants for the readiness state machine.
const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// SessionStatus is the session snapshot reported by /statusz.
type SessionStatus struct {
	Connected      bool    `json:"connected"`
	AuthAgeSeconds float64 `json:"auth_age_seconds"`
	InitPending    bool    `json:"init_pending"`
}

// StatusFunc reports the current database session state.
type StatusFunc func() SessionStatus

// Checker tracks server readiness. The server starts in the Starting
// state and becomes Ready once the background session initialization
// completes. A failed init still reports Ready, since the session
// manager repairs itself on the next call.
// Safe for concurrent use.
type Checker struct {
	state  atomic.Int32
	status StatusFunc
}

// NewChecker creates a Checker in the Starting state. The status
// function may be nil when no session reporting is wanted.
func NewChecker(status StatusFunc) *Checker {
	return &Checker{status: status}
}

// SetReady transitions to the Ready state.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetDraining transitions to the Draining state.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady returns true when the state is Ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state as a human-readable string.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status string `json:"status"`
}

// LivenessHandler always responds 200 OK. Use for K8s livenessProbe
// (/healthz).
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler responds 200 when ready and 503 when starting or
// draining. Use for K8s readinessProbe (/readyz).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if c.IsReady() {
			writeJSON(w, http.StatusOK, healthResponse{Status: c.State()})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: c.State()})
	}
}

// sessionResponse is the JSON body returned by /statusz.
type sessionResponse struct {
	State   string         `json:"state"`
	Session *SessionStatus `json:"session,omitempty"`
}

// SessionHandler reports the server state and database session snapshot.
func (c *Checker) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := sessionResponse{State: c.State()}
		if c.status != nil {
			status := c.status()
			resp.Session = &status
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
