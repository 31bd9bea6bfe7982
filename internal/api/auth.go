package api

import (
	"net/http"

	"github.com/joescharf/folio/internal/auth"
	"github.com/joescharf/folio/internal/metrics"
)

type loginRequest struct {
	Password string `json:"password"`
}

type authStatusResponse struct {
	Authenticated    bool   `json:"authenticated"`
	Remaining        int64  `json:"remaining"`
	RemainingText    string `json:"remainingText"`
	LockoutRemaining int64  `json:"lockoutRemaining"`
	Attempts         int    `json:"attempts"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	ctx := r.Context()
	guard := sessionFrom(ctx).Guard

	lockout, err := guard.LockoutTimeRemaining(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lockout > 0 {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":            "Too many failed attempts. Try again in " + auth.FormatLockout(lockout),
			"lockoutRemaining": lockout.Milliseconds(),
		})
		return
	}

	ok, err := guard.Authenticate(ctx, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		lockout, _ = guard.LockoutTimeRemaining(ctx)
		s.logger.Warn("admin login failed", "ip", clientIP(r))
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":            "Invalid password",
			"lockoutRemaining": lockout.Milliseconds(),
		})
		return
	}

	remaining, _ := guard.RemainingSessionTime(ctx)
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"remaining":     remaining.Milliseconds(),
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Guard.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guard := sessionFrom(ctx).Guard

	authenticated, err := guard.IsAuthenticated(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var resp authStatusResponse
	resp.Authenticated = authenticated
	if authenticated {
		remaining, _ := guard.RemainingSessionTime(ctx)
		resp.Remaining = remaining.Milliseconds()
		resp.RemainingText = auth.FormatRemainingTime(remaining)
	}
	lockout, _ := guard.LockoutTimeRemaining(ctx)
	resp.LockoutRemaining = lockout.Milliseconds()
	attempts, _ := guard.AccessAttempts(ctx)
	resp.Attempts = len(attempts)

	writeJSON(w, http.StatusOK, resp)
}
