package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dispatchreport/internal/common"
	"dispatchreport/internal/report"
)

// xlsmContentType is the macro-enabled workbook media type.
const xlsmContentType = "application/vnd.ms-excel.sheet.macroEnabled.12"

// Server exposes the extract → edit → generate sequence over HTTP.
type Server struct {
	svc     *report.Service
	auth    common.AuthConfig
	logger  *slog.Logger
	limiter *ipLimiter
}

func New(svc *report.Service, auth common.AuthConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:     svc,
		auth:    auth,
		logger:  logger,
		limiter: newIPLimiter(auth.AuthRatePerMin),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleAuth exchanges the passcode for a session token.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	var req struct {
		Passcode string `json:"passcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !passcodeMatches(s.auth.Passcode, req.Passcode) {
		s.logger.Warn("auth rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "wrong passcode")
		return
	}

	token, expires, err := SignAccessToken(s.auth.JWTSecret, s.auth.TokenTTL)
	if err != nil {
		s.logger.Error("token signing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

// handleExtract parses pasted mail text into a record for review.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	rec := s.svc.Extract(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, map[string]any{"record": rec.Map()})
}

// handleGenerate runs the full pipeline and streams the artifact back.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string            `json:"text"`
		Edits map[string]string `json:"edits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := s.svc.GenerateFromText(r.Context(), req.Text, req.Edits)
	if err != nil {
		s.logger.Warn("generate failed", "error", err)
		writeError(w, common.HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsmContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(res.Filename)))
	w.Header().Set("X-Report-Id", res.ID.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

// handleHistory lists recent generation attempts.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": entries})
}
