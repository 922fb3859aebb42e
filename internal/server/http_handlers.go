package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"jobscout/internal/ai"
	"jobscout/internal/errors"
	"jobscout/internal/jobs"
	"jobscout/internal/types"
)

type keywordsRequest struct {
	Summary *string `json:"summary" validate:"required"`
}

// analyzeResumeHandler handles resume upload and analysis requests
func (s *Server) analyzeResumeHandler(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			writeErrorResponse(w, fmt.Sprintf("File exceeds the %d byte limit", s.Services.Extractor.MaxFileSize()),
				errors.ErrCodeFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, "Field required: file", errors.ErrCodeInvalidRequest, http.StatusUnprocessableEntity)
		return
	}
	defer func() { _ = file.Close() }()

	if err := s.Services.Extractor.ValidateUpload(header.Filename, header.Size); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeAppError(w, r, errors.NewIOError(errors.ErrCodeFileNotReadable, "could not read upload", err))
		return
	}

	report, err := s.Services.AnalyzeDocument(r.Context(), header.Filename, data)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.Logger.Info("Resume analyzed",
		"request_id", RequestIDFrom(r.Context()),
		"filename", header.Filename,
		"size", len(data))
	writeJSON(w, http.StatusOK, report)
}

// keywordsHandler extracts search keywords from a summary
func (s *Server) keywordsHandler(w http.ResponseWriter, r *http.Request) {
	var req keywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, "Invalid JSON body", errors.ErrCodeInvalidRequest, http.StatusUnprocessableEntity)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeErrorResponse(w, "Field required: summary", errors.ErrCodeInvalidRequest, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, types.KeywordsOutput{Keywords: s.Services.Keywords(*req.Summary)})
}

// jobsHandler searches all configured sources for the given keywords
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("keywords") {
		writeErrorResponse(w, "Field required: keywords", errors.ErrCodeInvalidRequest, http.StatusUnprocessableEntity)
		return
	}

	rows, err := s.parseRows(query.Get("rows"))
	if err != nil {
		writeErrorResponse(w, err.Error(), errors.ErrCodeInvalidRequest, http.StatusUnprocessableEntity)
		return
	}

	postings, err := s.Services.SearchJobs(r.Context(), query.Get("keywords"), rows)
	if err != nil {
		s.Logger.LogError(err, "Job search failed",
			"request_id", RequestIDFrom(r.Context()))
		writeErrorResponse(w, "Job search failed: "+err.Error(), errors.ErrCodeAllSourcesFailed, http.StatusInternalServerError)
		return
	}
	if postings == nil {
		postings = []types.JobPosting{}
	}

	writeJSON(w, http.StatusOK, types.JobsOutput{Jobs: postings})
}

// parseRows applies the default row limit and validates the configured range.
func (s *Server) parseRows(raw string) (int, error) {
	if raw == "" {
		return s.DefaultRows, nil
	}
	rows, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rows must be an integer")
	}
	if err := s.validate.Var(rows, fmt.Sprintf("gte=1,lte=%d", s.MaxRows)); err != nil {
		return 0, fmt.Errorf("rows must be between 1 and %d", s.MaxRows)
	}
	return rows, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sourcesHealthHandler probes every job source and reports provider and
// certificate state. Any unhealthy component marks the response degraded.
func (s *Server) sourcesHealthHandler(w http.ResponseWriter, r *http.Request) {
	statuses := jobs.ProbeSources(r.Context(), s.Services.Aggregator.Sources(), s.ProbeTimeout)

	healthy := true
	for _, st := range statuses {
		if !st.Healthy {
			healthy = false
		}
	}

	provider := s.providerStatus(r.Context())
	if ok, found := provider["healthy"].(bool); found && !ok {
		healthy = false
	}

	response := map[string]any{
		"sources":  statuses,
		"provider": provider,
	}
	if certs := s.certificateStatus(); certs != nil {
		response["certificates"] = certs
		if ok, _ := certs["healthy"].(bool); !ok {
			healthy = false
		}
	}
	if s.RateLimiter != nil {
		response["rate_limiter"] = s.RateLimiter.Stats()
	}

	response["status"] = "ok"
	if !healthy {
		response["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, response)
}

// providerStatus reports breaker state and, when the provider supports it,
// whether the configured model is available.
func (s *Server) providerStatus(ctx context.Context) map[string]any {
	gen := s.Services.Analyzer.Generator()
	if gen == nil {
		return map[string]any{"configured": false}
	}

	healthy := true
	status := map[string]any{"configured": true, "name": gen.Name()}
	if hr, ok := gen.(ai.HealthReporter); ok {
		healthy = hr.IsHealthy()
		status["breaker"] = hr.Stats()
	}
	if mc, ok := ai.AsModelChecker(gen); ok {
		info := mc.GetModelInfo(ctx)
		status["model"] = info
		healthy = healthy && info.Available
	}
	status["healthy"] = healthy
	return status
}

// certificateStatus reports time to expiry. Certificates expiring within a day are unhealthy.
func (s *Server) certificateStatus() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		return map[string]any{"healthy": false, "error": err.Error()}
	}

	status := map[string]any{
		"healthy":              timeToExpiry > 24*time.Hour,
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"reloads":              s.CertificateManager.ReloadCount(),
		"last_reload":          s.CertificateManager.LastReloadTime().UTC().Format(time.RFC3339),
	}
	if msg := s.CertificateManager.LastReloadError(); msg != "" {
		status["last_reload_error"] = msg
	}
	return status
}

func (s *Server) rootHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Job Recommender API",
		"version": s.Version,
	})
}

// writeAppError maps an application error onto its HTTP status.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		s.Logger.LogError(err, "Unhandled request error", "request_id", RequestIDFrom(r.Context()))
		writeErrorResponse(w, "Internal server error", "", http.StatusInternalServerError)
		return
	}

	status := statusFor(appErr)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "request_id", RequestIDFrom(r.Context()))
	} else {
		s.Logger.Info("Request rejected",
			"request_id", RequestIDFrom(r.Context()),
			"code", appErr.Code,
			"status", status)
	}
	writeErrorResponse(w, appErr.Message, appErr.Code, status)
}

func statusFor(appErr *errors.AppError) int {
	switch {
	case appErr.Code == errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case appErr.Code == errors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case appErr.Type == errors.ErrorTypeValidation, appErr.Type == errors.ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, detail, code string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Detail: detail, Code: code})
}
