package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/randalmurphal/enrich/enhancer"
	"github.com/randalmurphal/enrich/response"
)

type enrichRequest struct {
	Response    *response.Legacy      `json:"response"`
	ExecContext *enhancer.ExecContext `json:"execContext,omitempty"`
	Files       []string              `json:"files,omitempty"`
}

type validateRequest struct {
	Response *response.Legacy `json:"response"`
	Schema   response.Schema  `json:"schema"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type healthResponse struct {
	Status    string   `json:"status"`
	Enhancers []string `json:"enhancers"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	order := []string{}
	if s.pipeline != nil {
		order = s.pipeline.Order()
	}
	s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Enhancers: order})
}

func (s *Server) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Response == nil {
		s.writeError(w, r, http.StatusBadRequest, "response is required")
		return
	}

	resp := response.FromLegacy(*req.Response)
	if len(req.Files) > 0 {
		if _, ok := resp.Metadata["files"]; !ok {
			resp.AddMetadata("files", req.Files)
		}
	}

	ec := req.ExecContext
	if ec == nil {
		ec = &enhancer.ExecContext{}
	}
	if ec.SessionID == "" && (ec.Session == nil || ec.Session.ID == "") {
		id, err := s.newID()
		if err != nil {
			s.logger.Error("session id", "error", err)
			s.writeError(w, r, http.StatusInternalServerError, "could not allocate session id")
			return
		}
		ec.SessionID = id
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	out := resp
	if s.pipeline != nil {
		var report enhancer.Report
		out, report = s.pipeline.RunWithReport(ctx, resp, ec)
		if len(report.Failed) > 0 {
			failed := make([]string, len(report.Failed))
			for i, f := range report.Failed {
				failed[i] = f.Enhancer
			}
			s.logger.Warn("enrich degraded",
				"session", ec.SessionID,
				"failed", failed,
				"request_id", middleware.GetReqID(r.Context()))
		}
	}

	if r.URL.Query().Get("format") == "legacy" {
		s.writeJSON(w, r, http.StatusOK, response.ToLegacy(out))
		return
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Response == nil {
		s.writeError(w, r, http.StatusBadRequest, "response is required")
		return
	}

	result := response.NewValidator(req.Schema)(response.FromLegacy(*req.Response))
	if result.Errors == nil {
		result.Errors = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// decode reads a JSON body into v, writing the error reply on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.logger.Debug("decode body", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, r, http.StatusBadRequest, "failed to decode body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())})
}
