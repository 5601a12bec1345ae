package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hexcast/internal/hexagram"
	"hexcast/internal/reading"
)

type readingRequest struct {
	First     *int   `json:"first"`
	Second    *int   `json:"second"`
	Third     *int   `json:"third"`
	Question  string `json:"question"`
	Language  string `json:"language"`
	WithImage bool   `json:"with_image"`
}

type readingResponse struct {
	Reading *reading.Result `json:"reading"`
	Warning string          `json:"warning,omitempty"`
}

type coordinateResponse struct {
	Parent string `json:"parent_coord"`
	Child  string `json:"child_coord"`
	Upper  int    `json:"upper"`
	Lower  int    `json:"lower"`
	Line   int    `json:"line"`
}

type hexagramResponse struct {
	Parent     string `json:"parent_coord"`
	Child      string `json:"child_coord"`
	ParentText string `json:"parent_text"`
	ChildText  string `json:"child_text"`
	ImageURL   string `json:"image_url,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /api/readings
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateReading(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.First == nil || req.Second == nil || req.Third == nil {
		badRequest(w, "first, second and third are required")
		return
	}

	result, err := s.readings.GenerateReading(r.Context(), reading.Request{
		First:     *req.First,
		Second:    *req.Second,
		Third:     *req.Third,
		Question:  req.Question,
		Language:  req.Language,
		UserID:    userIDFrom(r.Context()),
		WithImage: req.WithImage,
	})

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, readingResponse{Reading: result})
	case errors.Is(err, reading.ErrUsageLog):
		// The reading itself succeeded; say so and flag the miss.
		writeJSON(w, http.StatusOK, readingResponse{
			Reading: result,
			Warning: "usage logging failed; this reading may not count against your quota",
		})
	case errors.Is(err, reading.ErrInvalidRequest):
		badRequest(w, err.Error())
	case errors.Is(err, reading.ErrQuotaExceeded):
		msg := "reading quota exceeded"
		var qe *reading.QuotaError
		if errors.As(err, &qe) && qe.Reason != "" {
			msg = qe.Reason
		}
		writeError(w, http.StatusTooManyRequests, msg)
	case errors.Is(err, reading.ErrTextLookup):
		writeError(w, http.StatusServiceUnavailable, "text store unavailable")
	case errors.Is(err, reading.ErrModel):
		writeError(w, http.StatusBadGateway, "model invocation failed")
	default:
		s.log.Error("reading failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// /api/coordinates?first=&second=&third=
func (s *Server) handleCoordinates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	first, err1 := strconv.Atoi(q.Get("first"))
	second, err2 := strconv.Atoi(q.Get("second"))
	third, err3 := strconv.Atoi(q.Get("third"))
	if err1 != nil || err2 != nil || err3 != nil {
		badRequest(w, "first, second and third must be integers")
		return
	}

	coord := hexagram.Derive(first, second, third)
	writeJSON(w, http.StatusOK, coordinateResponse{
		Parent: coord.Parent(),
		Child:  coord.Child(),
		Upper:  coord.Upper,
		Lower:  coord.Lower,
		Line:   coord.Line,
	})
}

// /api/hexagrams/{parent}/{child}
func (s *Server) handleHexagram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/hexagrams/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.NotFound(w, r)
		return
	}
	parent, child := parts[0], parts[1]

	rec, err := s.texts.Get(r.Context(), parent, child)
	if err != nil {
		s.log.Error("text lookup failed",
			zap.String("parent", parent),
			zap.String("child", child),
			zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "text store unavailable")
		return
	}
	if !rec.Found {
		writeError(w, http.StatusNotFound, "no text for this coordinate")
		return
	}

	resp := hexagramResponse{
		Parent:     parent,
		Child:      child,
		ParentText: rec.ParentText,
		ChildText:  rec.ChildText,
	}

	if r.URL.Query().Get("image") == "1" && s.images != nil {
		url, err := s.images.SignedURL(r.Context(), parent, child)
		if err != nil {
			s.log.Warn("image URL resolution failed",
				zap.String("parent", parent),
				zap.String("child", child),
				zap.Error(err))
		} else {
			resp.ImageURL = url
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
