package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type feeRequest struct {
	Token     string   `json:"token"`
	Amount    float64  `json:"amount"`
	SpreadFee *float64 `json:"spread_fee,omitempty"`
}

type convertSourceRequest struct {
	Token        string   `json:"token"`
	TargetAmount float64  `json:"target_amount"`
	SpreadFee    *float64 `json:"spread_fee,omitempty"`
}

type convertTargetResponse struct {
	TargetAmount float64              `json:"target_amount"`
	Fees         pricing.FeeBreakdown `json:"fees"`
}

type convertSourceResponse struct {
	SourceAmount float64              `json:"source_amount"`
	Fees         pricing.FeeBreakdown `json:"fees"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("response encode failed")
	}
}

// writeError maps engine error kinds onto HTTP statuses: bad input is
// 400, unknown tokens 404, throttling 429 with a Retry-After hint, and
// anything else a 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := market.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case market.KindInvalidArgument:
		status = http.StatusBadRequest
	case market.KindNotFound:
		status = http.StatusNotFound
	case market.KindRateLimited:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", "60")
	}

	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such endpoint", Kind: string(market.KindNotFound)})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	tokenInput := mux.Vars(r)["token"]

	quote, err := s.engine.GetQuote(r.Context(), tokenInput)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	tokenInput := mux.Vars(r)["token"]

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, market.Errorf(market.KindInvalidArgument, "server.handleVolatility", "days must be an integer, got %q", raw))
			return
		}
		days = parsed
	}

	estimate, err := s.engine.GetVolatility(r.Context(), tokenInput, days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, estimate)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, market.Errorf(market.KindInvalidArgument, "server.decodeBody", "invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.engine.CalculateFees(r.Context(), req.Token, req.Amount, req.SpreadFee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConvertTarget(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	target, result, err := s.engine.CalculateTargetAmount(r.Context(), req.Token, req.Amount, req.SpreadFee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, convertTargetResponse{TargetAmount: target, Fees: result})
}

func (s *Server) handleConvertSource(w http.ResponseWriter, r *http.Request) {
	var req convertSourceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	source, result, err := s.engine.CalculateSourceAmount(r.Context(), req.Token, req.TargetAmount, req.SpreadFee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, convertSourceResponse{SourceAmount: source, Fees: result})
}
