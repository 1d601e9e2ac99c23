package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// writeJSON sends v with status. The header is already out when encoding
// fails, so the error is only logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps an analyzer or store error to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, analyzer.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, analyzer.ErrInvalidRequest), errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeError(w, status, err.Error())
}

var errBadParam = errors.New("bad parameter")

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", errBadParam, name, raw)
	}
	return v, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", errBadParam, name, raw)
	}
	return v, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	a := s.Analyzer()
	group := r.URL.Query().Get("group")
	clients, err := a.Clients(r.Context(), group)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if group == "" {
		group = a.Options().Group
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"group": group, "clients": nonNil(clients)})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Analyzer().Products(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": nonNil(products)})
}

func (s *Server) clientProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minCo, err := intParam(r, "min_co")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.Analyzer().ClientProfile(r.Context(), analyzer.ClientRequest{
		Client:      chi.URLParam(r, "client"),
		Month:       q.Get("month"),
		Anchor:      q.Get("anchor"),
		MinCoMonths: minCo,
		Limit:       limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) clientChurn(w http.ResponseWriter, r *http.Request) {
	c, err := s.Analyzer().ClientChurn(r.Context(), chi.URLParam(r, "client"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) churnScan(w http.ResponseWriter, r *http.Request) {
	var want analyzer.Risk
	if raw := strings.TrimSpace(r.URL.Query().Get("risk")); raw != "" {
		risk, err := analyzer.ParseRisk(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		want = risk
	}

	rows, err := s.Analyzer().ChurnScan(r.Context(), r.URL.Query().Get("group"), nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]analyzer.ClientChurn, 0, len(rows))
	for _, c := range rows {
		if want == "" || c.Risk == want {
			out = append(out, c)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clients": out})
}

func (s *Server) productProfile(w http.ResponseWriter, r *http.Request) {
	below, err := floatParam(r, "group_below", analyzer.DefaultGroupBelowPct)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.Analyzer().ProductProfile(r.Context(), analyzer.ProductRequest{
		Product:       chi.URLParam(r, "product"),
		Month:         r.URL.Query().Get("month"),
		GroupBelowPct: below,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) topClients(w http.ResponseWriter, r *http.Request) {
	pct, err := floatParam(r, "percent", 10)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rep, err := s.Analyzer().TopClients(r.Context(), analyzer.TopClientsRequest{
		Group:   r.URL.Query().Get("group"),
		Percent: pct,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) managers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := s.Analyzer().Managers(r.Context(), analyzer.ManagerRequest{
		Month:   q.Get("month"),
		Product: q.Get("product"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) managerProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.Analyzer().ManagerProfile(r.Context(), analyzer.ManagerRequest{
		Manager: chi.URLParam(r, "manager"),
		Month:   q.Get("month"),
		Product: q.Get("product"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
