package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	clubshareservice "coopshares/contexts/cooperative-finance/club-share-service"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	clubShares clubshareservice.Module
}

func New(
	clubShares clubshareservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		clubShares: clubShares,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /clubshares/import", s.handleClubSharesImport)
	s.mux.HandleFunc("POST /clubshares/allocations/{allocation_id}/invitation", s.handleClubSharesSendInvitation)
	s.mux.HandleFunc("POST /clubshares/invitations/bulk", s.handleClubSharesBulkInvitations)
	s.mux.HandleFunc("POST /clubshares/allocations/{allocation_id}/decision", s.handleClubSharesDecision)
	s.mux.HandleFunc("POST /clubshares/allocations/{allocation_id}/reset", s.handleClubSharesReset)
	s.mux.HandleFunc("POST /clubshares/releases/bulk", s.handleClubSharesBulkRelease)
	s.mux.HandleFunc("POST /clubshares/releases/manual", s.handleClubSharesManualRelease)
	s.mux.HandleFunc("DELETE /clubshares/batches/{batch_ref}", s.handleClubSharesDeleteBatch)

	s.mux.HandleFunc("GET /clubshares/batches/{batch_ref}", s.handleClubSharesListBatch)
	s.mux.HandleFunc("GET /clubshares/batches/{batch_ref}/summary", s.handleClubSharesBatchSummary)
	s.mux.HandleFunc("GET /clubshares/allocations/{allocation_id}", s.handleClubSharesGetAllocation)
	s.mux.HandleFunc("GET /clubshares/allocations/{allocation_id}/releases", s.handleClubSharesListReleases)
}

func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	target any,
	writeError func(http.ResponseWriter, int, string, string),
) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
