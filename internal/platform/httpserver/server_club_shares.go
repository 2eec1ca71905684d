package httpserver

import (
	"net/http"
	"strings"

	clubshareerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	clubsharehttp "coopshares/contexts/cooperative-finance/club-share-service/transport/http"
)

func writeClubShareError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, clubsharehttp.ErrorResponse{Code: code, Message: message})
}

func writeClubShareDomainError(w http.ResponseWriter, err error) {
	switch {
	case clubshareerrors.IsNotFound(err):
		writeClubShareError(w, http.StatusNotFound, "not_found", err.Error())
	case clubshareerrors.IsValidation(err):
		writeClubShareError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case clubshareerrors.IsDependencyFailure(err):
		writeClubShareError(w, http.StatusFailedDependency, "dependency_failed", err.Error())
	case clubshareerrors.IsIntegrity(err):
		writeClubShareError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeClubShareError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireClubShareAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actorID == "" {
		writeClubShareError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	if !strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Role")), "admin") {
		writeClubShareError(w, http.StatusForbidden, "forbidden", "admin role is required")
		return "", false
	}
	return actorID, true
}

func (s *Server) handleClubSharesImport(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	var req clubsharehttp.ImportRequest
	if !s.decodeJSON(w, r, &req, writeClubShareError) {
		return
	}
	resp, err := s.clubShares.Handler.ImportBatchHandler(r.Context(), actorID, req)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleClubSharesSendInvitation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	allocationID := r.PathValue("allocation_id")
	if err := s.clubShares.Handler.SendInvitationHandler(r.Context(), actorID, allocationID); err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invitation_sent"})
}

func (s *Server) handleClubSharesBulkInvitations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	var req clubsharehttp.BulkInvitationsRequest
	if !s.decodeJSON(w, r, &req, writeClubShareError) {
		return
	}
	resp, err := s.clubShares.Handler.SendBulkInvitationsHandler(r.Context(), actorID, req)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesDecision(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	allocationID := r.PathValue("allocation_id")
	var req clubsharehttp.DecisionRequest
	if !s.decodeJSON(w, r, &req, writeClubShareError) {
		return
	}
	if err := s.clubShares.Handler.RecordDecisionHandler(r.Context(), actorID, allocationID, req); err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "decision_recorded"})
}

func (s *Server) handleClubSharesReset(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	allocationID := r.PathValue("allocation_id")
	if err := s.clubShares.Handler.ResetAllocationHandler(r.Context(), actorID, allocationID); err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "allocation_reset"})
}

func (s *Server) handleClubSharesBulkRelease(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	var req clubsharehttp.BulkReleaseRequest
	if !s.decodeJSON(w, r, &req, writeClubShareError) {
		return
	}
	resp, err := s.clubShares.Handler.BulkReleaseHandler(r.Context(), actorID, req)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesManualRelease(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	var req clubsharehttp.ManualReleaseRequest
	if !s.decodeJSON(w, r, &req, writeClubShareError) {
		return
	}
	resp, err := s.clubShares.Handler.ManualReleaseHandler(r.Context(), actorID, req)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesDeleteBatch(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireClubShareAdmin(w, r)
	if !ok {
		return
	}
	batchRef := r.PathValue("batch_ref")
	resp, err := s.clubShares.Handler.DeleteBatchHandler(r.Context(), actorID, batchRef)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesListBatch(w http.ResponseWriter, r *http.Request) {
	batchRef := r.PathValue("batch_ref")
	resp, err := s.clubShares.Handler.ListBatchHandler(r.Context(), batchRef)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesBatchSummary(w http.ResponseWriter, r *http.Request) {
	batchRef := r.PathValue("batch_ref")
	resp, err := s.clubShares.Handler.BatchSummaryHandler(r.Context(), batchRef)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesGetAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID := r.PathValue("allocation_id")
	resp, err := s.clubShares.Handler.GetAllocationHandler(r.Context(), allocationID)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubSharesListReleases(w http.ResponseWriter, r *http.Request) {
	allocationID := r.PathValue("allocation_id")
	resp, err := s.clubShares.Handler.ListReleaseLogsHandler(r.Context(), allocationID)
	if err != nil {
		writeClubShareDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
