// Copyright 2026 Sengol AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sengol-ai/conclave/council"
	"github.com/sengol-ai/conclave/database/models"
	"github.com/sengol-ai/conclave/ledger"
)

// validate checks request struct tags before any manager call
var validate = validator.New()

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeManagerError maps manager errors onto HTTP statuses. Validation
// failures are 400, unknown ids and unassigned assessments 404, lifecycle
// conflicts 409, and everything else is treated as a retryable persistence
// failure. Storage internals are logged, never returned.
func (s *Server) writeManagerError(w http.ResponseWriter, err error) {
	var councilValidationErr council.ValidationError
	var ledgerValidationErr ledger.ValidationError
	switch {
	case errors.As(err, &councilValidationErr),
		errors.As(err, &ledgerValidationErr):
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
	case errors.Is(err, models.ErrCouncilNotFound),
		errors.Is(err, models.ErrMembershipNotFound),
		errors.Is(err, models.ErrAssessmentNotFound),
		errors.Is(err, council.ErrAssessmentUnassigned):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			err.Error(),
		)
	case errors.Is(err, council.ErrCouncilArchived),
		errors.Is(err, council.ErrMembershipRevoked),
		errors.Is(err, council.ErrMembershipWrongCouncil):
		writeError(
			w,
			http.StatusConflict,
			"Conflict",
			err.Error(),
		)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(
			w,
			http.StatusServiceUnavailable,
			"Service Unavailable",
			"temporary storage failure, retry the request",
		)
	}
}

// decodeRequest decodes and validates a JSON request body.
func decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf(
				"invalid request field %q",
				fieldErrs[0].Field(),
			)
		}
		return err
	}
	return nil
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

// handleSubmitDecision handles POST
// /api/v1/assessments/{assessmentId}/decisions.
func (s *Server) handleSubmitDecision(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req SubmitDecisionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	result, err := s.councilManager.SubmitDecision(
		r.Context(),
		council.DecisionInput{
			AssessmentID:       r.PathValue("assessmentId"),
			CouncilID:          req.CouncilID,
			MembershipID:       req.MembershipID,
			PartnerID:          req.PartnerID,
			Step:               req.Step,
			Status:             req.Status,
			DecisionNotes:      req.DecisionNotes,
			ReasonCodes:        req.ReasonCodes,
			EvidenceSnapshotID: req.EvidenceSnapshotID,
			EvidenceSnapshot:   req.EvidenceSnapshot,
			ActorID:            req.ActorID,
			ActorRole:          req.ActorRole,
		},
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DecisionResponse{
		Approval:    newApprovalResponse(result.Approval),
		LedgerEntry: newLedgerEntryResponse(result.LedgerEntry),
	})
}

// handleLedgerEntries handles GET
// /api/v1/assessments/{assessmentId}/ledger.
func (s *Server) handleLedgerEntries(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	assessmentId := r.PathValue("assessmentId")
	entries, err := s.ledgerManager.Entries(
		r.Context(),
		assessmentId,
		ledger.EntryFilter{
			EntryType: r.URL.Query().Get("entry_type"),
			Count:     params.Count,
			Page:      params.Page,
		},
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	total, err := s.ledgerManager.EntryCount(r.Context(), assessmentId)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	resp := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, newLedgerEntryResponse(&entries[i]))
	}
	SetPaginationHeaders(w, int(total), params)
	writeJSON(w, http.StatusOK, resp)
}

// handleLedgerVerify handles GET
// /api/v1/assessments/{assessmentId}/ledger/verify. A broken chain is a
// structured negative result, not an HTTP error.
func (s *Server) handleLedgerVerify(
	w http.ResponseWriter,
	r *http.Request,
) {
	result, err := s.ledgerManager.Verify(
		r.Context(),
		r.PathValue("assessmentId"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVerificationResponse(result))
}

// handleApprovalStatus handles GET
// /api/v1/assessments/{assessmentId}/approval-status.
func (s *Server) handleApprovalStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	verdict, err := s.councilManager.ApprovalStatus(
		r.Context(),
		r.PathValue("assessmentId"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVerdictResponse(verdict))
}

// handleAssignCouncil handles PUT
// /api/v1/assessments/{assessmentId}/council.
func (s *Server) handleAssignCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AssignCouncilRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	entry, err := s.councilManager.AssignAssessment(
		r.Context(),
		r.PathValue("assessmentId"),
		req.CouncilID,
		req.ActorID,
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLedgerEntryResponse(entry))
}

// handleUnassignCouncil handles DELETE
// /api/v1/assessments/{assessmentId}/council. The body is optional.
func (s *Server) handleUnassignCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req UnassignCouncilRequest
	//nolint:errcheck
	json.NewDecoder(r.Body).Decode(&req)
	entry, err := s.councilManager.UnassignAssessment(
		r.Context(),
		r.PathValue("assessmentId"),
		req.ActorID,
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLedgerEntryResponse(entry))
}

// handleCreateCouncil handles POST /api/v1/councils.
func (s *Server) handleCreateCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateCouncilRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	createdCouncil, err := s.councilManager.CreateCouncil(
		r.Context(),
		council.CouncilInput{
			Name:             req.Name,
			Quorum:           req.Quorum,
			RequireUnanimous: req.RequireUnanimous,
			ApprovalPolicy:   req.ApprovalPolicy,
		},
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCouncilResponse(createdCouncil))
}

// handleListCouncils handles GET /api/v1/councils. Archived councils are
// included with include_archived=true.
func (s *Server) handleListCouncils(
	w http.ResponseWriter,
	r *http.Request,
) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	councils, err := s.councilManager.Councils(
		r.Context(),
		includeArchived,
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	resp := make([]CouncilResponse, 0, len(councils))
	for i := range councils {
		resp = append(resp, newCouncilResponse(&councils[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetCouncil handles GET /api/v1/councils/{councilId}.
func (s *Server) handleGetCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	foundCouncil, err := s.councilManager.GetCouncil(
		r.Context(),
		r.PathValue("councilId"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCouncilResponse(foundCouncil))
}

// handleUpdateCouncil handles PATCH /api/v1/councils/{councilId}.
func (s *Server) handleUpdateCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req UpdateCouncilRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	updatedCouncil, err := s.councilManager.UpdateCouncil(
		r.Context(),
		r.PathValue("councilId"),
		council.CouncilUpdate{
			Name:             req.Name,
			Quorum:           req.Quorum,
			RequireUnanimous: req.RequireUnanimous,
			ApprovalPolicy:   req.ApprovalPolicy,
		},
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCouncilResponse(updatedCouncil))
}

// handleArchiveCouncil handles POST /api/v1/councils/{councilId}/archive.
func (s *Server) handleArchiveCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	archivedCouncil, err := s.councilManager.ArchiveCouncil(
		r.Context(),
		r.PathValue("councilId"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCouncilResponse(archivedCouncil))
}

// handleAddMember handles POST /api/v1/councils/{councilId}/members.
// Adding an existing revoked member reactivates their membership.
func (s *Server) handleAddMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AddMemberRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	membership, err := s.councilManager.AddMember(
		r.Context(),
		r.PathValue("councilId"),
		req.UserID,
		req.Role,
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMembershipResponse(membership))
}

// handleListMembers handles GET /api/v1/councils/{councilId}/members with
// an optional status filter.
func (s *Server) handleListMembers(
	w http.ResponseWriter,
	r *http.Request,
) {
	memberships, err := s.councilManager.Members(
		r.Context(),
		r.PathValue("councilId"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	resp := make([]MembershipResponse, 0, len(memberships))
	for i := range memberships {
		resp = append(resp, newMembershipResponse(&memberships[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRevokeMember handles DELETE
// /api/v1/councils/{councilId}/members/{userId}.
func (s *Server) handleRevokeMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	membership, err := s.councilManager.RevokeMember(
		r.Context(),
		r.PathValue("councilId"),
		r.PathValue("userId"),
	)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMembershipResponse(membership))
}
