package http

import (
	"errors"
	"net/http"

	"hearth/internal/access"
	"hearth/internal/auth"
	"hearth/internal/core"
	"hearth/internal/events"
	applog "hearth/internal/log"
)

type memberRequest struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	Role        core.Role          `json:"role"`
	Permissions core.CapabilitySet `json:"permissions"`
}

type permissionsRequest struct {
	Permissions core.CapabilitySet `json:"permissions"`
}

// handleListMembers is open to every family member; the roster is not a
// capability-gated surface.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	members, err := s.store.MembersByFamily(r.Context(), actor.FamilyID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	member, err := s.store.GetMember(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionAddMember, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = core.RoleChild
	}

	member, err := s.auth.CreateMember(r.Context(), actor.FamilyID, req.Name, req.Email, req.Password, req.Role, req.Permissions)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}

	s.log.InfoContext(r.Context(), "member created", applog.FieldMemberID, member.ID, applog.FieldFamilyID, actor.FamilyID, "role", member.Role)
	s.publish(r, events.KindMember, events.OpCreated, member.ID)
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionEditMember, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := s.auth.UpdateMember(r.Context(), actor.FamilyID, r.PathValue("id"), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}

	s.publish(r, events.KindMember, events.OpUpdated, member.ID)
	writeJSON(w, http.StatusOK, member)
}

// handleUpdatePermissions merges the request's grants over the member's
// stored capability set: names absent from the request keep their current
// value, so granting one capability never revokes another. The patch is
// validated against the known capability names before it is applied.
func (s *Server) handleUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionEditCaps, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req permissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Permissions.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	member, err := s.store.GetMember(r.Context(), actor.FamilyID, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	merged := member.Capabilities.Merge(req.Permissions)
	if err := s.store.UpdateCapabilities(r.Context(), actor.FamilyID, id, merged); err != nil {
		writeStoreError(w, r, err)
		return
	}
	member.Capabilities = merged

	s.log.InfoContext(r.Context(), "permissions updated", applog.FieldMemberID, id, applog.FieldFamilyID, actor.FamilyID)
	s.publish(r, events.KindMember, events.OpUpdated, id)
	writeJSON(w, http.StatusOK, member)
}

// handleDeleteMember removes a member. Their expenses and savings survive as
// orphaned records: they stay in family totals but drop out of per-member
// breakdowns.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionDeleteMember, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	id := r.PathValue("id")
	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "cannot remove your own account")
		return
	}

	if err := s.store.DeleteUser(r.Context(), actor.FamilyID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindMember, events.OpDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeMemberError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyEmail),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrUnknownCapability):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeStoreError(w, r, err)
	}
}

// publish emits a change event; a nil publisher drops it.
func (s *Server) publish(r *http.Request, kind, op, recordID string) {
	actor := actorFrom(r.Context())
	s.events.Publish(r.Context(), events.New(kind, op, recordID, actor.FamilyID))
}
