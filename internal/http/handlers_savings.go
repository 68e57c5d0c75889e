package http

import (
	"net/http"

	"hearth/internal/access"
	"hearth/internal/core"
	"hearth/internal/events"
)

type savingRequest struct {
	Amount core.Money `json:"amount"`
	Note   string     `json:"note"`
	Date   string     `json:"date"`
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	ownerID := ""
	if access.ListScope(actor, core.CapViewSavings) == access.ScopeOwn {
		ownerID = actor.ID
	}

	savings, err := s.store.ListSavings(r.Context(), actor.FamilyID, ownerID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if savings == nil {
		savings = []core.Saving{}
	}
	writeJSON(w, http.StatusOK, savings)
}

func (s *Server) handleGetSaving(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	saving, err := s.store.GetSaving(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if saving.UserID != actor.ID && !access.Capability(actor, core.CapViewSavings) {
		writeDenied(w, access.Deny("no permission to view savings"))
		return
	}
	writeJSON(w, http.StatusOK, saving)
}

func (s *Server) handleCreateSaving(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionAddSavings, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req savingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	saving := &core.Saving{
		FamilyID: actor.FamilyID,
		UserID:   actor.ID,
		Amount:   req.Amount,
		Note:     req.Note,
		Date:     date,
	}
	if err := saving.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateSaving(r.Context(), saving); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindSaving, events.OpCreated, saving.ID)
	writeJSON(w, http.StatusCreated, saving)
}

func (s *Server) handleUpdateSaving(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	saving, err := s.store.GetSaving(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d := access.Authorize(actor, access.ActionEditSaving, saving.UserID); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req savingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	saving.Amount = req.Amount
	saving.Note = req.Note
	saving.Date = date
	if err := saving.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateSaving(r.Context(), saving); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindSaving, events.OpUpdated, saving.ID)
	writeJSON(w, http.StatusOK, saving)
}

func (s *Server) handleDeleteSaving(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	saving, err := s.store.GetSaving(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d := access.Authorize(actor, access.ActionDeleteSaving, saving.UserID); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	if err := s.store.DeleteSaving(r.Context(), actor.FamilyID, saving.ID); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindSaving, events.OpDeleted, saving.ID)
	w.WriteHeader(http.StatusNoContent)
}
