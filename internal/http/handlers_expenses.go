package http

import (
	"net/http"

	"hearth/internal/access"
	"hearth/internal/core"
	"hearth/internal/events"
)

type expenseRequest struct {
	Amount   core.Money  `json:"amount"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	Date     string      `json:"date"`
	Items    []core.Item `json:"items"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	// Without the view capability the list still succeeds, narrowed to the
	// actor's own records.
	ownerID := ""
	if access.ListScope(actor, core.CapViewExpenses) == access.ScopeOwn {
		ownerID = actor.ID
	}

	expenses, err := s.store.ListExpenses(r.Context(), actor.FamilyID, ownerID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	expense, err := s.store.GetExpense(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	// Own records are always visible; anyone else's require the view grant.
	if expense.UserID != actor.ID && !access.Capability(actor, core.CapViewExpenses) {
		writeDenied(w, access.Deny("no permission to view expenses"))
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionAddExpenses, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	expense := &core.Expense{
		FamilyID: actor.FamilyID,
		UserID:   actor.ID,
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
		Date:     date,
		Items:    req.Items,
	}
	if err := expense.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindExpense, events.OpCreated, expense.ID)
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	expense, err := s.store.GetExpense(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d := access.Authorize(actor, access.ActionEditExpense, expense.UserID); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	expense.Amount = req.Amount
	expense.Category = req.Category
	expense.Note = req.Note
	expense.Date = date
	expense.Items = req.Items
	if err := expense.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindExpense, events.OpUpdated, expense.ID)
	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	expense, err := s.store.GetExpense(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if d := access.Authorize(actor, access.ActionDeleteExpense, expense.UserID); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	if err := s.store.DeleteExpense(r.Context(), actor.FamilyID, expense.ID); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindExpense, events.OpDeleted, expense.ID)
	w.WriteHeader(http.StatusNoContent)
}
