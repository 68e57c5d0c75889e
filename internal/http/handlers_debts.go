package http

import (
	"net/http"
	"time"

	"hearth/internal/access"
	"hearth/internal/core"
	"hearth/internal/events"
)

type debtRequest struct {
	From    string     `json:"from"`
	To      string     `json:"to"`
	Amount  core.Money `json:"amount"`
	Purpose string     `json:"purpose"`
	DueDate string     `json:"dueDate"`
}

type repayRequest struct {
	Amount core.Money `json:"amount"`
	Note   string     `json:"note"`
	Date   string     `json:"date"`
}

// debtView is a debt with its netted balance folded in, so clients never
// recompute the ledger themselves.
type debtView struct {
	core.Debt
	Paid      core.Money `json:"paid"`
	Remaining core.Money `json:"remaining"`
}

func viewOf(d core.Debt) debtView {
	balance := core.NetDebt(d)
	return debtView{Debt: d, Paid: balance.Paid, Remaining: balance.Remaining}
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionViewDebts, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	debts, err := s.store.DebtsByFamily(r.Context(), actor.FamilyID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	views := make([]debtView, 0, len(debts))
	for _, d := range debts {
		views = append(views, viewOf(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionAddDebt, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	debt := &core.Debt{
		FamilyID:  actor.FamilyID,
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Purpose:   req.Purpose,
		Ledger:    []core.Repayment{},
		CreatedBy: actor.ID,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dueDate, expected YYYY-MM-DD")
			return
		}
		debt.DueDate = &due
	}
	if err := debt.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateDebt(r.Context(), debt); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindDebt, events.OpCreated, debt.ID)
	writeJSON(w, http.StatusCreated, viewOf(*debt))
}

// handleRepayDebt appends one ledger entry. The ledger is append-only: there
// is no endpoint to edit or remove an entry, and overpayment is accepted.
func (s *Server) handleRepayDebt(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionRepayDebt, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req repayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry := core.Repayment{
		Amount: req.Amount,
		Note:   req.Note,
		Date:   time.Now().UTC(),
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		entry.Date = date
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	debt, err := s.store.AppendRepayment(r.Context(), actor.FamilyID, r.PathValue("id"), entry)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindDebt, events.OpRepaid, debt.ID)
	writeJSON(w, http.StatusOK, viewOf(*debt))
}

// handleMarkDebtRepaid flips the manual repaid flag. The flag is cosmetic:
// the pending-debt aggregate only ever reads the ledger.
func (s *Server) handleMarkDebtRepaid(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionMarkDebtRepaid, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	debt, err := s.store.MarkDebtRepaid(r.Context(), actor.FamilyID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindDebt, events.OpRepaid, debt.ID)
	writeJSON(w, http.StatusOK, viewOf(*debt))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionDeleteDebt, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteDebt(r.Context(), actor.FamilyID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindDebt, events.OpDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
