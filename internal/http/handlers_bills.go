package http

import (
	"net/http"
	"time"

	"hearth/internal/access"
	"hearth/internal/core"
	"hearth/internal/events"
)

type billRequest struct {
	Title    string      `json:"title"`
	Category string      `json:"category"`
	Amount   core.Money  `json:"amount"`
	Items    []core.Item `json:"items"`
	DueDate  string      `json:"dueDate"`
}

type payBillRequest struct {
	PaidOn string `json:"paidOn"`
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionViewBills, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	bills, err := s.store.BillsByFamily(r.Context(), actor.FamilyID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if bills == nil {
		bills = []core.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionAddBill, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dueDate, expected YYYY-MM-DD")
		return
	}

	bill := &core.Bill{
		FamilyID:  actor.FamilyID,
		Title:     req.Title,
		Category:  req.Category,
		Amount:    req.Amount,
		Items:     req.Items,
		DueDate:   due,
		CreatedBy: actor.ID,
	}
	if err := bill.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateBill(r.Context(), bill); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindBill, events.OpCreated, bill.ID)
	writeJSON(w, http.StatusCreated, bill)
}

// handlePayBill marks a bill paid. An omitted paidOn defaults to today;
// paying an already-paid bill just refreshes the payment date.
func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionPayBill, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	paidOn := time.Now().UTC()
	var req payBillRequest
	if err := decodeJSON(r, &req); err == nil && req.PaidOn != "" {
		parsed, err := parseDate(req.PaidOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid paidOn, expected YYYY-MM-DD")
			return
		}
		paidOn = parsed
	}

	bill, err := s.store.MarkBillPaid(r.Context(), actor.FamilyID, r.PathValue("id"), paidOn)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindBill, events.OpPaid, bill.ID)
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionDeleteBill, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteBill(r.Context(), actor.FamilyID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.publish(r, events.KindBill, events.OpDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
