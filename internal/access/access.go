// Package access implements the per-member capability model and the decision
// procedure that gates every record operation.
//
// The model is two-tier: the admin and parent roles bypass capability checks
// entirely, while the restricted child role is opt-in per capability. On top
// of the capability gate, edits and deletes of expenses and savings are
// additionally owner-gated for restricted actors.
package access

import "hearth/internal/core"

// Action names every operation the decision procedure gates. The string
// value is the verb phrase used in deny reasons.
type Action string

const (
	ActionViewExpenses   Action = "view expenses"
	ActionAddExpenses    Action = "add expenses"
	ActionEditExpense    Action = "edit this expense"
	ActionDeleteExpense  Action = "delete this expense"
	ActionViewSavings    Action = "view savings"
	ActionAddSavings     Action = "add savings"
	ActionEditSaving     Action = "edit this saving"
	ActionDeleteSaving   Action = "delete this saving"
	ActionViewBills      Action = "view bills"
	ActionAddBill        Action = "add bills"
	ActionPayBill        Action = "mark bills paid"
	ActionDeleteBill     Action = "delete bills"
	ActionViewDebts      Action = "view debts"
	ActionAddDebt        Action = "add debts"
	ActionRepayDebt      Action = "record debt repayments"
	ActionMarkDebtRepaid Action = "mark debts repaid"
	ActionDeleteDebt     Action = "delete debts"
	ActionViewAnalytics  Action = "access analytics"
	ActionListMembers    Action = "list members"
	ActionAddMember      Action = "add members"
	ActionEditMember     Action = "edit members"
	ActionEditCaps       Action = "edit member permissions"
	ActionDeleteMember   Action = "remove members"
)

// requiredCapability maps each capability-gated action to the capability a
// restricted actor must hold. Actions absent from this map are either open
// to every family member or admin-only.
var requiredCapability = map[Action]string{
	ActionViewExpenses:   core.CapViewExpenses,
	ActionAddExpenses:    core.CapAddExpenses,
	ActionEditExpense:    core.CapEditExpenses,
	ActionDeleteExpense:  core.CapDeleteExpenses,
	ActionViewSavings:    core.CapViewSavings,
	ActionAddSavings:     core.CapAddSavings,
	ActionEditSaving:     core.CapEditSavings,
	ActionDeleteSaving:   core.CapDeleteSavings,
	ActionViewBills:      core.CapViewBills,
	ActionAddBill:        core.CapViewBills,
	ActionPayBill:        core.CapViewBills,
	ActionDeleteBill:     core.CapViewBills,
	ActionViewDebts:      core.CapViewDebts,
	ActionAddDebt:        core.CapViewDebts,
	ActionRepayDebt:      core.CapViewDebts,
	ActionMarkDebtRepaid: core.CapViewDebts,
	ActionDeleteDebt:     core.CapViewDebts,
	ActionViewAnalytics:  core.CapViewAnalytics,
}

// ownerGated marks the mutations that, for restricted actors, also require
// ownership of the target record. A capability grant on bills, debts or
// member records is family-wide; expenses and savings are personal.
var ownerGated = map[Action]bool{
	ActionEditExpense:   true,
	ActionDeleteExpense: true,
	ActionEditSaving:    true,
	ActionDeleteSaving:  true,
}

// adminOnly marks family-membership management, which requires the admin
// role exactly; the full-access parent role cannot manage members.
var adminOnly = map[Action]bool{
	ActionAddMember:    true,
	ActionEditMember:   true,
	ActionEditCaps:     true,
	ActionDeleteMember: true,
}

// Decision is the tagged allow/deny outcome of an authorization check. A
// deny always carries a reason so every call site can surface it uniformly.
type Decision struct {
	allowed bool
	reason  string
}

func Allow() Decision             { return Decision{allowed: true} }
func Deny(reason string) Decision { return Decision{reason: reason} }

func (d Decision) Allowed() bool  { return d.allowed }
func (d Decision) Reason() string { return d.reason }

// HasFullAccess reports whether the actor's role bypasses capability checks.
func HasFullAccess(actor core.Actor) bool {
	return actor.Role.FullAccess()
}

// Capability returns the actor's effective grant for the named capability:
// always true for full-access actors, the stored flag otherwise. A missing
// flag reads as false, never as an error.
func Capability(actor core.Actor, name string) bool {
	if HasFullAccess(actor) {
		return true
	}
	return actor.Capabilities.Granted(name)
}

// Authorize decides whether the actor may perform the action. ownerID is the
// owning member of the target record for owner-gated mutations; pass the
// empty string for actions without a record target.
//
// Rules, first match wins: member management requires the admin role
// exactly; full access allows everything else; restricted actors need the
// mapped capability; on expense and saving mutations they additionally must
// own the record. Ownership never substitutes for the capability.
func Authorize(actor core.Actor, action Action, ownerID string) Decision {
	if adminOnly[action] {
		if actor.Role == core.RoleAdmin {
			return Allow()
		}
		return Deny("admin role required to " + string(action))
	}
	if HasFullAccess(actor) {
		return Allow()
	}
	name, gated := requiredCapability[action]
	if !gated {
		return Allow()
	}
	if !actor.Capabilities.Granted(name) {
		return Deny("no permission to " + string(action))
	}
	if ownerGated[action] && ownerID != actor.ID {
		return Deny("no permission to " + string(action))
	}
	return Allow()
}

// Scope is the result shaping of a list query: the whole family's records
// or only the actor's own.
type Scope int

const (
	ScopeFamily Scope = iota
	ScopeOwn
)

// ListScope resolves the three-way view rule for expense and saving lists.
// Full-access actors and restricted actors holding the view capability see
// the whole family; a restricted actor without it still succeeds but sees
// only records they own.
func ListScope(actor core.Actor, viewCapability string) Scope {
	if Capability(actor, viewCapability) {
		return ScopeFamily
	}
	return ScopeOwn
}
