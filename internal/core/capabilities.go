package core

// Recognized capability names. A member's capability set is a fixed mapping
// from each of these names to a boolean; names outside this list are rejected
// on write and read as false.
const (
	CapViewExpenses   = "viewExpenses"
	CapAddExpenses    = "addExpenses"
	CapEditExpenses   = "editExpenses"
	CapDeleteExpenses = "deleteExpenses"
	CapViewSavings    = "viewSavings"
	CapAddSavings     = "addSavings"
	CapEditSavings    = "editSavings"
	CapDeleteSavings  = "deleteSavings"
	CapViewBills      = "viewBills"
	CapViewDebts      = "viewDebts"
	CapViewAnalytics  = "viewAnalytics"
)

// Capabilities returns the recognized capability names in a stable order.
func Capabilities() []string {
	return []string{
		CapViewExpenses,
		CapAddExpenses,
		CapEditExpenses,
		CapDeleteExpenses,
		CapViewSavings,
		CapAddSavings,
		CapEditSavings,
		CapDeleteSavings,
		CapViewBills,
		CapViewDebts,
		CapViewAnalytics,
	}
}

// CapabilitySet maps capability names to grants for one member.
// A missing name reads as false, never as an error.
type CapabilitySet map[string]bool

// Granted reports whether the named capability is granted.
func (s CapabilitySet) Granted(name string) bool {
	return s[name]
}

// Validate rejects capability names outside the recognized list.
func (s CapabilitySet) Validate() error {
	for name := range s {
		if !recognizedCapability(name) {
			return ErrUnknownCapability
		}
	}
	return nil
}

// Normalized returns a copy with every recognized capability present,
// defaulting to false.
func (s CapabilitySet) Normalized() CapabilitySet {
	out := make(CapabilitySet, len(Capabilities()))
	for _, name := range Capabilities() {
		out[name] = s[name]
	}
	return out
}

// Merge returns a copy of s with the grants in patch applied on top.
// Names absent from patch keep their current value.
func (s CapabilitySet) Merge(patch CapabilitySet) CapabilitySet {
	out := s.Normalized()
	for name, granted := range patch {
		out[name] = granted
	}
	return out
}

// FullCapabilitySet grants every recognized capability. Used for the admin
// created at family registration.
func FullCapabilitySet() CapabilitySet {
	out := make(CapabilitySet, len(Capabilities()))
	for _, name := range Capabilities() {
		out[name] = true
	}
	return out
}

func recognizedCapability(name string) bool {
	for _, known := range Capabilities() {
		if name == known {
			return true
		}
	}
	return false
}
