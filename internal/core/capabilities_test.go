package core

import "testing"

func TestCapabilitySetValidate(t *testing.T) {
	if err := (CapabilitySet{CapViewExpenses: true, CapViewDebts: false}).Validate(); err != nil {
		t.Fatalf("known names should validate: %v", err)
	}
	if err := (CapabilitySet{"manageRouter": true}).Validate(); err == nil {
		t.Fatal("unknown name should be rejected")
	}
}

func TestCapabilitySetGranted(t *testing.T) {
	set := CapabilitySet{CapAddExpenses: true, CapViewBills: false}

	if !set.Granted(CapAddExpenses) {
		t.Error("explicit grant should read as true")
	}
	if set.Granted(CapViewBills) {
		t.Error("explicit false should read as false")
	}
	// A missing name reads as false, never as an error.
	if set.Granted(CapViewAnalytics) {
		t.Error("missing name should read as false")
	}
}

func TestCapabilitySetNormalized(t *testing.T) {
	set := CapabilitySet{CapViewExpenses: true}.Normalized()

	if len(set) != len(Capabilities()) {
		t.Fatalf("normalized set has %d names, want %d", len(set), len(Capabilities()))
	}
	if !set[CapViewExpenses] {
		t.Error("existing grant lost in normalization")
	}
	if set[CapDeleteExpenses] {
		t.Error("absent name should normalize to false")
	}
}

func TestCapabilitySetMerge(t *testing.T) {
	base := CapabilitySet{CapViewExpenses: true, CapAddExpenses: true}
	merged := base.Merge(CapabilitySet{CapAddExpenses: false, CapViewDebts: true})

	if !merged[CapViewExpenses] {
		t.Error("untouched grant should survive merge")
	}
	if merged[CapAddExpenses] {
		t.Error("patched revocation should apply")
	}
	if !merged[CapViewDebts] {
		t.Error("patched grant should apply")
	}
	if base[CapViewDebts] {
		t.Error("merge must not mutate the receiver")
	}
}

func TestFullCapabilitySet(t *testing.T) {
	full := FullCapabilitySet()
	for _, name := range Capabilities() {
		if !full[name] {
			t.Errorf("full set missing %s", name)
		}
	}
}
