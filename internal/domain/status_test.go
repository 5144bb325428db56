package domain

import "testing"

func TestParseWorkOrderStatus(t *testing.T) {
	for _, s := range WorkOrderStatuses() {
		got, ok := ParseWorkOrderStatus(string(s))
		if !ok || got != s {
			t.Errorf("ParseWorkOrderStatus(%q) = %q, %v", s, got, ok)
		}
	}

	for _, bad := range []string{"", "done", "Completed", "new"} {
		if got, ok := ParseWorkOrderStatus(bad); ok {
			t.Errorf("ParseWorkOrderStatus(%q) = %q, want rejection", bad, got)
		}
	}
}

func TestWorkOrderStatus_Label(t *testing.T) {
	if got := WorkOrderStatusInProgress.Label(); got != "В работе" {
		t.Errorf("label = %q", got)
	}
	if got := WorkOrderStatus("unknown").Label(); got != "unknown" {
		t.Errorf("unknown label = %q", got)
	}
}
