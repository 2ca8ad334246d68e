package cmd

import "testing"

// TestRepairConfigRequestDisableWinsOverThreshold covers P9, mirroring
// original_source/src/command/set_repair_config.rs's
// get_repair_config_from_matches_work_correctly_disable: disabling idleness
// always wins over an accompanying threshold, regardless of which field a
// client population order would suggest came "later".
func TestRepairConfigRequestDisableWinsOverThreshold(t *testing.T) {
	disabled := true
	threshold := 10.0
	req := repairConfigRequest{
		RepairIdlenessDisabled:  &disabled,
		RepairIdlenessThreshold: &threshold,
	}

	cfg, err := req.toRepairConfig()
	if err != nil {
		t.Fatalf("toRepairConfig: %v", err)
	}
	if cfg.RepairIdlenessThreshold == nil || !cfg.RepairIdlenessThreshold.Disabled() {
		t.Fatalf("want Disabled to win, got %+v", cfg.RepairIdlenessThreshold)
	}
}

func TestRepairConfigRequestThresholdOnly(t *testing.T) {
	threshold := 4.0
	req := repairConfigRequest{RepairIdlenessThreshold: &threshold}

	cfg, err := req.toRepairConfig()
	if err != nil {
		t.Fatalf("toRepairConfig: %v", err)
	}
	if cfg.RepairIdlenessThreshold == nil || cfg.RepairIdlenessThreshold.Disabled() {
		t.Fatalf("want a Threshold variant, got %+v", cfg.RepairIdlenessThreshold)
	}
	if got := cfg.RepairIdlenessThreshold.Duration.Seconds(); got != 4.0 {
		t.Fatalf("want 4s, got %v", got)
	}
}

// TestRepairConfigRequestRejectsNegativeThreshold is the resolved open
// question: a negative threshold is rejected at the RPC boundary rather than
// silently clamped or forwarded.
func TestRepairConfigRequestRejectsNegativeThreshold(t *testing.T) {
	threshold := -1.0
	req := repairConfigRequest{RepairIdlenessThreshold: &threshold}

	if _, err := req.toRepairConfig(); err != errInvalidRepairConfig {
		t.Fatalf("want errInvalidRepairConfig, got %v", err)
	}
}

func TestRepairConfigRequestLeavesUnsetFieldsUnchanged(t *testing.T) {
	cfg, err := repairConfigRequest{}.toRepairConfig()
	if err != nil {
		t.Fatalf("toRepairConfig: %v", err)
	}
	if cfg.RepairConcurrencyLimit != nil || cfg.RepairIdlenessThreshold != nil || cfg.SegmentGCConcurrencyLimit != nil {
		t.Fatalf("an empty request must leave every knob nil, got %+v", cfg)
	}
}
