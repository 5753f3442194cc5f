package model

import "testing"

func TestParseToolFamily(t *testing.T) {
	tests := []struct {
		in   string
		want ToolFamily
	}{
		{"end_mill", ToolEndMill},
		{"Flat End Mill", ToolEndMill},
		{"ballnose", ToolBallNose},
		{"corner-radius", ToolBullNose},
		{" DRILL ", ToolDrill},
		{"shell-mill", ToolFaceMill},
		{"v_bit", ToolChamfer},
		{"threadmill", ToolThreadMill},
	}
	for _, tt := range tests {
		got, err := ParseToolFamily(tt.in)
		if err != nil {
			t.Errorf("ParseToolFamily(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseToolFamily(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseToolFamily("laser"); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestToolSpecGeometry(t *testing.T) {
	tool := NewToolSpec("10mm Carbide End Mill", ToolEndMill, 10, 22, 72, 4)

	if tool.Radius() != 5 {
		t.Errorf("expected radius 5, got %.3f", tool.Radius())
	}
	if tool.HolderRadius() != 15 {
		t.Errorf("expected default holder radius 15, got %.3f", tool.HolderRadius())
	}
	tool.HolderDiameter = 40
	if tool.HolderRadius() != 20 {
		t.Errorf("expected holder radius 20, got %.3f", tool.HolderRadius())
	}
}

func TestToolSpecDescribe(t *testing.T) {
	tool := NewToolSpec("10mm Carbide End Mill", ToolEndMill, 10, 22, 72, 4)
	if got := tool.Describe(); got != "10mm Carbide End Mill D10.000 4FL" {
		t.Errorf("unexpected description %q", got)
	}

	unnamed := ToolSpec{Family: ToolDrill, Diameter: 8.5, FluteCount: 2}
	if got := unnamed.Describe(); got != "drill D8.500 2FL" {
		t.Errorf("unexpected description %q", got)
	}
}

func TestIsHoleMaking(t *testing.T) {
	if !ToolDrill.IsHoleMaking() || !ToolTap.IsHoleMaking() {
		t.Error("drills and taps should be hole-making")
	}
	if ToolEndMill.IsHoleMaking() {
		t.Error("end mills should not be hole-making")
	}
}
