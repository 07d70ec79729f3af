package models

import "testing"

func TestOnsetHour(t *testing.T) {
	tests := []struct {
		name     string
		time     string
		wantHour int
		wantOK   bool
	}{
		{"morning", "08:30", 8, true},
		{"midnight", "00:15", 0, true},
		{"late evening", "23:59", 23, true},
		{"hour only", "14", 14, true},
		{"empty", "", 0, false},
		{"garbage", "noon", 0, false},
		{"out of range", "25:00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := LogEntry{Time: tt.time}
			h, ok := e.OnsetHour()
			if h != tt.wantHour || ok != tt.wantOK {
				t.Errorf("OnsetHour() = (%d, %v), want (%d, %v)", h, ok, tt.wantHour, tt.wantOK)
			}
		})
	}
}

func TestParseSleep(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"Poor", 1},
		{"fair", 2},
		{" Good ", 3},
		{"2.5", 2.5},
		{"unknown", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseSleep(tt.in); got != tt.want {
			t.Errorf("ParseSleep(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseActivity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"Low", 1},
		{"moderate", 2},
		{"Heavy", 3},
		{"1.5", 1.5},
		{"none of the above", 0},
	}

	for _, tt := range tests {
		if got := ParseActivity(tt.in); got != tt.want {
			t.Errorf("ParseActivity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	t.Run("statistical", func(t *testing.T) {
		tests := []struct {
			p    float64
			want RiskLevel
		}{
			{0.0, RiskLow},
			{0.2, RiskLow},
			{0.21, RiskModerate},
			{0.6, RiskModerate},
			{0.61, RiskHigh},
			{1.0, RiskHigh},
		}
		for _, tt := range tests {
			if got := StatisticalRiskLevel(tt.p); got != tt.want {
				t.Errorf("StatisticalRiskLevel(%v) = %v, want %v", tt.p, got, tt.want)
			}
		}
	})

	t.Run("heuristic", func(t *testing.T) {
		tests := []struct {
			p    float64
			want RiskLevel
		}{
			{0.0, RiskLow},
			{0.29, RiskLow},
			{0.3, RiskModerate},
			{0.69, RiskModerate},
			{0.7, RiskHigh},
		}
		for _, tt := range tests {
			if got := HeuristicRiskLevel(tt.p); got != tt.want {
				t.Errorf("HeuristicRiskLevel(%v) = %v, want %v", tt.p, got, tt.want)
			}
		}
	})

	t.Run("hourly", func(t *testing.T) {
		tests := []struct {
			score float64
			want  RiskLevel
		}{
			{0, RiskLow},
			{29.9, RiskLow},
			{30, RiskModerate},
			{59.9, RiskModerate},
			{60, RiskHigh},
			{99, RiskHigh},
		}
		for _, tt := range tests {
			if got := HourlyRiskLevel(tt.score); got != tt.want {
				t.Errorf("HourlyRiskLevel(%v) = %v, want %v", tt.score, got, tt.want)
			}
		}
	})
}

func TestRoundingAndClamping(t *testing.T) {
	if got := Round1(33.36); got != 33.4 {
		t.Errorf("Round1(33.36) = %v, want 33.4", got)
	}
	if got := Round1(33.34); got != 33.3 {
		t.Errorf("Round1(33.34) = %v, want 33.3", got)
	}
	if got := Round2(0.125); got != 0.13 {
		t.Errorf("Round2(0.125) = %v, want 0.13", got)
	}
	if got := ClampPain(12.3); got != 10 {
		t.Errorf("ClampPain(12.3) = %v, want 10", got)
	}
	if got := ClampPain(-1); got != 0 {
		t.Errorf("ClampPain(-1) = %v, want 0", got)
	}
	if got := Clamp01(1.4); got != 1 {
		t.Errorf("Clamp01(1.4) = %v, want 1", got)
	}
}
