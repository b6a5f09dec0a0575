package usage

import (
	"encoding/json"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/usage/classify"
)

var reportNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestWindow_ResetTime(t *testing.T) {
	tests := []struct {
		name     string
		resetsAt string
		wantZero bool
	}{
		{"rfc3339", "2025-06-10T14:30:00Z", false},
		{"rfc3339 with offset", "2025-06-10T16:30:00+02:00", false},
		{"empty means no session", "", true},
		{"garbage", "not-a-timestamp", true},
		{"date only", "2025-06-10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window{ResetsAt: tt.resetsAt}.ResetTime()
			if got.IsZero() != tt.wantZero {
				t.Errorf("ResetTime(%q) zero=%v, want %v", tt.resetsAt, got.IsZero(), tt.wantZero)
			}
		})
	}
}

func TestSnapshot_DecodeUpstreamPayload(t *testing.T) {
	payload := `{
		"five_hour": {"utilization": 42.5, "resets_at": "2025-06-10T14:30:00Z"},
		"seven_day": {"utilization": 61.0, "resets_at": "2025-06-14T00:00:00Z"},
		"extra_usage": {"is_enabled": true, "monthly_limit": 5000, "used_credits": 1250, "utilization": 25}
	}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.FiveHour.Utilization != 42.5 {
		t.Errorf("Expected five_hour utilization 42.5, got %v", snap.FiveHour.Utilization)
	}
	if snap.SevenDay.ResetsAt != "2025-06-14T00:00:00Z" {
		t.Errorf("Unexpected seven_day resets_at: %q", snap.SevenDay.ResetsAt)
	}
	if !snap.ExtraUsage.IsEnabled || snap.ExtraUsage.UsedCredits != 1250 {
		t.Errorf("Unexpected extra_usage: %+v", snap.ExtraUsage)
	}
}

func TestBuildReport_ClassifiesWindows(t *testing.T) {
	snap := Snapshot{
		// Half the quota at half the window: exactly on pace.
		FiveHour: Window{
			Utilization: 50,
			ResetsAt:    reportNow.Add(150 * time.Minute).Format(time.RFC3339),
		},
		// Exhausted weekly quota.
		SevenDay: Window{
			Utilization: 100,
			ResetsAt:    reportNow.Add(3 * 24 * time.Hour).Format(time.RFC3339),
		},
		ExtraUsage: Extra{IsEnabled: true, MonthlyLimit: 10000, UsedCredits: 8500},
	}

	report := BuildReport(snap, reportNow, reportNow, time.Minute)

	if report.FiveHour.Status != classify.StatusGreen {
		t.Errorf("Expected five_hour green, got %s", report.FiveHour.Status)
	}
	if report.FiveHour.BurnRate != 1.0 {
		t.Errorf("Expected five_hour burn rate 1.0, got %.4f", report.FiveHour.BurnRate)
	}
	if report.SevenDay.Status != classify.StatusRed {
		t.Errorf("Expected seven_day red, got %s", report.SevenDay.Status)
	}
	if report.ExtraUsage.Status != classify.StatusRed {
		t.Errorf("Expected extra_usage red, got %s", report.ExtraUsage.Status)
	}
	if report.ExtraUsage.PercentUsed != 85 {
		t.Errorf("Expected 85%% of credits used, got %.2f", report.ExtraUsage.PercentUsed)
	}
	if report.Stale {
		t.Error("Fresh snapshot must not be stale")
	}
}

func TestBuildReport_MissingWindowsAreGray(t *testing.T) {
	report := BuildReport(Snapshot{}, reportNow, reportNow, 0)

	if report.FiveHour.Status != classify.StatusGray {
		t.Errorf("Expected gray five_hour, got %s", report.FiveHour.Status)
	}
	if report.SevenDay.Status != classify.StatusGray {
		t.Errorf("Expected gray seven_day, got %s", report.SevenDay.Status)
	}
	if report.ExtraUsage.Status != classify.StatusGray {
		t.Errorf("Expected gray extra_usage, got %s", report.ExtraUsage.Status)
	}
}

func TestBuildReport_Staleness(t *testing.T) {
	fetchedAt := reportNow.Add(-3 * time.Minute)

	report := BuildReport(Snapshot{}, fetchedAt, reportNow, time.Minute)
	if !report.Stale {
		t.Error("Expected snapshot beyond the horizon to be stale")
	}

	report = BuildReport(Snapshot{}, fetchedAt, reportNow, 10*time.Minute)
	if report.Stale {
		t.Error("Expected snapshot within the horizon to be fresh")
	}

	// A zero horizon disables the flag entirely.
	report = BuildReport(Snapshot{}, fetchedAt, reportNow, 0)
	if report.Stale {
		t.Error("Expected staleness flag to be disabled")
	}
}

func TestReport_StatusSerialization(t *testing.T) {
	report := BuildReport(Snapshot{
		FiveHour: Window{
			Utilization: 80,
			ResetsAt:    reportNow.Add(3 * time.Hour).Format(time.RFC3339),
		},
	}, reportNow, reportNow, 0)

	b, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	fiveHour, ok := decoded["five_hour"].(map[string]any)
	if !ok {
		t.Fatal("Expected five_hour object in report JSON")
	}
	if fiveHour["status"] != "red" {
		t.Errorf("Expected serialized status \"red\", got %v", fiveHour["status"])
	}
}
