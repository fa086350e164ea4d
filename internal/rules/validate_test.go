package rules

import (
	"errors"
	"testing"

	"github.com/friendsincode/orderpacing/internal/models"
)

func i64(v int64) *int64 { return &v }
func f64(v float64) *float64 { return &v }

func baseRule() models.PacingRule {
	return models.PacingRule{
		RuleID:           "lunch",
		TimeFrameMinutes: 15,
		BusyTimeMinutes:  10,
		MaxOrders:        i64(5),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.PacingRule)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(r *models.PacingRule) {}},
		{name: "zero time frame", mutate: func(r *models.PacingRule) { r.TimeFrameMinutes = 0 }, field: "timeFrameMinutes", wantErr: true},
		{name: "negative busy time", mutate: func(r *models.PacingRule) { r.BusyTimeMinutes = -1 }, field: "busyTimeMinutes", wantErr: true},
		{name: "no thresholds", mutate: func(r *models.PacingRule) { r.MaxOrders = nil }, field: "", wantErr: true},
		{name: "zero max orders", mutate: func(r *models.PacingRule) { r.MaxOrders = i64(0) }, field: "maxOrders", wantErr: true},
		{name: "negative max items", mutate: func(r *models.PacingRule) { r.MaxItems = i64(-3) }, field: "maxItems", wantErr: true},
		{name: "zero max amount", mutate: func(r *models.PacingRule) { r.MaxAmountCents = f64(0) }, field: "maxAmountCents", wantErr: true},
		{name: "amount only", mutate: func(r *models.PacingRule) { r.MaxOrders = nil; r.MaxAmountCents = f64(5000) }},
		{name: "weekday out of range", mutate: func(r *models.PacingRule) { r.WeekDays = []int{1, 7} }, field: "weekDays", wantErr: true},
		{name: "empty category", mutate: func(r *models.PacingRule) { r.CategoryIDs = []string{"pizza", " "} }, field: "categoryIds", wantErr: true},
		{name: "malformed start", mutate: func(r *models.PacingRule) { r.StartTime = "9:00" }, field: "startTime", wantErr: true},
		{name: "malformed end", mutate: func(r *models.PacingRule) { r.EndTime = "25:00" }, field: "endTime", wantErr: true},
		{name: "start equals end", mutate: func(r *models.PacingRule) { r.StartTime = "11:00"; r.EndTime = "11:00" }, field: "startTime", wantErr: true},
		{name: "start after end", mutate: func(r *models.PacingRule) { r.StartTime = "14:00"; r.EndTime = "11:00:30" }, field: "startTime", wantErr: true},
		{name: "valid window with seconds", mutate: func(r *models.PacingRule) { r.StartTime = "11:00"; r.EndTime = "14:30:15" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := baseRule()
			tt.mutate(&rule)

			err := Validate(3, rule)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
			if cfgErr.Index != 3 || cfgErr.RuleID != "lunch" {
				t.Errorf("error does not identify rule: %+v", cfgErr)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "11:30", want: 11*3600 + 30*60},
		{in: "23:59:59", want: 86399},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:00:60", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "12:00:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewRuleSetDefaultsIDsAndRejectsInvalid(t *testing.T) {
	anonymous := baseRule()
	anonymous.RuleID = ""

	set, err := NewRuleSet([]models.PacingRule{baseRule(), anonymous})
	if err != nil {
		t.Fatalf("new rule set: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("len = %d, want 2", set.Len())
	}
	if got := set.Rules()[1].RuleID; got != "rule-1" {
		t.Errorf("defaulted rule id = %q, want rule-1", got)
	}

	bad := baseRule()
	bad.BusyTimeMinutes = 0
	if _, err := NewRuleSet([]models.PacingRule{baseRule(), bad}); err == nil {
		t.Fatal("expected invalid rule to abort construction")
	}
}
