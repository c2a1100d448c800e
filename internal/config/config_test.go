package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.ChatBaseURL != "https://slack.com/api" {
		t.Errorf("ChatBaseURL = %q, want default", cfg.ChatBaseURL)
	}
	if cfg.TextgenModel != "gpt-4o-mini" {
		t.Errorf("TextgenModel = %q, want %q", cfg.TextgenModel, "gpt-4o-mini")
	}
	if cfg.IntentConfidenceFloor != 0.7 {
		t.Errorf("IntentConfidenceFloor = %v, want 0.7", cfg.IntentConfidenceFloor)
	}
	if cfg.ExecutorBudget != "1s" {
		t.Errorf("ExecutorBudget = %q, want %q", cfg.ExecutorBudget, "1s")
	}
	if cfg.DefaultFocusMinutes != 25 {
		t.Errorf("DefaultFocusMinutes = %d, want 25", cfg.DefaultFocusMinutes)
	}
	if cfg.TelemetryKafkaTopic != "focusflow-telemetry" {
		t.Errorf("TelemetryKafkaTopic = %q, want default", cfg.TelemetryKafkaTopic)
	}
	if cfg.KafkaGroupID != "focusflow-telemetry-worker" {
		t.Errorf("KafkaGroupID = %q, want default", cfg.KafkaGroupID)
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("TEXTGEN_MODEL", "custom-model")
	os.Setenv("DEFAULT_FOCUS_MINUTES", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.TextgenModel != "custom-model" {
		t.Errorf("TextgenModel = %q, want %q", cfg.TextgenModel, "custom-model")
	}
	if cfg.DefaultFocusMinutes != 50 {
		t.Errorf("DefaultFocusMinutes = %d, want 50", cfg.DefaultFocusMinutes)
	}
}

func TestLoad_ConfidenceFloorRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  float64
		err   bool
	}{
		{"valid min", "0", 0, false},
		{"valid max", "1", 1, false},
		{"valid middle", "0.7", 0.7, false},
		{"too low", "-0.1", 0, true},
		{"too high", "1.1", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("HTTP_ADDR", ":8080")
			os.Setenv("INTENT_CONFIDENCE_FLOOR", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.IntentConfidenceFloor != tc.want {
				t.Errorf("IntentConfidenceFloor = %v, want %v", cfg.IntentConfidenceFloor, tc.want)
			}
		})
	}
}

func TestLoad_FocusMinutesRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "1", 1, false},
		{"valid max", "480", 480, false},
		{"valid middle", "25", 25, false},
		{"too high", "481", 0, true},
		{"negative", "-5", 0, true},
		{"zero", "0", 25, false}, // Should default to 25
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("HTTP_ADDR", ":8080")
			os.Setenv("DEFAULT_FOCUS_MINUTES", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.DefaultFocusMinutes != tc.want {
				t.Errorf("DefaultFocusMinutes = %d, want %d", cfg.DefaultFocusMinutes, tc.want)
			}
		})
	}
}

func TestExecutorBudgetDuration_ValidDuration(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("EXECUTOR_BUDGET", "750ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	budget := cfg.ExecutorBudgetDuration()
	if budget != 750*time.Millisecond {
		t.Errorf("ExecutorBudgetDuration = %v, want %v", budget, 750*time.Millisecond)
	}
}

func TestExecutorBudgetDuration_InvalidDuration(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("EXECUTOR_BUDGET", "invalid")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	budget := cfg.ExecutorBudgetDuration()
	if budget != time.Second {
		t.Errorf("ExecutorBudgetDuration = %v, want %v (default)", budget, time.Second)
	}
}

func TestExecutorBudgetDuration_NegativeDuration(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("EXECUTOR_BUDGET", "-1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	budget := cfg.ExecutorBudgetDuration()
	if budget != time.Second {
		t.Errorf("ExecutorBudgetDuration = %v, want %v (default)", budget, time.Second)
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple", "a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{"spaces and empties", " a:9092 , , b:9092 ", []string{"a:9092", "b:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("HTTP_ADDR", ":8080")
			if tc.value != "" {
				os.Setenv("KAFKA_BROKERS", tc.value)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			got := cfg.TelemetryKafkaBrokersList()
			if len(got) != len(tc.want) {
				t.Fatalf("brokers = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("brokers[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}
