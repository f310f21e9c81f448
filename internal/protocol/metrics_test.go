package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelope_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		env   Envelope
		check func(t *testing.T, data map[string]any)
	}{
		{
			name: "BIOS metric",
			env: Envelope{
				Type:      "bios",
				Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
				Hostname:  "test-host",
				Data: BIOSMetric{
					SMBIOSPresent:   true,
					Manufacturer:    "Acme",
					Characteristics: []uint16{4, 7, 33},
				},
			},
			check: func(t *testing.T, data map[string]any) {
				if data["type"] != "bios" {
					t.Errorf("type: got %v, want bios", data["type"])
				}
				if data["hostname"] != "test-host" {
					t.Errorf("hostname: got %v, want test-host", data["hostname"])
				}
				d, ok := data["data"].(map[string]any)
				if !ok {
					t.Fatal("data field not a map")
				}
				if d["manufacturer"] != "Acme" {
					t.Errorf("manufacturer: got %v, want Acme", d["manufacturer"])
				}
				if chars := d["characteristics"].([]any); len(chars) != 3 {
					t.Errorf("expected 3 characteristics, got %d", len(chars))
				}
				if _, ok := d["install_date"]; ok {
					t.Error("install_date should be omitted when nil")
				}
			},
		},
		{
			name: "Computer system metric",
			env: Envelope{
				Type:      "computer_system",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data: ComputerSystemMetric{
					Model:             "Widget",
					BootOptionOnLimit: BootOptionDoNotReboot,
					ResetLimit:        0xFFFF,
				},
			},
			check: func(t *testing.T, data map[string]any) {
				d := data["data"].(map[string]any)
				if d["model"] != "Widget" {
					t.Errorf("model: got %v, want Widget", d["model"])
				}
				if d["boot_option_on_limit"] != float64(BootOptionDoNotReboot) {
					t.Errorf("boot_option_on_limit: got %v, want 4", d["boot_option_on_limit"])
				}
				if d["reset_limit"] != float64(0xFFFF) {
					t.Errorf("reset_limit: got %v, want 65535", d["reset_limit"])
				}
			},
		},
		{
			name: "Processor list metric",
			env: Envelope{
				Type:      "processor_list",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data: ProcessorListMetric{
					Processors: []ProcessorMetric{
						{SocketDesignation: "CPU0", CoreCount: 8},
						{SocketDesignation: "CPU1", CoreCount: 8},
					},
				},
			},
			check: func(t *testing.T, data map[string]any) {
				d := data["data"].(map[string]any)
				procs := d["processors"].([]any)
				if len(procs) != 2 {
					t.Errorf("expected 2 processors, got %d", len(procs))
				}
			},
		},
		{
			name: "Nil data",
			env: Envelope{
				Type:      "unknown",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data:      nil,
			},
			check: func(t *testing.T, data map[string]any) {
				if data["data"] != nil {
					t.Errorf("data should be nil, got %v", data["data"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("marshal error: %v", err)
			}

			var data map[string]any
			if err := json.Unmarshal(b, &data); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}

			tt.check(t, data)
		})
	}
}

func TestMetricType(t *testing.T) {
	tests := []struct {
		metric   Metric
		expected string
	}{
		{EntryPointMetric{}, "smbios_entry_point"},
		{BIOSMetric{}, "bios"},
		{ComputerSystemMetric{}, "computer_system"},
		{ProcessorListMetric{}, "processor_list"},
		{HostInfo{}, "host_info"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.metric.MetricType(); got != tt.expected {
				t.Errorf("MetricType() = %s, want %s", got, tt.expected)
			}
		})
	}
}

// Processors are only ever sent together as a processor_list.
func TestProcessorIsNotAMetric(t *testing.T) {
	var v any = ProcessorMetric{}
	if _, ok := v.(Metric); ok {
		t.Error("ProcessorMetric must not be sent on its own")
	}
}

func TestBootOptionString(t *testing.T) {
	tests := map[BootOption]string{
		BootOptionUnknown:         "Unknown",
		BootOptionReserved:        "Reserved",
		BootOptionOperatingSystem: "Operating System",
		BootOptionSystemUtilities: "System Utilities",
		BootOptionDoNotReboot:     "Do Not Reboot",
		BootOption(9):             "Unknown",
	}

	for b, want := range tests {
		if got := b.String(); got != want {
			t.Errorf("BootOption(%d).String() = %q, want %q", b, got, want)
		}
	}
}
