package hashengine

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetDebugFlags(t *testing.T) {
	tests := []struct {
		name              string
		input             string
		expectedWalk      bool
		expectedWorker    bool
		expectedQueue     bool
		expectedLifecycle bool
	}{
		{
			name:  "empty string",
			input: "",
		},
		{
			name:         "single option",
			input:        "walk",
			expectedWalk: true,
		},
		{
			name:              "multiple options",
			input:             "walk,worker,queue,lifecycle",
			expectedWalk:      true,
			expectedWorker:    true,
			expectedQueue:     true,
			expectedLifecycle: true,
		},
		{
			name:           "options with values",
			input:          "walk:true,worker:false,queue:1,lifecycle:0",
			expectedWalk:   true,
			expectedQueue:  true,
			expectedWorker: false,
		},
		{
			name:           "whitespace handling",
			input:          " walk , worker , queue ",
			expectedWalk:   true,
			expectedWorker: true,
			expectedQueue:  true,
		},
		{
			name:              "case insensitive",
			input:             "Walk,WORKER,LifeCycle",
			expectedWalk:      true,
			expectedWorker:    true,
			expectedLifecycle: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetDebugFlags(tt.input)
			defer SetDebugFlags("")

			checks := []struct {
				flag string
				want bool
			}{
				{DebugWalk, tt.expectedWalk},
				{DebugWorker, tt.expectedWorker},
				{DebugQueue, tt.expectedQueue},
				{DebugLifecycle, tt.expectedLifecycle},
			}
			for _, c := range checks {
				if got := IsDebugEnabled(c.flag); got != c.want {
					t.Errorf("%s: expected %v, got %v", c.flag, c.want, got)
				}
			}
		})
	}
}

func TestDebugFlagValueParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"boundary:true", true},
		{"boundary:TRUE", true},
		{"boundary:1", true},
		{"boundary:yes", true},
		{"boundary:on", true},
		{"boundary:false", false},
		{"boundary:0", false},
		{"boundary:no", false},
		{"boundary:off", false},
		{"boundary:unknown", true}, // Default to true for unknown values
		{"boundary", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetDebugFlags(tt.input)
			defer SetDebugFlags("")
			if result := IsDebugEnabled(DebugBoundary); result != tt.expected {
				t.Errorf("SetDebugFlags(%q) then IsDebugEnabled(boundary) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestVerboseOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)
	defer SetVerboseLevel(GetVerboseLevel())

	SetVerboseLevel(1)
	VerboseLog(1, "shown %d", 1)
	VerboseLog(2, "hidden")
	logWarn("careful")

	SetDebugFlags(DebugQueue)
	defer SetDebugFlags("")
	debugLog(DebugQueue, "queued %s", "x")
	debugLog(DebugWalk, "not enabled")

	out := buf.String()
	for _, want := range []string{"[VERBOSE-1] shown 1\n", "[WARN] careful\n", "queued x\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"hidden", "not enabled"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output should not contain %q, got:\n%s", unwanted, out)
		}
	}
}
