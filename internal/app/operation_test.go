package app

import (
	"testing"
	"time"

	"yd-go/internal/testutil"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    string
	}{
		{name: "with args", command: "export", args: "id-1"},
		{name: "empty args", command: "list", args: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.command, tt.args, testutil.FixedClock())

			if op.Command != tt.command {
				t.Errorf("Command = %q, want %q", op.Command, tt.command)
			}
			if op.Args != tt.args {
				t.Errorf("Args = %q, want %q", op.Args, tt.args)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.ID != "20240115T103000.000Z" {
				t.Errorf("ID = %q", op.ID)
			}
		})
	}
}

func TestOperation_FailAndElapsed(t *testing.T) {
	clock := testutil.FixedClock()
	op := NewOperation("edit", "", clock)

	clock.Advance(3 * time.Second)
	if got := op.Elapsed(clock); got != 3*time.Second {
		t.Errorf("Elapsed() = %v, want 3s", got)
	}

	op.Fail()
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
}
