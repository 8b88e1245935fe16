package stamper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveState(t *testing.T) {
	tests := []struct {
		name        string
		live        int32
		forced      bool
		graceful    bool
		forcedExits int
		want        State
	}{
		{name: "running", live: 3, want: StateRunning},
		{name: "graceful requested", live: 3, graceful: true, want: StateGracefulShutdownRequested},
		{name: "forced requested", live: 2, forced: true, want: StateForcedShutdownRequested},
		{name: "forced after graceful", live: 1, forced: true, graceful: true, forcedExits: 1, want: StateForcedShutdownRequested},
		{name: "drained", live: 0, graceful: true, want: StateDrained},
		{name: "drained before a late forced request", live: 0, forced: true, graceful: true, want: StateDrained},
		{name: "terminated", live: 0, forced: true, forcedExits: 2, want: StateTerminated},
		{name: "terminated after graceful", live: 0, forced: true, graceful: true, forcedExits: 1, want: StateTerminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, resolveState(tt.live, tt.forced, tt.graceful, tt.forcedExits))
		})
	}
}

func TestState_StringAndTerminal(t *testing.T) {
	tests := []struct {
		state    State
		str      string
		terminal bool
	}{
		{StateRunning, "running", false},
		{StateGracefulShutdownRequested, "graceful_shutdown_requested", false},
		{StateForcedShutdownRequested, "forced_shutdown_requested", false},
		{StateDrained, "drained", true},
		{StateTerminated, "terminated", true},
		{State(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			require.Equal(t, tt.str, tt.state.String())
			require.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}
