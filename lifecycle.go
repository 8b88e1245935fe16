package stamper

// State is a Pool lifecycle state.
//
// A pool moves along one of two paths and never returns to Running:
//
//	Running -> GracefulShutdownRequested -> Drained      (normal path)
//	Running -> ForcedShutdownRequested   -> Terminated   (cancellation path)
//
// Terminal states are reached only when the last worker has exited.
// A forced request issued after a graceful one moves the pool to the
// cancellation path as long as at least one worker is still running.
type State int

const (
	StateRunning State = iota
	StateGracefulShutdownRequested
	StateForcedShutdownRequested
	StateDrained
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateGracefulShutdownRequested:
		return "graceful_shutdown_requested"
	case StateForcedShutdownRequested:
		return "forced_shutdown_requested"
	case StateDrained:
		return "drained"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Terminal reports whether no worker can run anymore in state s.
func (s State) Terminal() bool { return s == StateDrained || s == StateTerminated }

// resolveState derives the lifecycle state from the pool flags.
// forcedExits is the number of workers that stopped on the forced path.
func resolveState(live int32, forced, graceful bool, forcedExits int) State {
	switch {
	case live == 0 && forcedExits > 0:
		return StateTerminated
	case live == 0:
		return StateDrained
	case forced:
		return StateForcedShutdownRequested
	case graceful:
		return StateGracefulShutdownRequested
	default:
		return StateRunning
	}
}
