package imx377

// State is the sensor's position in the power/streaming state machine.
type State int

const (
	// PoweredOff means every rail, the clock and both control lines
	// are inactive. Initial state.
	PoweredOff State = iota
	// Standby means power is applied but the pixel pipeline is halted.
	Standby
	// Streaming means the sensor is clocking frames out.
	Streaming
)

func (s State) String() string {
	switch s {
	case Standby:
		return "standby"
	case Streaming:
		return "streaming"
	default:
		return "powered-off"
	}
}
