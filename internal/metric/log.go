package metric

// LogStreamType identifies the log stream wire shape.
const LogStreamType StreamType = "pulse.log.v0"

// DefaultLogFrame is the default bound on retained log records.
const DefaultLogFrame = 20

// LogMetric keeps a bounded FIFO of the most recent messages.
type LogMetric struct{}

// LogRecord is one retained message.
type LogRecord struct {
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
}

// LogState holds at most Frame records in insertion order, oldest first.
type LogState struct {
	Frame   int         `json:"frame"`
	Records []LogRecord `json:"records"`
}

// LogEvent appends one message to the stream.
type LogEvent struct {
	Message string `json:"message"`
}

// NewLogState returns an empty log frame. A non-positive frame size falls
// back to DefaultLogFrame.
func NewLogState(frame int) LogState {
	if frame <= 0 {
		frame = DefaultLogFrame
	}
	return LogState{Frame: frame}
}

func (LogMetric) StreamType() StreamType { return LogStreamType }

func (LogMetric) Apply(state *LogState, event TimedEvent[LogEvent]) {
	state.Records = append(state.Records, LogRecord{
		Timestamp: event.Timestamp,
		Message:   event.Event.Message,
	})
	if excess := len(state.Records) - state.Frame; excess > 0 {
		state.Records = append(state.Records[:0], state.Records[excess:]...)
	}
}

func (LogMetric) CloneState(state *LogState) LogState {
	clone := *state
	clone.Records = append([]LogRecord(nil), state.Records...)
	return clone
}
