package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateCorrecting   State = "correcting"
	StateError        State = "error"
)

const (
	EventLoad        Event = "load"
	EventLoaded      Event = "loaded"
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventAbort       Event = "abort"
	EventTranscribed Event = "transcribed"
	EventCorrect     Event = "correct"
	EventCorrected   Event = "corrected"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
	EventUnload      Event = "unload"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventLoad:
			return StateLoading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateLoading:
		switch event {
		case EventLoaded:
			return StateReady, nil
		case EventLoad:
			return StateLoading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReady:
		switch event {
		case EventLoad:
			return StateLoading, nil
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranscribing, nil
		case EventAbort:
			return StateReady, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateReady, nil
		case EventCorrect:
			return StateCorrecting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCorrecting:
		switch event {
		case EventCorrected:
			return StateReady, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateReady, nil
		case EventUnload:
			return StateIdle, nil
		case EventLoad:
			return StateLoading, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
