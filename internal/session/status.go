package session

// Kind classifies one observable status event.
type Kind string

const (
	KindIdle         Kind = "idle"
	KindLoading      Kind = "loading"
	KindReady        Kind = "ready"
	KindRecording    Kind = "recording"
	KindTranscribing Kind = "transcribing"
	KindCorrecting   Kind = "correcting"
	KindDone         Kind = "done"
	KindNoSpeech     Kind = "no-speech"
	KindError        Kind = "error"
)

// Status is one snapshot of session state published to observers. Text always
// carries the latest transcript and Seconds the wall time of the last
// transcription chain, regardless of kind.
type Status struct {
	Kind    Kind
	Message string
	Model   string
	Text    string
	Seconds float64

	RecordEnabled bool
	ModelEnabled  bool
}
