package live

import "fmt"

// Speaker identifies who produced a transcript fragment.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// EventKind enumerates what a realtime channel can report.
type EventKind int

const (
	EventOpened EventKind = iota
	EventTranscriptFragment
	EventTurnComplete
	EventAudioChunk
	EventClosed
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventTranscriptFragment:
		return "transcript_fragment"
	case EventTurnComplete:
		return "turn_complete"
	case EventAudioChunk:
		return "audio_chunk"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one notification from the realtime channel. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Speaker Speaker
	Text    string
	Audio   []byte
	Err     error
}

func Opened() Event { return Event{Kind: EventOpened} }

func Fragment(sp Speaker, text string) Event {
	return Event{Kind: EventTranscriptFragment, Speaker: sp, Text: text}
}

func TurnComplete() Event { return Event{Kind: EventTurnComplete} }

// AudioChunk carries little-endian PCM16 at the output sample rate.
func AudioChunk(pcm []byte) Event { return Event{Kind: EventAudioChunk, Audio: pcm} }

func Closed() Event { return Event{Kind: EventClosed} }

func Failed(err error) Event { return Event{Kind: EventError, Err: err} }
