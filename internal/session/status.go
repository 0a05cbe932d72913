package session

import "fmt"

// Status is the externally visible state of a session.
type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// state is the closed set of session states. Each state carries only the
// data that is valid in it, so a success without a result cannot exist.
type state interface {
	status() Status
}

type idleState struct{}

type pendingState struct {
	instruction string
}

type succeededState struct {
	instruction string
	result      *EditResult
}

type failedState struct {
	instruction string
	message     string
	err         error
}

func (idleState) status() Status      { return Idle }
func (pendingState) status() Status   { return Pending }
func (succeededState) status() Status { return Succeeded }
func (failedState) status() Status    { return Failed }

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{Idle, Pending, Succeeded, Failed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", text)
}
