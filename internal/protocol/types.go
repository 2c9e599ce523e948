package protocol

import "fmt"

// Command is the one-byte client->server request.
type Command byte

const (
	CommandStart  Command = 0x01
	CommandStatus Command = 0x02
	CommandResult Command = 0x03
)

// Status is the one-byte server->client reply and the job progress flag.
type Status byte

const (
	StatusUnknown    Status = 0x06
	StatusInProgress Status = 0x07
	StatusCompleted  Status = 0x08
	StatusErr        Status = 0x09
)

func (c Command) Valid() bool {
	switch c {
	case CommandStart, CommandStatus, CommandResult:
		return true
	default:
		return false
	}
}

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "START"
	case CommandStatus:
		return "STATUS"
	case CommandResult:
		return "RESULT"
	default:
		return fmt.Sprintf("COMMAND(0x%02x)", byte(c))
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusInProgress, StatusCompleted, StatusErr:
		return true
	default:
		return false
	}
}

// String renders the status name printed by the client. Bytes outside the
// known set render as UNKNOWN.
func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	case StatusErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether a job in this status will not change on its own.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErr
}

// CommandForIndex maps the console command index (0, 1, 2) to a Command.
func CommandForIndex(idx int) (Command, bool) {
	switch idx {
	case 0:
		return CommandStart, true
	case 1:
		return CommandStatus, true
	case 2:
		return CommandResult, true
	default:
		return 0, false
	}
}
