package protocol

import (
	"errors"
	"strings"
)

// Terminator ends every request and reply line on the wire
const Terminator = "\r\n"

// ErrEmbeddedTerminator is returned for command lines that carry their own CR or LF
var ErrEmbeddedTerminator = errors.New("command contains a line terminator")

// CheckCommand verifies a command line can be framed as exactly one request
func CheckCommand(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return ErrEmbeddedTerminator
	}
	return nil
}

// Frame builds the bytes sent for one command line
func Frame(cmd string) []byte {
	buf := make([]byte, 0, len(cmd)+len(Terminator))
	buf = append(buf, cmd...)
	return append(buf, Terminator...)
}

// Normalize decodes a received line as UTF-8 and strips the terminator and
// surrounding whitespace. Invalid byte sequences become U+FFFD.
func Normalize(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), "�"))
}
