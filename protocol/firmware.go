package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command keywords understood by the board firmware
const (
	CmdStatus   = "STATUS"
	CmdVersion  = "VERSION"
	CmdAdd      = "ADD"
	CmdSubtract = "SUBTRACT"
	CmdMultiply = "MULTIPLY"
	CmdDivide   = "DIVIDE"
)

// Fixed replies
const (
	ReplyOK           = "OK"
	ReplyVersion      = "v1.0"
	ReplyDivideByZero = "Error: divide by zero"
	ReplyUnknown      = "Unknown command"
)

// Respond returns the reply line the firmware produces for one command line.
// The result carries no terminator.
//
// Keywords are case-sensitive and tokens are separated by whitespace.
// Arithmetic commands take exactly two signed 32-bit decimal operands;
// anything else is answered with ReplyUnknown.
func Respond(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ReplyUnknown
	}

	switch fields[0] {
	case CmdStatus:
		if len(fields) == 1 {
			return ReplyOK
		}
	case CmdVersion:
		if len(fields) == 1 {
			return ReplyVersion
		}
	case CmdAdd, CmdSubtract, CmdMultiply, CmdDivide:
		a, b, ok := operands(fields[1:])
		if !ok {
			return ReplyUnknown
		}
		return arithmetic(fields[0], a, b)
	}

	return ReplyUnknown
}

// Reply computes the firmware reply for the raw bytes of a request, terminator included
func Reply(sent []byte) string {
	return Respond(Normalize(sent))
}

func operands(args []string) (int64, int64, bool) {
	if len(args) != 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

func arithmetic(op string, a, b int64) string {
	switch op {
	case CmdAdd:
		return strconv.FormatInt(a+b, 10)
	case CmdSubtract:
		return strconv.FormatInt(a-b, 10)
	case CmdMultiply:
		return strconv.FormatInt(a*b, 10)
	default:
		// checked before dividing
		if b == 0 {
			return ReplyDivideByZero
		}
		return fmt.Sprintf("%d (remainder %d)", a/b, a%b)
	}
}
