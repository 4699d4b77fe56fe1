package driver

import "fmt"

// SendAndReceive writes command once and reads one reply line. The reply is
// returned exactly as the transport normalized it; there is no retry and no
// interpretation of its content. An empty reply means the read timed out.
func SendAndReceive(t Transport, command string) (string, error) {
	if err := t.WriteCommand(command); err != nil {
		return "", fmt.Errorf("send %q: %w", command, err)
	}
	reply, err := t.ReadReply()
	if err != nil {
		return reply, fmt.Errorf("receive reply to %q: %w", command, err)
	}
	return reply, nil
}
