// Package scenarios holds the command/reply checks run against the board.
//
//	go test ./scenarios                  # hardware, skipped when no board is attached
//	go test ./scenarios -args -simulate  # simulated board
//	DUT_SERIAL_PORT=tcp://127.0.0.1:9999 go test ./scenarios  # mock-dut emulator
package scenarios
