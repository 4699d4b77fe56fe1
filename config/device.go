package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Device is a resolved board profile
type Device struct {
	BaudRate  int
	VendorID  uint16
	ProductID uint16
}

// Error reports a missing, unreadable or malformed board profile
type Error struct {
	Path  string
	Board string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s [%s]: %v", e.Path, e.Board, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// profile mirrors one board entry of the config file, e.g.
//
//	{"STM32DevBoard": {"baudrate": 115200, "vid": "0483", "pid": "5740"}}
type profile struct {
	BaudRate int    `mapstructure:"baudrate"`
	VID      string `mapstructure:"vid"`
	PID      string `mapstructure:"pid"`
}

// LoadDevice reads the profile named board from the JSON file at path.
// Board names are matched case-insensitively.
func LoadDevice(path, board string) (*Device, error) {
	fail := func(err error) (*Device, error) {
		return nil, &Error{Path: path, Board: board, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fail(err)
	}

	sub := v.Sub(board)
	if sub == nil {
		return fail(errors.New("board profile not found"))
	}

	var p profile
	if err := sub.Unmarshal(&p, viper.DecodeHook(mapstructure.DecodeHookFuncType(stringsOnly))); err != nil {
		return fail(fmt.Errorf("decode profile: %w", err))
	}

	if p.BaudRate <= 0 {
		return fail(fmt.Errorf("baudrate must be positive, got %d", p.BaudRate))
	}
	vid, err := ParseHexID(p.VID)
	if err != nil {
		return fail(fmt.Errorf("vid: %w", err))
	}
	pid, err := ParseHexID(p.PID)
	if err != nil {
		return fail(fmt.Errorf("pid: %w", err))
	}

	return &Device{BaudRate: p.BaudRate, VendorID: vid, ProductID: pid}, nil
}

// stringsOnly stops weak decoding from turning a JSON number into a string
// field; "vid": 1155 must not be read back as 0x1155.
func stringsOnly(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return nil, fmt.Errorf("expected a hex string, got %v", data)
	}
	return data, nil
}

// ParseHexID parses a USB vendor or product id written in hex, with or without a 0x prefix
func ParseHexID(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return uint16(id), nil
}
