package x720

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrBusFailure matches any error caused by a failed register read.
	ErrBusFailure = errors.New("bus failure")
	// ErrInitializationFailed is returned when the gauge never reported a
	// usable voltage during Initialize.
	ErrInitializationFailed = errors.New("initialization failed")
)

// BusError records which register read failed.
type BusError struct {
	Addr uint16
	Reg  byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("x720 at 0x%02x: reg 0x%02x: %v", e.Addr, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool { return target == ErrBusFailure }
