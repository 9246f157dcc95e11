// Package x720 drives the fuel gauge on the X720 UPS board.
//
// The gauge answers on I2C address 0x36 and exposes the cell voltage and the
// relative state of charge as byte swapped 16-bit registers. The very first
// access after power-up or bus acquisition is unreliable, so Initialize
// performs a throwaway read, lets the chip settle and reads again.
package x720

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"x720/internal/bus"
)

const (
	Addr = 0x36

	RegVoltage  = 0x02
	RegCapacity = 0x04

	// SettleTime is how long the chip needs after the first read.
	SettleTime = 500 * time.Millisecond
)

// Reading is one converted sample. It is never modified after creation.
type Reading struct {
	Voltage  float64 // V
	Capacity float64 // %
}

func (r Reading) String() string {
	return fmt.Sprintf("%.3fV %.2f%%", r.Voltage, r.Capacity)
}

// Opts holds the driver configuration.
type Opts struct {
	Addr uint16
	// Settle is the wait between the throwaway read and the real one. Values
	// below SettleTime are raised to SettleTime.
	Settle time.Duration
	Logger log.FieldLogger
}

// DefaultOpts is used when New is called with nil options.
var DefaultOpts = Opts{
	Addr:   Addr,
	Settle: SettleTime,
}

// Driver is a handle to the fuel gauge. It does not own the bus.
//
// A single caller is expected to drive Initialize and Refresh; Latest and
// State may be called concurrently from anywhere.
type Driver struct {
	bus    bus.WordReader
	addr   uint16
	settle time.Duration
	log    log.FieldLogger
	sleep  func(time.Duration)

	last        atomic.Pointer[Reading]
	initialized atomic.Bool
	state       atomic.Int32
}

// New returns a driver for the gauge at opts.Addr. It performs no I/O.
func New(b bus.WordReader, opts *Opts) *Driver {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Addr == 0 {
		o.Addr = Addr
	}
	if o.Settle < SettleTime {
		o.Settle = SettleTime
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return &Driver{
		bus:    b,
		addr:   o.Addr,
		settle: o.Settle,
		log:    o.Logger.WithField("addr", fmt.Sprintf("0x%02x", o.Addr)),
		sleep:  time.Sleep,
	}
}

// Initialize runs the stabilization sequence: a throwaway read of both
// registers, a settle wait, then a real read. Only the real read decides the
// outcome and only a non-zero voltage is cached. Otherwise it fails with
// ErrInitializationFailed and Latest stays empty.
//
// Calling it again after a success is a no-op. After a failure the driver
// stays unusable.
func (d *Driver) Initialize() error {
	switch d.State() {
	case Ready, Degraded:
		return nil
	case Failed:
		return d.initError()
	}
	d.state.Store(int32(Initializing))

	d.discard()
	d.sleep(d.settle)

	r, err := d.sample()
	if err != nil {
		d.log.WithError(err).Warn("read after settle failed")
	}
	if r == nil || r.Voltage == 0 {
		d.state.Store(int32(Failed))
		return d.initError()
	}
	d.commit(r)
	d.state.Store(int32(Ready))
	d.log.Info("X720 sensor initialized")
	return nil
}

// discard reads both registers and drops the values. The first access after
// power-up or bus acquisition returns garbage or fails.
func (d *Driver) discard() {
	for _, reg := range []byte{RegVoltage, RegCapacity} {
		if _, err := d.readWord(reg); err != nil {
			d.log.WithError(err).Debug("first read failed, ignoring")
			return
		}
	}
}

// InitializeAsync runs Initialize on its own goroutine. The returned channel
// yields its result once and is then closed.
func (d *Driver) InitializeAsync() <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- d.Initialize()
	}()
	return ch
}

func (d *Driver) initError() error {
	return errors.Wrapf(ErrInitializationFailed, "x720 at 0x%02x", d.addr)
}

// Refresh reads the voltage and capacity registers and replaces the cached
// reading. On error the cached reading is left untouched.
func (d *Driver) Refresh() error {
	r, err := d.sample()
	if err != nil {
		d.degrade()
		return err
	}
	d.commit(r)
	return nil
}

func (d *Driver) sample() (*Reading, error) {
	rawV, err := d.readWord(RegVoltage)
	if err != nil {
		return nil, err
	}
	rawC, err := d.readWord(RegCapacity)
	if err != nil {
		return nil, err
	}
	return &Reading{
		Voltage:  Voltage(rawV),
		Capacity: Capacity(rawC),
	}, nil
}

func (d *Driver) commit(r *Reading) {
	d.last.Store(r)
	if r.Voltage != 0 {
		d.initialized.Store(true)
	}
	d.state.CompareAndSwap(int32(Degraded), int32(Ready))

	d.log.WithFields(log.Fields{
		"voltage":  r.Voltage,
		"capacity": r.Capacity,
	}).Debug("refreshed")
}

func (d *Driver) readWord(reg byte) (uint16, error) {
	w, err := d.bus.ReadWord(d.addr, reg)
	if err != nil {
		return 0, &BusError{Addr: d.addr, Reg: reg, Err: err}
	}
	return w, nil
}

func (d *Driver) degrade() {
	d.state.CompareAndSwap(int32(Ready), int32(Degraded))
}

// Latest returns the cached reading. It never touches the bus.
func (d *Driver) Latest() (Reading, bool) {
	r := d.last.Load()
	if r == nil {
		return Reading{}, false
	}
	return *r, true
}

// Initialized reports whether a refresh has ever produced a non-zero voltage.
func (d *Driver) Initialized() bool {
	return d.initialized.Load()
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) String() string {
	return fmt.Sprintf("x720{0x%02x, %s}", d.addr, d.State())
}
