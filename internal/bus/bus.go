// Package bus provides the word-sized register reads the fuel gauge driver
// needs, on top of a periph.io I2C bus.
package bus

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// WordReader reads a 16-bit register with SMBus "read word data" semantics:
// the first byte on the wire is returned as the low byte.
type WordReader interface {
	ReadWord(addr uint16, reg byte) (uint16, error)
}

// Periph is a WordReader backed by a periph.io I2C bus.
type Periph struct {
	bus    i2c.Bus
	closer i2c.BusCloser
}

// NewPeriph wraps an already opened bus. The caller keeps ownership of b.
func NewPeriph(b i2c.Bus) *Periph {
	return &Periph{bus: b}
}

// Open initializes the host drivers and opens the named I2C bus. An empty
// name selects the first bus available; "1" selects /dev/i2c-1.
func Open(name string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "host init")
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", name)
	}
	return &Periph{bus: b, closer: b}, nil
}

// ReadWord writes the register offset and reads two bytes back in a single
// combined transaction.
func (p *Periph) ReadWord(addr uint16, reg byte) (uint16, error) {
	var buf [2]byte
	dev := i2c.Dev{Addr: addr, Bus: p.bus}
	if err := dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "read word 0x%02x from 0x%02x", reg, addr)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// Close releases the bus if it was opened by Open.
func (p *Periph) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *Periph) String() string {
	return p.bus.String()
}
