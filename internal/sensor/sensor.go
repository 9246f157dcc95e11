// Package sensor presents fuel gauge readings as named entities with units
// and icons, the way a home automation front end shows them.
package sensor

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkg/errors"

	"x720/internal/x720"
)

// Type is a monitored condition.
type Type string

const (
	Voltage  Type = "voltage"
	Capacity Type = "capacity"
)

type info struct {
	name string
	unit string
}

var types = map[Type]info{
	Voltage:  {"Voltage", "V"},
	Capacity: {"Capacity", "%"},
}

// DefaultMonitored lists the conditions shown when none are configured.
var DefaultMonitored = []string{string(Voltage), string(Capacity)}

// Valid reports whether c names a known condition.
func Valid(c string) bool {
	_, ok := types[Type(c)]
	return ok
}

// Entity is one rendered sensor. State is nil until the first update.
type Entity struct {
	Name  string
	Type  Type
	Unit  string
	State *float64
}

// NewEntity builds the entity for condition c, named "<prefix> <Name>".
func NewEntity(prefix string, c Type) (Entity, error) {
	i, ok := types[c]
	if !ok {
		return Entity{}, errors.Errorf("unknown sensor type %q", c)
	}
	return Entity{
		Name: fmt.Sprintf("%s %s", prefix, i.name),
		Type: c,
		Unit: i.unit,
	}, nil
}

// Update sets the entity state from r, rounded to one decimal place.
func (e *Entity) Update(r x720.Reading) {
	var v float64
	switch e.Type {
	case Voltage:
		v = r.Voltage
	case Capacity:
		v = r.Capacity
	}
	v = Round(v)
	e.State = &v
}

// Icon picks a Material Design icon. Capacity icons follow the charge level.
func (e *Entity) Icon() string {
	if e.Type == Voltage {
		return "mdi:flash"
	}
	switch {
	case e.State == nil:
		return "mdi:battery-unknown"
	case *e.State >= 100:
		return "mdi:battery"
	case *e.State >= 50:
		return "mdi:battery-50"
	default:
		return "mdi:battery-alert"
	}
}

// Round rounds v to one decimal place.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

// Set is the group of entities backed by one gauge. It is safe for
// concurrent use.
type Set struct {
	mu       sync.RWMutex
	entities []Entity
}

// NewSet builds one entity per condition, in order.
func NewSet(prefix string, conditions []string) (*Set, error) {
	s := &Set{}
	for _, c := range conditions {
		e, err := NewEntity(prefix, Type(c))
		if err != nil {
			return nil, err
		}
		s.entities = append(s.entities, e)
	}
	return s, nil
}

// Update applies r to every entity.
func (s *Set) Update(r x720.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entities {
		s.entities[i].Update(r)
	}
}

// Entities returns a snapshot of the entities.
func (s *Set) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}
