// Package instance models a placed instance: a name, a location in the map
// and the fixup table that operations and lazy values read.
package instance

import (
	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/fixup"
	"github.com/vk/precomp/internal/geom"
)

// Placed is implemented by holders that know where they are in the map.
type Placed interface {
	Placement() (origin geom.Vec, angles geom.Angle)
}

// Instance is a placed instance. Its fixup table is owned by whoever is
// processing the instance; it must not be shared between goroutines.
type Instance struct {
	Name   string
	Origin geom.Vec
	Angles geom.Angle

	fixups *fixup.Table
}

// New creates an instance. A nil table is replaced by an empty one.
func New(name string, origin geom.Vec, angles geom.Angle, fixups *fixup.Table) *Instance {
	if fixups == nil {
		fixups = fixup.New()
	}
	return &Instance{Name: name, Origin: origin, Angles: angles, fixups: fixups}
}

// FromConfig builds an instance from its declarative definition. Unparseable
// origins and angles fall back to zero.
func FromConfig(def *config.Instance) *Instance {
	table := fixup.New()
	for _, p := range def.Fixups {
		table.Set(p.Key, p.Value)
	}
	return New(
		def.Name,
		geom.ParseVec(def.Origin, 0, 0, 0),
		geom.ParseAngle(def.Angles, 0, 0, 0),
		table,
	)
}

// Fixups implements fixup.Holder.
func (i *Instance) Fixups() *fixup.Table { return i.fixups }

// Placement implements Placed.
func (i *Instance) Placement() (geom.Vec, geom.Angle) { return i.Origin, i.Angles }

func (i *Instance) String() string { return i.Name }

// ResolveOffset converts an offset written relative to an instance into world
// space. The text may reference fixups. It is scaled, raised by zoff, rotated
// by the instance angles and moved to the instance origin. Holders without a
// placement sit at the world origin with no rotation.
func ResolveOffset(inst fixup.Holder, local string, scale, zoff float64) geom.Vec {
	text, err := inst.Fixups().Substitute(local, nil, true)
	if err != nil {
		text = ""
	}
	offset := geom.ParseVec(text, 0, 0, 0).Scale(scale)
	offset.Z += zoff

	var (
		origin geom.Vec
		angles geom.Angle
	)
	if p, ok := inst.(Placed); ok {
		origin, angles = p.Placement()
	}
	return offset.Localise(origin, angles)
}
