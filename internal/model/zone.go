package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultZoneName is the name of the zone every deployment is seeded with.
// The default zone cannot be deleted; dependents of a deleted zone are
// reassigned to it.
const DefaultZoneName = "default"

// Zone is an availability zone grouping nodes, BMCs and VM clusters.
type Zone struct {
	Timestamped
	Name        string
	Description string
}

// IsDefault reports whether this is the protected default zone.
func (z Zone) IsDefault() bool { return z.Name == DefaultZoneName }

// ZoneBuilder assembles the populated fields for zone creates and updates.
type ZoneBuilder struct {
	name        Field[string]
	description Field[string]
}

func NewZoneBuilder() *ZoneBuilder { return &ZoneBuilder{} }

func (b *ZoneBuilder) WithName(name string) *ZoneBuilder {
	b.name = Set(name)
	return b
}

func (b *ZoneBuilder) WithDescription(description string) *ZoneBuilder {
	b.description = Set(description)
	return b
}

func (b *ZoneBuilder) Fields() Fields {
	f := Fields{}
	if b.name.IsSet() {
		f["name"] = b.name.SQLValue()
	}
	if b.description.IsSet() {
		f["description"] = b.description.SQLValue()
	}
	return f
}

func (b *ZoneBuilder) Validate() error {
	if b.name.IsSet() {
		name, _ := b.name.Get()
		if err := validation.Validate(name, validation.Required, validation.Length(1, 256)); err != nil {
			return fieldError("name", err)
		}
	}
	if description, ok := b.description.Get(); ok {
		if err := validation.Validate(description, validation.Length(0, 1024)); err != nil {
			return fieldError("description", err)
		}
	}
	return nil
}
