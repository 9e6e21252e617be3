package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BMC is a baseboard management controller reachable through a power driver.
type BMC struct {
	Timestamped
	PowerType       string
	PowerParameters string
	ZoneID          int64
}

// BMCBuilder assembles the populated fields for BMC creates and updates.
type BMCBuilder struct {
	powerType       Field[string]
	powerParameters Field[string]
	zoneID          Field[int64]
}

func NewBMCBuilder() *BMCBuilder { return &BMCBuilder{} }

func (b *BMCBuilder) WithPowerType(powerType string) *BMCBuilder {
	b.powerType = Set(powerType)
	return b
}

func (b *BMCBuilder) WithPowerParameters(params string) *BMCBuilder {
	b.powerParameters = Set(params)
	return b
}

func (b *BMCBuilder) WithZoneID(id int64) *BMCBuilder {
	b.zoneID = Set(id)
	return b
}

func (b *BMCBuilder) Fields() Fields {
	f := Fields{}
	if b.powerType.IsSet() {
		f["power_type"] = b.powerType.SQLValue()
	}
	if b.powerParameters.IsSet() {
		f["power_parameters"] = b.powerParameters.SQLValue()
	}
	if b.zoneID.IsSet() {
		f["zone_id"] = b.zoneID.SQLValue()
	}
	return f
}

func (b *BMCBuilder) Validate() error {
	if b.powerType.IsSet() {
		powerType, _ := b.powerType.Get()
		if err := validation.Validate(powerType, validation.Required, validation.Length(1, 64)); err != nil {
			return fieldError("power_type", err)
		}
	}
	return nil
}
