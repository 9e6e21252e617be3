package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultResourcePoolName is the name of the seeded resource pool that nodes
// fall back to when their pool is deleted. It cannot be deleted itself.
const DefaultResourcePoolName = "default"

// ResourcePool groups nodes for allocation quotas and access control.
type ResourcePool struct {
	Timestamped
	Name        string
	Description string
}

// IsDefault reports whether this is the protected default pool.
func (p ResourcePool) IsDefault() bool { return p.Name == DefaultResourcePoolName }

// ResourcePoolBuilder assembles the populated fields for pool creates and
// updates.
type ResourcePoolBuilder struct {
	name        Field[string]
	description Field[string]
}

func NewResourcePoolBuilder() *ResourcePoolBuilder { return &ResourcePoolBuilder{} }

func (b *ResourcePoolBuilder) WithName(name string) *ResourcePoolBuilder {
	b.name = Set(name)
	return b
}

func (b *ResourcePoolBuilder) WithDescription(description string) *ResourcePoolBuilder {
	b.description = Set(description)
	return b
}

func (b *ResourcePoolBuilder) Fields() Fields {
	f := Fields{}
	if b.name.IsSet() {
		f["name"] = b.name.SQLValue()
	}
	if b.description.IsSet() {
		f["description"] = b.description.SQLValue()
	}
	return f
}

func (b *ResourcePoolBuilder) Validate() error {
	if b.name.IsSet() {
		name, _ := b.name.Get()
		if err := validation.Validate(name, validation.Required, validation.Length(1, 256)); err != nil {
			return fieldError("name", err)
		}
	}
	return nil
}
