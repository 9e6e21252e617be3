package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// VMCluster is a group of VM hosts managed as one unit.
type VMCluster struct {
	Timestamped
	Name    string
	Project string
	ZoneID  int64
}

// VMClusterBuilder assembles the populated fields for cluster creates and
// updates.
type VMClusterBuilder struct {
	name    Field[string]
	project Field[string]
	zoneID  Field[int64]
}

func NewVMClusterBuilder() *VMClusterBuilder { return &VMClusterBuilder{} }

func (b *VMClusterBuilder) WithName(name string) *VMClusterBuilder {
	b.name = Set(name)
	return b
}

func (b *VMClusterBuilder) WithProject(project string) *VMClusterBuilder {
	b.project = Set(project)
	return b
}

func (b *VMClusterBuilder) WithZoneID(id int64) *VMClusterBuilder {
	b.zoneID = Set(id)
	return b
}

func (b *VMClusterBuilder) Fields() Fields {
	f := Fields{}
	if b.name.IsSet() {
		f["name"] = b.name.SQLValue()
	}
	if b.project.IsSet() {
		f["project"] = b.project.SQLValue()
	}
	if b.zoneID.IsSet() {
		f["zone_id"] = b.zoneID.SQLValue()
	}
	return f
}

func (b *VMClusterBuilder) Validate() error {
	if b.name.IsSet() {
		name, _ := b.name.Get()
		if err := validation.Validate(name, validation.Required, validation.Length(1, 256)); err != nil {
			return fieldError("name", err)
		}
	}
	return nil
}
