package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NodeStatus is the lifecycle state of a machine.
type NodeStatus string

const (
	NodeStatusNew           NodeStatus = "new"
	NodeStatusCommissioning NodeStatus = "commissioning"
	NodeStatusReady         NodeStatus = "ready"
	NodeStatusAllocated     NodeStatus = "allocated"
	NodeStatusDeploying     NodeStatus = "deploying"
	NodeStatusDeployed      NodeStatus = "deployed"
	NodeStatusBroken        NodeStatus = "broken"
)

// Node is a physical or virtual machine managed by the fleet.
type Node struct {
	Timestamped
	Hostname string
	Status   NodeStatus
	ZoneID   int64
	PoolID   int64
	OwnerID  *int64
	BMCID    *int64
}

// NodeBuilder assembles the populated fields for node creates and updates.
type NodeBuilder struct {
	hostname Field[string]
	status   Field[NodeStatus]
	zoneID   Field[int64]
	poolID   Field[int64]
	ownerID  Field[int64]
	bmcID    Field[int64]
}

func NewNodeBuilder() *NodeBuilder { return &NodeBuilder{} }

func (b *NodeBuilder) WithHostname(hostname string) *NodeBuilder {
	b.hostname = Set(hostname)
	return b
}

func (b *NodeBuilder) WithStatus(status NodeStatus) *NodeBuilder {
	b.status = Set(status)
	return b
}

func (b *NodeBuilder) WithZoneID(id int64) *NodeBuilder {
	b.zoneID = Set(id)
	return b
}

func (b *NodeBuilder) WithPoolID(id int64) *NodeBuilder {
	b.poolID = Set(id)
	return b
}

func (b *NodeBuilder) WithOwnerID(id int64) *NodeBuilder {
	b.ownerID = Set(id)
	return b
}

// WithoutOwner marks the node as unowned (explicit null, not "unchanged").
func (b *NodeBuilder) WithoutOwner() *NodeBuilder {
	b.ownerID = SetNull[int64]()
	return b
}

func (b *NodeBuilder) WithBMCID(id int64) *NodeBuilder {
	b.bmcID = Set(id)
	return b
}

func (b *NodeBuilder) WithoutBMC() *NodeBuilder {
	b.bmcID = SetNull[int64]()
	return b
}

func (b *NodeBuilder) Fields() Fields {
	f := Fields{}
	if b.hostname.IsSet() {
		f["hostname"] = b.hostname.SQLValue()
	}
	if b.status.IsSet() {
		f["status"] = b.status.SQLValue()
	}
	if b.zoneID.IsSet() {
		f["zone_id"] = b.zoneID.SQLValue()
	}
	if b.poolID.IsSet() {
		f["pool_id"] = b.poolID.SQLValue()
	}
	if b.ownerID.IsSet() {
		f["owner_id"] = b.ownerID.SQLValue()
	}
	if b.bmcID.IsSet() {
		f["bmc_id"] = b.bmcID.SQLValue()
	}
	return f
}

func (b *NodeBuilder) Validate() error {
	if b.hostname.IsSet() {
		hostname, _ := b.hostname.Get()
		if err := validation.Validate(hostname, validation.Required, validation.Length(1, 255)); err != nil {
			return fieldError("hostname", err)
		}
	}
	if status, ok := b.status.Get(); ok {
		if err := validation.Validate(string(status), validation.In(
			string(NodeStatusNew),
			string(NodeStatusCommissioning),
			string(NodeStatusReady),
			string(NodeStatusAllocated),
			string(NodeStatusDeploying),
			string(NodeStatusDeployed),
			string(NodeStatusBroken),
		)); err != nil {
			return fieldError("status", err)
		}
	}
	return nil
}
