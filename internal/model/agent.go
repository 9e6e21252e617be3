package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Agent is a rack-level agent enrolled with the region.
type Agent struct {
	Timestamped
	Name   string
	Secret string
	RackID int64
}

// Certificate is TLS material owned by one agent. Certificates are removed in
// bulk when their agent goes away.
type Certificate struct {
	Timestamped
	AgentID     int64
	Fingerprint string
	Material    string
}

// AgentBuilder assembles the populated fields for agent creates and updates.
type AgentBuilder struct {
	name   Field[string]
	secret Field[string]
	rackID Field[int64]
}

func NewAgentBuilder() *AgentBuilder { return &AgentBuilder{} }

func (b *AgentBuilder) WithName(name string) *AgentBuilder {
	b.name = Set(name)
	return b
}

func (b *AgentBuilder) WithSecret(secret string) *AgentBuilder {
	b.secret = Set(secret)
	return b
}

func (b *AgentBuilder) WithRackID(id int64) *AgentBuilder {
	b.rackID = Set(id)
	return b
}

func (b *AgentBuilder) Fields() Fields {
	f := Fields{}
	if b.name.IsSet() {
		f["name"] = b.name.SQLValue()
	}
	if b.secret.IsSet() {
		f["secret"] = b.secret.SQLValue()
	}
	if b.rackID.IsSet() {
		f["rack_id"] = b.rackID.SQLValue()
	}
	return f
}

func (b *AgentBuilder) Validate() error {
	if b.secret.IsSet() {
		secret, _ := b.secret.Get()
		if err := validation.Validate(secret, validation.Required, validation.Length(16, 128)); err != nil {
			return fieldError("secret", err)
		}
	}
	return nil
}

// CertificateBuilder assembles the populated fields for certificate rows.
type CertificateBuilder struct {
	agentID     Field[int64]
	fingerprint Field[string]
	material    Field[string]
}

func NewCertificateBuilder() *CertificateBuilder { return &CertificateBuilder{} }

func (b *CertificateBuilder) WithAgentID(id int64) *CertificateBuilder {
	b.agentID = Set(id)
	return b
}

func (b *CertificateBuilder) WithFingerprint(fp string) *CertificateBuilder {
	b.fingerprint = Set(fp)
	return b
}

func (b *CertificateBuilder) WithMaterial(material string) *CertificateBuilder {
	b.material = Set(material)
	return b
}

func (b *CertificateBuilder) Fields() Fields {
	f := Fields{}
	if b.agentID.IsSet() {
		f["agent_id"] = b.agentID.SQLValue()
	}
	if b.fingerprint.IsSet() {
		f["fingerprint"] = b.fingerprint.SQLValue()
	}
	if b.material.IsSet() {
		f["material"] = b.material.SQLValue()
	}
	return f
}

func (b *CertificateBuilder) Validate() error {
	if b.agentID.IsSet() {
		id, _ := b.agentID.Get()
		if err := validation.Validate(id, validation.Required, validation.Min(int64(1))); err != nil {
			return fieldError("agent_id", err)
		}
	}
	return nil
}
