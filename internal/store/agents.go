package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var agentMapper = Mapper[model.Agent]{
	Table:       "agent",
	Columns:     []string{"id", "created", "updated", "name", "secret", "rack_id"},
	Timestamped: true,
	Scan: func(row scanner) (model.Agent, error) {
		var a model.Agent
		err := row.Scan(&a.ID, &a.Created, &a.Updated, &a.Name, &a.Secret, &a.RackID)
		return a, err
	},
}

var certificateMapper = Mapper[model.Certificate]{
	Table:       "agent_certificate",
	Columns:     []string{"id", "created", "updated", "agent_id", "fingerprint", "material"},
	Timestamped: true,
	Scan: func(row scanner) (model.Certificate, error) {
		var c model.Certificate
		err := row.Scan(&c.ID, &c.Created, &c.Updated, &c.AgentID, &c.Fingerprint, &c.Material)
		return c, err
	},
}

// AgentsRepository persists rack agents.
type AgentsRepository struct {
	*Repository[model.Agent]
}

func NewAgentsRepository() *AgentsRepository {
	return &AgentsRepository{NewRepository(agentMapper)}
}

// CertificatesRepository persists agent TLS material.
type CertificatesRepository struct {
	*Repository[model.Certificate]
}

func NewCertificatesRepository() *CertificatesRepository {
	return &CertificatesRepository{NewRepository(certificateMapper)}
}

// DeleteForAgent removes every certificate owned by the agent in one
// statement and returns the removed rows.
func (r *CertificatesRepository) DeleteForAgent(ctx context.Context, agentID int64) ([]model.Certificate, error) {
	return r.DeleteForAgents(ctx, []int64{agentID})
}

// DeleteForAgents removes every certificate owned by any of the agents in
// one statement and returns the removed rows.
func (r *CertificatesRepository) DeleteForAgents(ctx context.Context, agentIDs []int64) ([]model.Certificate, error) {
	return r.DeleteMany(ctx, QuerySpec{Where: CertificateClause.WithAgentIDs(agentIDs)})
}

type agentClauseFactory struct{}

// AgentClause builds predicates over agents.
var AgentClause agentClauseFactory

func (agentClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"agent.id": id}}
}

func (agentClauseFactory) WithName(name string) Clause {
	return Clause{Condition: sq.Eq{"agent.name": name}}
}

func (agentClauseFactory) WithRackID(id int64) Clause {
	return Clause{Condition: sq.Eq{"agent.rack_id": id}}
}

type certificateClauseFactory struct{}

// CertificateClause builds predicates over agent certificates.
var CertificateClause certificateClauseFactory

func (certificateClauseFactory) WithAgentID(id int64) Clause {
	return Clause{Condition: sq.Eq{"agent_certificate.agent_id": id}}
}

func (certificateClauseFactory) WithAgentIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"agent_certificate.agent_id": ids}}
}

// WithAgentName filters on the joined agent's name.
func (certificateClauseFactory) WithAgentName(name string) Clause {
	return Clause{
		Condition: sq.Eq{"agent.name": name},
		Joins:     []Join{{Table: "agent", On: "agent_certificate.agent_id = agent.id"}},
	}
}
