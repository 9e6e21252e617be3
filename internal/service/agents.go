package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

const agentTokenTTL = 4 * time.Hour

// SigningKeySource supplies the key agent tokens are signed with.
type SigningKeySource interface {
	SigningKey(ctx context.Context) ([]byte, error)
}

// AgentsService manages rack agents. Deleting an agent removes its TLS
// material in the same unit of work and notifies the orchestration engine so
// in-flight work addressed to the agent is cancelled.
type AgentsService struct {
	*Service[model.Agent]

	agents       *store.AgentsRepository
	certificates *store.CertificatesRepository
	workflows    Enqueuer
	keys         SigningKeySource
	signingKey   *Cache[[]byte]
	now          func() time.Time
}

// NewAgentsService wires the agents service and its cascade dependencies.
func NewAgentsService(
	agents *store.AgentsRepository,
	certificates *store.CertificatesRepository,
	workflows Enqueuer,
	keys SigningKeySource,
	caches *CacheRegistry,
	log zerolog.Logger,
) *AgentsService {
	s := &AgentsService{
		agents:       agents,
		certificates: certificates,
		workflows:    workflows,
		keys:         keys,
		signingKey:   RegisterCache[[]byte](caches, "agents.signing-key"),
		now:          time.Now,
	}
	s.Service = NewService[model.Agent](agents, Hooks[model.Agent]{
		Cascade:        s.cascade,
		CascadeMany:    s.cascadeMany,
		PostDelete:     s.postDelete,
		PostDeleteMany: s.postDeleteMany,
	}, log)
	return s
}

// IssueToken mints a short-lived bearer token for one agent. The signing key
// is fetched once and cached for the life of the process.
func (s *AgentsService) IssueToken(ctx context.Context, agentID int64) (string, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return "", err
	}
	key, err := s.signingKey.GetOrFetch(ctx, s.keys.SigningKey)
	if err != nil {
		return "", fmt.Errorf("loading agent token signing key: %w", err)
	}

	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   agent.Name,
		Issuer:    "fleetcore",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(agentTokenTTL)),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing agent token: %w", err)
	}
	return signed, nil
}

func (s *AgentsService) cascade(ctx context.Context, doomed model.Agent) error {
	_, err := s.certificates.DeleteForAgent(ctx, doomed.ID)
	return err
}

func (s *AgentsService) cascadeMany(ctx context.Context, doomed []model.Agent) error {
	_, err := s.certificates.DeleteForAgents(ctx, entityIDs(doomed))
	return err
}

func (s *AgentsService) postDelete(ctx context.Context, deleted model.Agent) error {
	return s.workflows.Enqueue(ctx, SubjectAgentRevoked, map[string]any{
		"agent_id":   deleted.ID,
		"agent_name": deleted.Name,
	})
}

// postDeleteMany revokes each agent individually: the orchestration engine
// cancels in-flight work per agent.
func (s *AgentsService) postDeleteMany(ctx context.Context, deleted []model.Agent) error {
	for _, agent := range deleted {
		if err := s.postDelete(ctx, agent); err != nil {
			return err
		}
	}
	return nil
}
