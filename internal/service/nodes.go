package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// NodesService manages nodes.
type NodesService struct {
	*Service[model.Node]

	nodes     *store.NodesRepository
	workflows Enqueuer
}

// NewNodesService wires the nodes service.
func NewNodesService(nodes *store.NodesRepository, workflows Enqueuer, log zerolog.Logger) *NodesService {
	s := &NodesService{nodes: nodes, workflows: workflows}
	s.Service = NewService[model.Node](nodes, Hooks[model.Node]{
		PostUpdate: s.postUpdate,
	}, log)
	return s
}

// postUpdate asks the orchestration engine to reconfigure DHCP when a node
// changed zones. Other updates do not touch the network layout.
func (s *NodesService) postUpdate(ctx context.Context, before, after model.Node) error {
	if before.ZoneID == after.ZoneID {
		return nil
	}
	return s.workflows.Enqueue(ctx, SubjectDHCPReconfigure, map[string]any{
		"node_id":  after.ID,
		"hostname": after.Hostname,
		"zone_id":  after.ZoneID,
	})
}

// Release returns an allocated node to the ready state, drops its owner and
// notifies the orchestration engine so it can wipe and power the machine
// down.
func (s *NodesService) Release(ctx context.Context, id int64, etag string) (model.Node, error) {
	released, err := s.Update(ctx, id, etag, model.NewNodeBuilder().
		WithStatus(model.NodeStatusReady).
		WithoutOwner())
	if err != nil {
		return model.Node{}, err
	}
	if err := s.workflows.Enqueue(ctx, SubjectNodeReleased, map[string]any{
		"node_id":  released.ID,
		"hostname": released.Hostname,
	}); err != nil {
		return model.Node{}, err
	}
	return released, nil
}

// BMCsService manages baseboard management controllers. Deleting a BMC
// detaches it from any node that references it.
type BMCsService struct {
	*Service[model.BMC]

	bmcs  *store.BMCsRepository
	nodes *store.NodesRepository
}

// NewBMCsService wires the BMCs service.
func NewBMCsService(bmcs *store.BMCsRepository, nodes *store.NodesRepository, log zerolog.Logger) *BMCsService {
	s := &BMCsService{bmcs: bmcs, nodes: nodes}
	s.Service = NewService[model.BMC](bmcs, Hooks[model.BMC]{
		Cascade:     s.cascade,
		CascadeMany: s.cascadeMany,
	}, log)
	return s
}

func (s *BMCsService) cascade(ctx context.Context, doomed model.BMC) error {
	return s.cascadeMany(ctx, []model.BMC{doomed})
}

func (s *BMCsService) cascadeMany(ctx context.Context, doomed []model.BMC) error {
	_, err := s.nodes.UpdateMany(ctx,
		store.QuerySpec{Where: store.NodeClause.WithBMCIDs(entityIDs(doomed))},
		model.NewNodeBuilder().WithoutBMC(),
	)
	return err
}

// VMClustersService manages VM clusters.
type VMClustersService struct {
	*Service[model.VMCluster]
}

// NewVMClustersService wires the VM clusters service.
func NewVMClustersService(vmClusters *store.VMClustersRepository, log zerolog.Logger) *VMClustersService {
	return &VMClustersService{NewService[model.VMCluster](vmClusters, Hooks[model.VMCluster]{}, log)}
}
