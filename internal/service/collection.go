package service

import (
	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/store"
)

// Collection bundles every service behind one constructor so request
// handlers and workflow activities get a fully-wired graph. Services and
// repositories are stateless apart from their caches; one collection serves
// the whole process.
type Collection struct {
	Zones         *ZonesService
	ResourcePools *ResourcePoolsService
	Users         *UsersService
	Nodes         *NodesService
	BMCs          *BMCsService
	VMClusters    *VMClustersService
	Agents        *AgentsService
	Notifications *NotificationsService
	Workflows     *WorkflowEnqueuer

	Caches *CacheRegistry
}

// NewCollection wires every repository and service.
func NewCollection(keys SigningKeySource, log zerolog.Logger) *Collection {
	caches := NewCacheRegistry()

	zones := store.NewZonesRepository()
	pools := store.NewResourcePoolsRepository()
	users := store.NewUsersRepository()
	profiles := store.NewUserProfilesRepository()
	nodes := store.NewNodesRepository()
	bmcs := store.NewBMCsRepository()
	vmClusters := store.NewVMClustersRepository()
	agents := store.NewAgentsRepository()
	certificates := store.NewCertificatesRepository()
	notifications := store.NewNotificationsRepository()
	dismissals := store.NewDismissalsRepository()
	outbox := store.NewOutboxRepository()

	workflows := NewWorkflowEnqueuer(outbox, log.With().Str("component", "workflows").Logger())

	return &Collection{
		Zones: NewZonesService(zones, nodes, bmcs, vmClusters, workflows, caches,
			log.With().Str("component", "zones").Logger()),
		ResourcePools: NewResourcePoolsService(pools, nodes, caches,
			log.With().Str("component", "resourcepools").Logger()),
		Users: NewUsersService(users, profiles, nodes, dismissals,
			log.With().Str("component", "users").Logger()),
		Nodes: NewNodesService(nodes, workflows,
			log.With().Str("component", "nodes").Logger()),
		BMCs: NewBMCsService(bmcs, nodes,
			log.With().Str("component", "bmcs").Logger()),
		VMClusters: NewVMClustersService(vmClusters,
			log.With().Str("component", "vmclusters").Logger()),
		Agents: NewAgentsService(agents, certificates, workflows, keys, caches,
			log.With().Str("component", "agents").Logger()),
		Notifications: NewNotificationsService(notifications, dismissals,
			log.With().Str("component", "notifications").Logger()),
		Workflows: workflows,
		Caches:    caches,
	}
}

// Close flushes every service cache.
func (c *Collection) Close() {
	c.Caches.Close()
}
