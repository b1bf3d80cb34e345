package dockerstatus

import (
	"context"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockercli "github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const shortIDLength = 12

// StatusDockerUnavailable is reported for every service when the daemon does not answer.
const StatusDockerUnavailable = "docker_unavailable"

type engineAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// EngineSource inspects the pipeline containers through the Docker Engine API directly,
// without going through the WebLoader backend.
type EngineSource struct {
	logger   zerolog.Logger
	engine   engineAPI
	services []string
}

// NewEngineSource connects to the daemon at daemonURL, or to the one configured
// by the DOCKER_* environment variables when daemonURL is nil.
func NewEngineSource(logger zerolog.Logger, daemonURL *string, services []string) (*EngineSource, error) {
	opts := []dockercli.Opt{dockercli.FromEnv, dockercli.WithAPIVersionNegotiation()}
	if daemonURL != nil {
		opts = append(opts, dockercli.WithHost(*daemonURL))
	}

	cli, err := dockercli.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}

	return newEngineSource(logger, cli, services), nil
}

func newEngineSource(logger zerolog.Logger, engine engineAPI, services []string) *EngineSource {
	if len(services) == 0 {
		services = PipelineServices
	}

	return &EngineSource{
		logger:   logger.With().Str("source", string(SourceTypeDockerEngine)).Logger(),
		engine:   engine,
		services: services,
	}
}

func (s *EngineSource) Type() SourceType {
	return SourceTypeDockerEngine
}

// Fetch never fails because of the daemon: an unreachable daemon is reported
// as docker_available=false, a container that cannot be inspected as not_found.
func (s *EngineSource) Fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Services:  make(map[string]Service, len(s.services)),
		Timestamp: time.Now(),
	}

	_, err := s.engine.Ping(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("docker daemon is unavailable")

		for _, name := range s.services {
			snap.Services[name] = Service{
				Name:      name,
				RawStatus: StatusDockerUnavailable,
				State:     StateStopped,
			}
		}

		return snap, nil
	}

	snap.DockerAvailable = true

	for _, name := range s.services {
		snap.Services[name] = s.inspect(ctx, name)
	}

	return snap, nil
}

func (s *EngineSource) inspect(ctx context.Context, name string) Service {
	notFound := Service{
		Name:      name,
		RawStatus: string(StateNotFound),
		State:     StateNotFound,
	}

	inspect, err := s.engine.ContainerInspect(ctx, name)
	if err != nil {
		if !dockercli.IsErrNotFound(err) {
			s.logger.Warn().Err(err).Str("container", name).Msg("container inspect failed")
		}

		return notFound
	}

	if inspect.ContainerJSONBase == nil || inspect.State == nil {
		return notFound
	}

	id := inspect.ID
	if len(id) > shortIDLength {
		id = id[:shortIDLength]
	}

	return Service{
		Name:      name,
		RawStatus: string(inspect.State.Status),
		State:     NormalizeState(string(inspect.State.Status), inspect.State.Running),
		Running:   inspect.State.Running,
		ID:        id,
	}
}
