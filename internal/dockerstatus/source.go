package dockerstatus

import (
	"context"

	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
)

type SourceType string

const (
	SourceTypeRemote       SourceType = "REMOTE"
	SourceTypeDockerEngine SourceType = "DOCKER_ENGINE"
)

// Source produces status snapshots.
type Source interface {
	Type() SourceType
	Fetch(ctx context.Context) (*Snapshot, error)
}

type StatusClient interface {
	DockerStatus(ctx context.Context) (*webloaderapi.DockerStatus, error)
}

// RemoteSource asks the WebLoader backend for the container status.
type RemoteSource struct {
	cli StatusClient
}

func NewRemoteSource(cli StatusClient) *RemoteSource {
	return &RemoteSource{cli: cli}
}

func (s *RemoteSource) Type() SourceType {
	return SourceTypeRemote
}

func (s *RemoteSource) Fetch(ctx context.Context) (*Snapshot, error) {
	status, err := s.cli.DockerStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch docker status")
	}

	return FromAPI(status), nil
}
