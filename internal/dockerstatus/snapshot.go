package dockerstatus

import (
	"sort"
	"time"

	"github.com/webloader/dashboard/pkg/webloaderapi"
)

type ServiceState string

const (
	StateRunning  ServiceState = "running"
	StateStopped  ServiceState = "stopped"
	StateNotFound ServiceState = "not_found"
)

// PipelineServices are the containers of the WebLoader pipeline in display order.
var PipelineServices = []string{"mysql", "namenode", "spark", "datanode", "resourcemanager"}

type Service struct {
	Name string `json:"name"`

	// RawStatus is the status reported by Docker, e.g. "exited" or "docker_unavailable".
	RawStatus string       `json:"status"`
	State     ServiceState `json:"state"`
	Running   bool         `json:"running"`
	ID        string       `json:"id,omitempty"`
}

// Snapshot is the status of the pipeline containers at some moment.
// Snapshots are never patched, every poll produces a new one.
type Snapshot struct {
	DockerAvailable bool               `json:"docker_available"`
	Services        map[string]Service `json:"services"`
	Timestamp       time.Time          `json:"timestamp"`
}

// NormalizeState folds raw Docker statuses into the three states the dashboard displays.
func NormalizeState(raw string, running bool) ServiceState {
	switch {
	case running:
		return StateRunning
	case raw == string(StateNotFound):
		return StateNotFound
	default:
		return StateStopped
	}
}

func FromAPI(status *webloaderapi.DockerStatus) *Snapshot {
	snap := &Snapshot{
		DockerAvailable: status.DockerAvailable,
		Services:        make(map[string]Service, len(status.Services)),
		Timestamp:       status.Timestamp.Time,
	}

	for key, s := range status.Services {
		name := s.Name
		if name == "" {
			name = key
		}

		snap.Services[key] = Service{
			Name:      name,
			RawStatus: s.Status,
			State:     NormalizeState(s.Status, s.Running),
			Running:   s.Running,
			ID:        s.ID,
		}
	}

	return snap
}

// OrderedServices returns the pipeline services first, in pipeline order,
// followed by any other service sorted by name.
func (s *Snapshot) OrderedServices() []Service {
	if s == nil {
		return nil
	}

	rank := make(map[string]int, len(PipelineServices))
	for i, name := range PipelineServices {
		rank[name] = i
	}

	keys := make([]string, 0, len(s.Services))
	for key := range s.Services {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]

		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})

	services := make([]Service, 0, len(keys))
	for _, key := range keys {
		services = append(services, s.Services[key])
	}

	return services
}

// Running returns whether each service is running.
func (s *Snapshot) Running() map[string]bool {
	running := make(map[string]bool, len(s.Services))
	for key, svc := range s.Services {
		running[key] = svc.Running
	}

	return running
}
