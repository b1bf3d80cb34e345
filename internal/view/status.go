package view

import (
	"time"

	"github.com/webloader/dashboard/internal/dockerstatus"
)

type ServiceClass string

const (
	ServiceRunning ServiceClass = "running"
	ServiceStopped ServiceClass = "stopped"
	ServiceUnknown ServiceClass = "unknown"
)

type serviceInfo struct {
	name string
	icon string
}

var knownServices = map[string]serviceInfo{
	"mysql":           {name: "MySQL", icon: "fas fa-database"},
	"namenode":        {name: "Hadoop NameNode", icon: "fas fa-server"},
	"spark":           {name: "Spark Master", icon: "fas fa-fire"},
	"datanode":        {name: "Hadoop DataNode", icon: "fas fa-hdd"},
	"resourcemanager": {name: "YARN ResourceManager", icon: "fas fa-layer-group"},
}

const defaultServiceIcon = "fas fa-cog"

var indicatorText = map[dockerstatus.Indicator]string{
	dockerstatus.IndicatorChecking:     "Checking Docker...",
	dockerstatus.IndicatorConnected:    "Docker Connected",
	dockerstatus.IndicatorDisconnected: "Docker Unavailable",
	dockerstatus.IndicatorError:        "Connection Error",
}

type ServiceCard struct {
	Key    string       `json:"key" yaml:"key"`
	Name   string       `json:"name" yaml:"name"`
	Icon   string       `json:"icon" yaml:"icon"`
	Class  ServiceClass `json:"class" yaml:"class"`
	Label  string       `json:"label" yaml:"label"`
	Status string       `json:"status" yaml:"status"`
	ID     string       `json:"id,omitempty" yaml:"id,omitempty"`
}

// StatusView is the Docker indicator and the service grid.
type StatusView struct {
	Indicator       dockerstatus.Indicator `json:"indicator" yaml:"indicator"`
	Text            string                 `json:"text" yaml:"text"`
	DockerAvailable bool                   `json:"docker_available" yaml:"docker_available"`
	Services        []ServiceCard          `json:"services" yaml:"services"`
	UpdatedAt       *time.Time             `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	CheckedAt       *time.Time             `json:"checked_at,omitempty" yaml:"checked_at,omitempty"`
	Error           string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

func NewStatusView(state dockerstatus.State) StatusView {
	indicator := state.Indicator()

	v := StatusView{
		Indicator:       indicator,
		Text:            indicatorText[indicator],
		DockerAvailable: state.DockerAvailable(),
		Services:        []ServiceCard{},
	}

	if !state.CheckedAt.IsZero() {
		checked := state.CheckedAt
		v.CheckedAt = &checked
	}

	if state.Err != nil {
		v.Error = state.Err.Error()
	}

	if state.Snapshot == nil {
		return v
	}

	if !state.Snapshot.Timestamp.IsZero() {
		ts := state.Snapshot.Timestamp
		v.UpdatedAt = &ts
	}

	for _, svc := range state.Snapshot.OrderedServices() {
		v.Services = append(v.Services, NewServiceCard(svc))
	}

	return v
}

func NewServiceCard(svc dockerstatus.Service) ServiceCard {
	info, ok := knownServices[svc.Name]
	if !ok {
		info = serviceInfo{name: svc.Name, icon: defaultServiceIcon}
	}

	card := ServiceCard{
		Key:    svc.Name,
		Name:   info.name,
		Icon:   info.icon,
		Status: svc.RawStatus,
		ID:     svc.ID,
	}

	switch {
	case svc.Running:
		card.Class, card.Label = ServiceRunning, "Running"
	case svc.State == dockerstatus.StateNotFound:
		card.Class, card.Label = ServiceUnknown, "Not found"
	default:
		card.Class, card.Label = ServiceStopped, "Stopped"
	}

	return card
}
