package compose

import "gopkg.in/yaml.v3"

// =============================================================================
// Document Types
// =============================================================================

// Document is the synthesized Compose file: container declarations plus the
// document-level named volumes and networks, each declared exactly once.
type Document struct {
	Services map[string]Service `yaml:"services"`
	Networks map[string]Network `yaml:"networks,omitempty"`
	Volumes  map[string]Volume  `yaml:"volumes,omitempty"`
}

// Service is one merged container declaration.
type Service struct {
	Image         string               `yaml:"image"`
	ContainerName string               `yaml:"container_name,omitempty"`
	Restart       string               `yaml:"restart,omitempty"`
	Command       []string             `yaml:"command,omitempty"`
	Entrypoint    []string             `yaml:"entrypoint,omitempty"`
	Ports         []string             `yaml:"ports,omitempty"`
	Environment   map[string]string    `yaml:"environment,omitempty"`
	Volumes       []string             `yaml:"volumes,omitempty"`
	Networks      []string             `yaml:"networks,omitempty"`
	Labels        []string             `yaml:"labels,omitempty"`
	DependsOn     map[string]DependsOn `yaml:"depends_on,omitempty"`
	Healthcheck   *Healthcheck         `yaml:"healthcheck,omitempty"`
	CapAdd        []string             `yaml:"cap_add,omitempty"`
	Devices       []string             `yaml:"devices,omitempty"`
}

// DependsOn is a startup-ordering edge with its readiness condition.
type DependsOn struct {
	Condition string `yaml:"condition"`
}

// Readiness conditions for depends_on edges.
const (
	ConditionStarted = "service_started"
	ConditionHealthy = "service_healthy"
)

// Healthcheck mirrors the compose healthcheck block.
type Healthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// Network is a document-level network declaration.
type Network struct {
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}

// Volume is a document-level named volume declaration.
type Volume struct {
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}

// Marshal serializes the document to Compose YAML. Map keys serialize in
// sorted order, so output is byte-stable for identical inputs.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
