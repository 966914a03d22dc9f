package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DestinationType selects the delivery channel for an agent.
type DestinationType string

const (
	// DestinationLocal routes messages to an in-process agent handle.
	DestinationLocal DestinationType = "local"
	// DestinationRemote routes messages to an HTTP endpoint.
	DestinationRemote DestinationType = "remote"
	// DestinationBackend is the legacy spelling of DestinationLocal accepted on message requests.
	DestinationBackend DestinationType = "backend"
)

// IsRemote reports whether the destination is the remote channel.
func (d DestinationType) IsRemote() bool {
	return DestinationType(strings.ToLower(string(d))) == DestinationRemote
}

// Status is the derived deployment state of a registered agent.
type Status string

const (
	StatusPending  Status = "pending"
	StatusDeployed Status = "deployed"
	StatusError    Status = "error"
)

// ToolRef references a tool either by built-in name or by an opaque structured
// descriptor. On the wire it is a JSON string or a JSON object respectively.
type ToolRef struct {
	Name       string
	Descriptor map[string]any
}

// ToolName returns the reference's name; for descriptors the "name" key is used when present.
func (r ToolRef) ToolName() string {
	if r.Descriptor == nil {
		return r.Name
	}
	if n, ok := r.Descriptor["name"].(string); ok {
		return n
	}
	return ""
}

// IsDescriptor reports whether the reference is a structured descriptor.
func (r ToolRef) IsDescriptor() bool { return r.Descriptor != nil }

// MarshalJSON implements json.Marshaler.
func (r ToolRef) MarshalJSON() ([]byte, error) {
	if r.Descriptor != nil {
		return json.Marshal(r.Descriptor)
	}
	return json.Marshal(r.Name)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ToolRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty tool reference")
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.Name)
	case '{':
		return json.Unmarshal(data, &r.Descriptor)
	default:
		return fmt.Errorf("tool reference must be a string or an object")
	}
}

// UnmarshalYAML accepts the same two shapes from configuration files.
func (r *ToolRef) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		r.Name = name
		return nil
	}
	return unmarshal(&r.Descriptor)
}

// AgentConfig is the declarative description of an agent.
type AgentConfig struct {
	ID              string            `json:"id" yaml:"id"`
	Name            string            `json:"name" yaml:"name"`
	DestinationType DestinationType   `json:"destinationType" yaml:"destinationType"`
	Provider        string            `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model           string            `json:"model,omitempty" yaml:"model,omitempty"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	Instructions    string            `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Tools           []ToolRef         `json:"tools,omitempty" yaml:"tools,omitempty"`
	Prompts         map[string]string `json:"prompts,omitempty" yaml:"prompts,omitempty"`
	SubAgents       []string          `json:"subAgents,omitempty" yaml:"subAgents,omitempty"`
	RemoteURL       string            `json:"remoteUrl,omitempty" yaml:"remoteUrl,omitempty"`

	Status       Status    `json:"status" yaml:"-"`
	StatusDetail string    `json:"statusDetail,omitempty" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero" yaml:"-"`
}

// IsRemote reports whether the configuration describes a remote agent.
func (c AgentConfig) IsRemote() bool { return c.DestinationType.IsRemote() }

// Validate checks the structural invariants of a configuration. Any non-empty
// destination type other than remote is accepted and treated as local.
func (c AgentConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Value: c.ID, Message: "name is required"}
	}
	if c.DestinationType == "" {
		return &ValidationError{Field: "destinationType", Message: "destinationType is required"}
	}
	if c.IsRemote() {
		if strings.TrimSpace(c.RemoteURL) == "" {
			return &ValidationError{Field: "remoteUrl", Message: "remoteUrl is required for remote agents"}
		}
		if err := validateRemoteURL(c.RemoteURL); err != nil {
			return err
		}
		return nil
	}
	if c.RemoteURL != "" {
		return &ValidationError{Field: "remoteUrl", Value: c.RemoteURL, Message: "remoteUrl is only allowed for remote agents"}
	}
	return nil
}

// Clone returns a deep copy so stored configurations cannot be mutated by callers.
func (c AgentConfig) Clone() AgentConfig {
	out := c
	if c.Tools != nil {
		out.Tools = make([]ToolRef, len(c.Tools))
		for i, t := range c.Tools {
			out.Tools[i] = t
			if t.Descriptor != nil {
				d := make(map[string]any, len(t.Descriptor))
				for k, v := range t.Descriptor {
					d[k] = v
				}
				out.Tools[i].Descriptor = d
			}
		}
	}
	if c.Prompts != nil {
		out.Prompts = make(map[string]string, len(c.Prompts))
		for k, v := range c.Prompts {
			out.Prompts[k] = v
		}
	}
	if c.SubAgents != nil {
		out.SubAgents = append([]string(nil), c.SubAgents...)
	}
	return out
}

func validateRemoteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "remoteUrl", Value: raw, Message: "remoteUrl must be an absolute http(s) URL"}
	}
	return nil
}
