package pgengine

import (
	"context"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// YamlChainConfig represents an exported chain execution config
type YamlChainConfig struct {
	ID                       int64     `yaml:"id"`
	Name                     string    `yaml:"name"`
	Schedule                 string    `yaml:"schedule"`
	MaxInstances             *int32    `yaml:"max_instances,omitempty"`
	Live                     bool      `yaml:"live"`
	SelfDestruct             bool      `yaml:"self_destruct,omitempty"`
	ExclusiveExecution       bool      `yaml:"exclusive_execution,omitempty"`
	ExcludedExecutionConfigs []int32   `yaml:"excluded_execution_configs,omitempty"`
	ClientName               string    `yaml:"client_name,omitempty"`
	Chain                    *YamlLink `yaml:"chain,omitempty"`
}

// YamlLink represents a chain link with its task, parameters and successors
type YamlLink struct {
	ChainID            int64       `yaml:"chain_id"`
	TaskName           string      `yaml:"task"`
	Kind               string      `yaml:"kind"`
	Script             string      `yaml:"script,omitempty"`
	RunUID             string      `yaml:"run_uid,omitempty"`
	DatabaseConnection *int64      `yaml:"database_connection,omitempty"`
	IgnoreError        bool        `yaml:"ignore_error,omitempty"`
	Parameters         []any       `yaml:"parameters,omitempty"`
	Next               []*YamlLink `yaml:"next,omitempty"`
}

// YamlConfig represents the root YAML document
type YamlConfig struct {
	Configs []YamlChainConfig `yaml:"chain_execution_configs"`
}

func newYamlLink(n *ChainNode) *YamlLink {
	l := &YamlLink{
		ChainID:     n.ChainID,
		TaskName:    n.Task.Name,
		Kind:        n.Task.Kind,
		Script:      n.Task.Script.String,
		RunUID:      n.RunUID.String,
		IgnoreError: n.IgnoreError,
	}
	if n.DatabaseConnection.Valid {
		l.DatabaseConnection = &n.DatabaseConnection.Int64
	}
	for _, p := range n.Parameters {
		var v any
		if p.Value.Valid && json.Unmarshal([]byte(p.Value.String), &v) != nil {
			v = p.Value.String
		}
		l.Parameters = append(l.Parameters, v)
	}
	for _, child := range n.Children {
		l.Next = append(l.Next, newYamlLink(child))
	}
	return l
}

// NewYamlChainConfig converts config details into the export representation
func NewYamlChainConfig(d *ChainConfigDetails) YamlChainConfig {
	c := YamlChainConfig{
		ID:                       d.ConfigID,
		Name:                     d.ChainName,
		Schedule:                 d.CronExpression(),
		Live:                     d.Live,
		SelfDestruct:             d.SelfDestruct,
		ExclusiveExecution:       d.ExclusiveExecution,
		ExcludedExecutionConfigs: d.ExcludedExecutionConfigs,
		ClientName:               d.ClientName.String,
	}
	if d.MaxInstances.Valid {
		c.MaxInstances = &d.MaxInstances.Int32
	}
	if d.Chain != nil {
		c.Chain = newYamlLink(d.Chain)
	}
	return c
}

// ExportChainConfig returns the config with its chain tree as YAML document
func (pge *PgEngine) ExportChainConfig(ctx context.Context, configID int64) ([]byte, error) {
	d, err := pge.GetChainConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(YamlConfig{Configs: []YamlChainConfig{NewYamlChainConfig(d)}})
}
