// Package types provides domain models shared across rulesynth components.
//
// Schema metadata (Schema, ChannelMeta, FullMeta) describes what devices can
// do; the rule model (Rule, Invocation, Filter) is what the synthesizer emits.
// Both serialize with encoding/json so the CLI can stream rules as JSON lines.
package types

// ChannelKind names the three channel families a schema exposes.
type ChannelKind string

const (
	ChannelTriggers ChannelKind = "triggers"
	ChannelQueries  ChannelKind = "queries"
	ChannelActions  ChannelKind = "actions"
)

// Domains recognised for weighted sampling.
const (
	DomainMedia          = "media"
	DomainHome           = "home"
	DomainSocialNetwork  = "social-network"
	DomainCommunication  = "communication"
	DomainDataManagement = "data-management"
	DomainHealth         = "health"
	DomainService        = "service"
)

// Schema is one approved device schema.
// Domain is empty for schemas whose device class carries no known domain.
type Schema struct {
	Kind     string `db:"kind" json:"kind"`
	KindType string `db:"kind_type" json:"kind_type"`
	Domain   string `db:"domain" json:"domain,omitempty"`
}

// ChannelMeta describes one trigger, query or action of a schema.
// Args, Types and Required are parallel slices.
type ChannelMeta struct {
	Kind     string   `json:"kind"`
	Name     string   `json:"name"`
	Args     []string `json:"args"`
	Types    []string `json:"schema"`
	Required []bool   `json:"required"`
}

// ArgType parses the declared type of argument i.
func (c *ChannelMeta) ArgType(i int) (Type, error) {
	return ParseType(c.Types[i])
}

// IsRequired reports whether argument i is required. Missing flags count as optional.
func (c *ChannelMeta) IsRequired(i int) bool {
	return i < len(c.Required) && c.Required[i]
}

// FullMeta holds every channel of a schema keyed by channel name.
type FullMeta struct {
	Kind     string
	Triggers map[string]*ChannelMeta
	Queries  map[string]*ChannelMeta
	Actions  map[string]*ChannelMeta
}

// NewFullMeta returns an empty FullMeta for kind.
func NewFullMeta(kind string) *FullMeta {
	return &FullMeta{
		Kind:     kind,
		Triggers: make(map[string]*ChannelMeta),
		Queries:  make(map[string]*ChannelMeta),
		Actions:  make(map[string]*ChannelMeta),
	}
}

// Channels returns the channel map for ck, or nil for an unknown kind.
func (m *FullMeta) Channels(ck ChannelKind) map[string]*ChannelMeta {
	switch ck {
	case ChannelTriggers:
		return m.Triggers
	case ChannelQueries:
		return m.Queries
	case ChannelActions:
		return m.Actions
	default:
		return nil
	}
}
