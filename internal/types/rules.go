// internal/types/rules.go
package types

/*
 * Rule output model.
 *
 * A synthesized Rule is up to three invocations (trigger, query, action),
 * each a channel name plus filters. Filters either bind a constant
 * (Type = "String", "Number", ...) or reference an output parameter of an
 * earlier invocation (Type = "VarRef", Value = Name{ID: "tt:param.<arg>"}).
 *
 * Key types:
 *   - Rule: one generated rule, nil invocations are omitted
 *   - Invocation: channel id "tt:<kind>.<channel>" plus filters
 *   - Filter: parameter, operator, value type and value
 *   - Name: {"id": ...} wrapper used for channel and parameter ids
 */

// Name wraps an identifier the way the rule format expects: {"id": "..."}.
type Name struct {
	ID string `json:"id"`
}

// Filter is one parameter constraint of an invocation.
type Filter struct {
	Name     Name   `json:"name"`
	Operator string `json:"operator"`
	Type     string `json:"type"`
	Value    any    `json:"value"`
}

// Invocation is one channel call of a rule.
type Invocation struct {
	Name Name     `json:"name"`
	Args []Filter `json:"args"`
}

// HasVarRef reports whether any filter references another invocation.
func (inv *Invocation) HasVarRef() bool {
	if inv == nil {
		return false
	}
	for _, a := range inv.Args {
		if a.Type == "VarRef" {
			return true
		}
	}
	return false
}

// Rule is one synthesized rule.
type Rule struct {
	ID      RuleID      `json:"id"`
	Trigger *Invocation `json:"trigger,omitempty"`
	Query   *Invocation `json:"query,omitempty"`
	Action  *Invocation `json:"action,omitempty"`
}

// ParamID formats the id of parameter arg.
func ParamID(arg string) string {
	return "tt:param." + arg
}

// ChannelID formats the id of channel name on kind.
func ChannelID(kind, name string) string {
	return "tt:" + kind + "." + name
}
