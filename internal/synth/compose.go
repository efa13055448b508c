package synth

import (
	"strings"

	"github.com/solatis/rulesynth/internal/types"
)

// eventParam is the pseudo-parameter carrying the whole event text.
const eventParam = "$event"

// applyComposition passes output parameters of from into unset parameters of
// to as VarRef filters. Passing into an action or a required parameter uses
// "is" and needs identical types; optional query parameters may also use the
// comparison operators of the type, or "has" for arrays of it.
func (g *Generator) applyComposition(from *types.Invocation, fromMeta *types.ChannelMeta, to *types.Invocation, toMeta *types.ChannelMeta, isAction bool) {
	usedFrom := make(set)
	for _, a := range from.Args {
		if a.Operator == opIs {
			usedFrom[a.Name.ID] = struct{}{}
		}
	}
	usedTo := make(set)
	for _, a := range to.Args {
		usedTo[a.Name.ID] = struct{}{}
	}

	type candidate struct {
		name string
		typ  types.Type
	}
	var sources []candidate
	for i, name := range fromMeta.Args {
		switch {
		case fromMeta.IsRequired(i),
			usedFrom.has(types.ParamID(name)),
			strings.HasPrefix(name, "__"),
			strings.HasSuffix(name, "_id"),
			lhsBlacklist.has(name):
			continue
		}
		t, err := fromMeta.ArgType(i)
		if err != nil {
			continue
		}
		sources = append(sources, candidate{name, t})
	}

	for i, toArg := range toMeta.Args {
		if usedTo.has(types.ParamID(toArg)) || strings.HasPrefix(toArg, "__") || rhsBlacklist.has(toArg) {
			continue
		}
		toType, err := toMeta.ArgType(i)
		if err != nil || toType.Kind == types.TypeNumber {
			continue
		}

		dist := []weighted{{"", 0.5}}
		for _, src := range sources {
			if toMeta.IsRequired(i) || isAction {
				if src.typ.Equal(toType) {
					dist = append(dist, weighted{src.name + "+" + opIs, 1})
				}
				continue
			}
			if toType.Kind == types.TypeArray && toType.Elem != nil && src.typ.Equal(*toType.Elem) {
				dist = append(dist, weighted{src.name + "+" + opHas, 1})
				continue
			}
			if src.typ.Equal(toType) {
				ops := opDistribution(src.typ)
				sum := 0.0
				for _, w := range ops {
					sum += w.weight
				}
				for _, w := range ops {
					if w.key == opNone {
						continue
					}
					dist = append(dist, weighted{src.name + "+" + w.key, w.weight / sum})
				}
			}
		}
		if toType.Kind == types.TypeString && (toArg == "message" || toArg == "status") {
			dist = append(dist, weighted{eventParam + "+" + opIs, 0.1})
		}

		chosen := sample(g.rng, dist)
		if chosen == "" {
			continue
		}
		src, op, _ := strings.Cut(chosen, "+")
		to.Args = append(to.Args, types.Filter{
			Name:     types.Name{ID: types.ParamID(toArg)},
			Operator: op,
			Type:     valueVarRef,
			Value:    types.Name{ID: types.ParamID(src)},
		})
	}
}
