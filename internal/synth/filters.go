package synth

import (
	"strings"

	"github.com/solatis/rulesynth/internal/types"
)

// Filter operators. The empty operator means "leave unset".
const (
	opIs       = "is"
	opContains = "contains"
	opGreater  = ">"
	opLess     = "<"
	opHas      = "has"
	opNone     = ""
)

var (
	numberOps = []weighted{{opIs, 0.5}, {opGreater, 1}, {opLess, 1}, {opNone, 2}}
	arrayOps  = []weighted{{opHas, 1}, {opNone, 2}}
	stringOps = []weighted{{opIs, 1}, {opContains, 1}, {opNone, 2}}
	otherOps  = []weighted{{opIs, 1}, {opNone, 2}}
)

// set is a string membership table.
type set map[string]struct{}

func newSet(xs ...string) set {
	s := make(set, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

func (s set) has(x string) bool {
	_, ok := s[x]
	return ok
}

var (
	// optionalBlacklist params are never filtered unless required.
	optionalBlacklist = newSet(
		"company_name", "weather", "currency_code", "orbiting_body",
		"home_name", "away_name", "home_alias", "away_alias",
		"watched_is_home", "scheduled_time", "game_status",
		"home_points", "away_points",
		"day",
		"bearing", "updateTime",
		"deep", "light", "rem", "awakeTime", "asleepTime",
		"yield", "div", "pay_date", "ex_div_date",
		"cloudiness", "fog",
		"formatted_name", "headline",
		"video_id",
		"image_id",
		"__reserved",
		"uber_type",
		"count",
		"timestamp",
		"last_modified", "full_path", "total",
		"estimated_diameter_min", "estimated_diameter_max",
		"translated_text",
		"sunset", "sunrise",
		"name",
	)

	opIsParams      = newSet("filter", "source_language", "target_language", "detected_language", "from_name", "uber_type")
	opContainParams = newSet("snippet")
	opGreaterParams = newSet("file_size")

	// rhsBlacklist params never receive a value passed from another invocation.
	rhsBlacklist = newSet("file_name", "new_name", "old_name", "folder_name", "repo_name", "home_name", "away_name", "purpose")
	// lhsBlacklist params are never passed on to another invocation.
	lhsBlacklist = newSet("orbiting_body", "camera_used")
)

// opDistribution returns the operator weights for filtering on t.
func opDistribution(t types.Type) []weighted {
	switch t.Kind {
	case types.TypeNumber, types.TypeMeasure:
		return numberOps
	case types.TypeArray:
		return arrayOps
	case types.TypeString:
		return stringOps
	default:
		return otherOps
	}
}

// skipParam reports whether parameter i of meta never gets a constant.
func skipParam(meta *types.ChannelMeta, i int, t types.Type) bool {
	name := meta.Args[i]
	required := meta.IsRequired(i)

	if t.Kind == types.TypeEntity {
		if t.Entity == "tt:picture" {
			return true
		}
		if t.Entity == "tt:url" && !required {
			return true
		}
	}
	switch {
	case strings.HasPrefix(name, "__"):
		return true
	case strings.HasSuffix(name, "_id") && name != "stock_id":
		return true
	case !required && optionalBlacklist.has(name):
		return true
	case strings.HasPrefix(name, "tournament"):
		return true
	}
	return false
}

// applyFilters builds the invocation for meta, binding a random subset of
// its parameters to constants. Actions fill every parameter with "is".
func (g *Generator) applyFilters(meta *types.ChannelMeta, isAction bool) *types.Invocation {
	if meta == nil {
		return nil
	}

	inv := &types.Invocation{
		Name: types.Name{ID: types.ChannelID(meta.Kind, meta.Name)},
		Args: []types.Filter{},
	}

	for i, name := range meta.Args {
		t, err := meta.ArgType(i)
		if err != nil {
			g.logger.Warn("skipping parameter with invalid type",
				"channel", inv.Name.ID, "arg", name, "error", err)
			continue
		}
		if skipParam(meta, i, t) {
			continue
		}

		valueType, value, ok := g.chooseValue(name, t)
		if !ok {
			continue
		}

		if meta.IsRequired(i) || isAction {
			if coin(g.rng, 0.9) {
				inv.Args = append(inv.Args, newFilter(name, opIs, valueType, value))
			}
			continue
		}

		if t.Kind != types.TypeEnum && !coin(g.rng, 0.6) {
			continue
		}

		var op string
		switch {
		case opIsParams.has(name):
			op = opIs
		case opContainParams.has(name):
			op = opContains
		case opGreaterParams.has(name):
			op = opGreater
		default:
			op = sample(g.rng, opDistribution(t))
		}
		if op == opNone {
			continue
		}
		inv.Args = append(inv.Args, newFilter(name, op, valueType, value))
	}

	return inv
}

func newFilter(arg, op, valueType string, value any) types.Filter {
	return types.Filter{
		Name:     types.Name{ID: types.ParamID(arg)},
		Operator: op,
		Type:     valueType,
		Value:    value,
	}
}
