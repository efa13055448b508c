package synth

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/solatis/rulesynth/internal/types"
)

// Sampling policies for choosing the schema of each invocation.
const (
	PolicyUniform           = "uniform"
	PolicyUniformFixedKinds = "uniform-fixed-kinds"
	PolicyTest              = "test"
	PolicyWeightedDomain    = "weighted-domain"
	policyOnlyPrefix        = "only-"
)

// OnlyPolicy returns the policy that pins one invocation of every rule to kind.
func OnlyPolicy(kind string) string {
	return policyOnlyPrefix + kind
}

// ValidatePolicy returns types.ErrUnknownPolicy for unrecognised policies.
func ValidatePolicy(policy string) error {
	switch policy {
	case PolicyUniform, PolicyUniformFixedKinds, PolicyTest, PolicyWeightedDomain:
		return nil
	}
	if kind, ok := onlyKind(policy); ok && kind != "" {
		return nil
	}
	return fmt.Errorf("%w: %s", types.ErrUnknownPolicy, policy)
}

func onlyKind(policy string) (string, bool) {
	return strings.CutPrefix(policy, policyOnlyPrefix)
}

var fixedKinds = []string{
	"washington_post", "sportradar", "giphy", "yahoofinance", "nasa",
	"twitter", "facebook", "instagram", "linkedin", "youtube",
	"lg_webos_tv", "light-bulb", "thermostat", "security-camera", "heatpad",
	"phone", "omlet", "slack", "gmail", "thecatapi",
}

var testKinds = []string{"sportradar", "slack", "phone"}

var domainWeights = []weighted{
	{types.DomainMedia, 100},
	{types.DomainHome, 54},
	{types.DomainSocialNetwork, 70},
	{types.DomainCommunication, 57},
	{types.DomainDataManagement, 38},
	{types.DomainHealth, 26},
	{types.DomainService, 59},
}

// kindDomains assigns a domain to kinds whose device class carries none.
var kindDomains = map[string]string{
	"heatpad":           types.DomainHome,
	"car":               types.DomainHome,
	"security-camera":   types.DomainHome,
	"speaker":           types.DomainHome,
	"light-bulb":        types.DomainHome,
	"smoke-alarm":       types.DomainHome,
	"thermostat":        types.DomainHome,
	"tumblr-blog":       types.DomainSocialNetwork,
	"scale":             types.DomainHealth,
	"activity-tracker":  types.DomainHealth,
	"fitness-tracker":   types.DomainHealth,
	"heartrate-monitor": types.DomainHealth,
	"sleep-tracker":     types.DomainHealth,
}

// schemaDomain resolves the sampling domain of s, defaulting to service.
func schemaDomain(s types.Schema) string {
	if s.Domain != "" {
		return s.Domain
	}
	if d, ok := kindDomains[s.Kind]; ok {
		return d
	}
	return types.DomainService
}

// chooseSchema picks the kind of the next invocation under policy.
func chooseSchema(rng *rand.Rand, schemas []types.Schema, policy string) (string, error) {
	if kind, ok := onlyKind(policy); ok {
		return kind, nil
	}

	switch policy {
	case PolicyUniform:
		if len(schemas) == 0 {
			return "", types.ErrNoSchemas
		}
		return uniform(rng, schemas).Kind, nil
	case PolicyUniformFixedKinds:
		return uniform(rng, fixedKinds), nil
	case PolicyTest:
		return uniform(rng, testKinds), nil
	case PolicyWeightedDomain:
		byDomain := make(map[string][]types.Schema)
		for _, s := range schemas {
			d := schemaDomain(s)
			byDomain[d] = append(byDomain[d], s)
		}
		// Only domains that actually hold schemas are eligible.
		dist := make([]weighted, 0, len(domainWeights))
		for _, w := range domainWeights {
			if len(byDomain[w.key]) > 0 {
				dist = append(dist, w)
			}
		}
		domain := sample(rng, dist)
		if domain == "" {
			return "", types.ErrNoSchemas
		}
		return uniform(rng, byDomain[domain]).Kind, nil
	default:
		return "", fmt.Errorf("%w: %s", types.ErrUnknownPolicy, policy)
	}
}
