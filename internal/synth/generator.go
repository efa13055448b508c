// Package synth generates random rules from approved device schemas.
//
// A rule is one of a few composition forms (trigger+action, query+action,
// trigger+query). Each invocation is drawn from a schema chosen by the
// sampling policy, its parameters are bound to sample constants, and
// compatible outputs of earlier invocations are passed into later ones.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/solatis/rulesynth/internal/types"
)

// DefaultMaxAttempts bounds schema resampling per invocation.
const DefaultMaxAttempts = 100

// Retriever resolves the channel metadata of a schema kind.
type Retriever interface {
	FullMeta(ctx context.Context, kind string) (*types.FullMeta, error)
}

// Options configures a Generator.
type Options struct {
	Policy      string
	MaxAttempts int
	Rand        *rand.Rand
	Logger      *slog.Logger
}

// Result is one generated rule or the error that stopped generation.
type Result struct {
	Rule *types.Rule
	Err  error
}

// Generator synthesizes rules. Safe for concurrent use; calls are serialized
// so a seeded generator stays reproducible.
type Generator struct {
	mu          sync.Mutex
	retriever   Retriever
	schemas     []types.Schema
	policy      string
	maxAttempts int
	rng         *rand.Rand
	logger      *slog.Logger
}

// NewGenerator validates opts and returns a generator over schemas.
func NewGenerator(retriever Retriever, schemas []types.Schema, opts Options) (*Generator, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if err := ValidatePolicy(opts.Policy); err != nil {
		return nil, err
	}

	g := &Generator{
		retriever:   retriever,
		schemas:     schemas,
		policy:      opts.Policy,
		maxAttempts: opts.MaxAttempts,
		rng:         opts.Rand,
		logger:      opts.Logger,
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = DefaultMaxAttempts
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// form records which invocations a rule has.
type form struct {
	trigger, query, action bool
}

var compositionWeights = []weighted{
	{"trigger+action", 1.5},
	{"query+action", 1},
	{"trigger+query", 0.5},
	{"trigger+query+action", 0},
}

func parseForm(key string) form {
	var f form
	for _, part := range strings.Split(key, "+") {
		switch part {
		case "trigger":
			f.trigger = true
		case "query":
			f.query = true
		case "action":
			f.action = true
		}
	}
	return f
}

// chooseInvocation picks a channel of kind ck from a schema drawn under
// policy, resampling schemas that have none.
func (g *Generator) chooseInvocation(ctx context.Context, policy string, ck types.ChannelKind) (*types.ChannelMeta, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind, err := chooseSchema(g.rng, g.schemas, policy)
		if err != nil {
			return nil, err
		}
		meta, err := g.retriever.FullMeta(ctx, kind)
		if errors.Is(err, types.ErrSchemaNotFound) {
			if _, pinned := onlyKind(policy); pinned {
				return nil, err
			}
			g.logger.Debug("sampled kind has no approved schema", "kind", kind)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get schema %s: %w", kind, err)
		}

		channels := meta.Channels(ck)
		if len(channels) == 0 {
			continue
		}
		names := make([]string, 0, len(channels))
		for name := range channels {
			names = append(names, name)
		}
		slices.Sort(names)

		name := uniform(g.rng, names)
		ch := *channels[name]
		ch.Kind = kind
		ch.Name = name
		return &ch, nil
	}
	return nil, fmt.Errorf("%w: no %s found after %d schemas", types.ErrTooManyAttempts, ck, g.maxAttempts)
}

// chooseChannel picks which slot of f the pinned kind fills, among the slots
// it has channels for. Returns "" when it has none.
func (g *Generator) chooseChannel(ctx context.Context, kind string, f form) (types.ChannelKind, error) {
	meta, err := g.retriever.FullMeta(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("failed to get schema %s: %w", kind, err)
	}

	var options []types.ChannelKind
	if f.trigger && len(meta.Triggers) > 0 {
		options = append(options, types.ChannelTriggers)
	}
	if f.query && len(meta.Queries) > 0 {
		options = append(options, types.ChannelQueries)
	}
	if f.action && len(meta.Actions) > 0 {
		options = append(options, types.ChannelActions)
	}
	if len(options) == 0 {
		return "", nil
	}
	return uniform(g.rng, options), nil
}

// chooseRule draws a composition form and the channel of each slot.
func (g *Generator) chooseRule(ctx context.Context) (trigger, query, action *types.ChannelMeta, err error) {
	f := parseForm(sample(g.rng, compositionWeights))

	policies := map[types.ChannelKind]string{
		types.ChannelTriggers: g.policy,
		types.ChannelQueries:  g.policy,
		types.ChannelActions:  g.policy,
	}

	if kind, pinned := onlyKind(g.policy); pinned {
		var slot types.ChannelKind
		for attempt := 0; slot == ""; attempt++ {
			if attempt == g.maxAttempts {
				return nil, nil, nil, fmt.Errorf("%w: %s: %s", types.ErrNoChannels, kind, types.ErrTooManyAttempts)
			}
			slot, err = g.chooseChannel(ctx, kind, f)
			if err != nil {
				return nil, nil, nil, err
			}
			if slot == "" {
				f = parseForm(sample(g.rng, compositionWeights))
			}
		}
		for ck := range policies {
			if ck != slot {
				policies[ck] = PolicyUniform
			}
		}
	}

	if f.trigger {
		if trigger, err = g.chooseInvocation(ctx, policies[types.ChannelTriggers], types.ChannelTriggers); err != nil {
			return nil, nil, nil, err
		}
	}
	if f.query {
		if query, err = g.chooseInvocation(ctx, policies[types.ChannelQueries], types.ChannelQueries); err != nil {
			return nil, nil, nil, err
		}
	}
	if f.action {
		if action, err = g.chooseInvocation(ctx, policies[types.ChannelActions], types.ChannelActions); err != nil {
			return nil, nil, nil, err
		}
	}
	return trigger, query, action, nil
}

// GenerateOne synthesizes a single rule.
func (g *Generator) GenerateOne(ctx context.Context) (*types.Rule, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	triggerMeta, queryMeta, actionMeta, err := g.chooseRule(ctx)
	if err != nil {
		return nil, err
	}

	trigger := g.applyFilters(triggerMeta, false)
	query := g.applyFilters(queryMeta, false)
	action := g.applyFilters(actionMeta, true)

	if query != nil && action != nil {
		g.applyComposition(query, queryMeta, action, actionMeta, true)
	}
	if trigger != nil && query != nil {
		g.applyComposition(trigger, triggerMeta, query, queryMeta, false)
	}
	if trigger != nil && action != nil && query == nil {
		g.applyComposition(trigger, triggerMeta, action, actionMeta, true)
	}

	return &types.Rule{
		ID:      types.NewRuleID(),
		Trigger: trigger,
		Query:   query,
		Action:  action,
	}, nil
}

// Generate streams n rules. The channel is closed after n results, after the
// first error, or when ctx is cancelled.
func (g *Generator) Generate(ctx context.Context, n int) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for i := 0; i < n; i++ {
			rule, err := g.GenerateOne(ctx)
			select {
			case out <- Result{Rule: rule, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}
