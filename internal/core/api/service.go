// Package api implements the ExactMatch gRPC service over the exact-match index.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/solatis/rulesynth/internal/core/auth"
	"github.com/solatis/rulesynth/internal/core/config"
	"github.com/solatis/rulesynth/internal/exact"
	"github.com/solatis/rulesynth/internal/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ExactMatchService serves lookups from an in-memory matcher and rebuilds it
// from the example store on Reload.
type ExactMatchService struct {
	source exact.ExampleSource
	cfg    config.ExactConfig

	reloadMu sync.Mutex // serializes Reload
	mu       sync.RWMutex
	matcher  *exact.Matcher
}

// NewExactMatchService creates a service with an empty index. Call Reload to
// populate it.
func NewExactMatchService(source exact.ExampleSource, cfg config.ExactConfig) (*ExactMatchService, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	return &ExactMatchService{
		source:  source,
		cfg:     cfg,
		matcher: exact.NewMatcher(cfg.MaxResults),
	}, nil
}

func (s *ExactMatchService) current() *exact.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher
}

// Lookup returns the targets indexed for an utterance.
func (s *ExactMatchService) Lookup(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	utterance := req.GetValue()
	if strings.TrimSpace(utterance) == "" {
		return nil, status.Error(codes.InvalidArgument, "utterance required")
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	targets, found := s.current().Get(utterance)
	logger.FromContext(ctx).Debug("lookup",
		"client_id", auth.ClientIDFromContext(ctx),
		"found", found,
		"targets", len(targets))

	list := make([]interface{}, len(targets))
	for i, t := range targets {
		list[i] = t
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"utterance": utterance,
		"targets":   list,
		"found":     found,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Reload rebuilds the index from the example store. The live index is only
// replaced when the examples changed.
func (s *ExactMatchService) Reload(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	count, fingerprint, changed, err := s.reload(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	default:
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"count":       count,
		"fingerprint": fingerprint,
		"changed":     changed,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ReloadIndex is Reload for in-process callers.
func (s *ExactMatchService) ReloadIndex(ctx context.Context) (count int, changed bool, err error) {
	count, _, changed, err = s.reload(ctx)
	return count, changed, err
}

func (s *ExactMatchService) reload(ctx context.Context) (int, string, bool, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	next := exact.NewMatcher(s.cfg.MaxResults)
	count, err := next.Load(ctx, s.source)
	if err != nil {
		return 0, "", false, err
	}

	fingerprint := next.Fingerprint()
	changed := fingerprint != s.current().Fingerprint()
	if changed {
		s.mu.Lock()
		s.matcher = next
		s.mu.Unlock()
	}

	logger.FromContext(ctx).Info("exact-match index reloaded",
		"count", count,
		"fingerprint", fingerprint,
		"changed", changed)
	return count, fingerprint, changed, nil
}
