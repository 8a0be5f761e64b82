package session

import (
	"context"
	"strings"

	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

type scopedBackend struct {
	backend ports.SessionBackend
	prefix  string
}

// Scoped gives one of many stores its own corner of a shared backend. Keys
// are stored as "<scope>:<key>". A nil backend stays nil.
func Scoped(backend ports.SessionBackend, scope string) ports.SessionBackend {
	if backend == nil {
		return nil
	}
	return &scopedBackend{backend: backend, prefix: scope + ":"}
}

func (s *scopedBackend) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.prefix + k
	}
	return out
}

func (s *scopedBackend) GetValues(ctx context.Context, keys ...string) (map[string]string, error) {
	values, err := s.backend.GetValues(ctx, s.keys(keys)...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[strings.TrimPrefix(k, s.prefix)] = v
	}
	return out, nil
}

func (s *scopedBackend) SetValues(ctx context.Context, values map[string]string) error {
	scoped := make(map[string]string, len(values))
	for k, v := range values {
		scoped[s.prefix+k] = v
	}
	return s.backend.SetValues(ctx, scoped)
}

func (s *scopedBackend) DeleteValues(ctx context.Context, keys ...string) error {
	return s.backend.DeleteValues(ctx, s.keys(keys)...)
}
