package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lockin/internal/modules/lists/domain"
	listsout "lockin/internal/modules/lists/port/out"
)

type ListService struct {
	store  listsout.ListStore
	logger *zap.Logger
}

func NewListService(store listsout.ListStore, logger *zap.Logger) *ListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListService{store: store, logger: logger.Named("lists")}
}

// Add rejects malformed URLs and duplicates before touching storage.
func (s *ListService) Add(ctx context.Context, kind domain.Kind, rawURL string) (string, string, error) {
	entry, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return "", "", err
	}
	other, err := s.store.Load(ctx, kind.Other())
	if err != nil {
		return "", "", err
	}
	if err := s.store.Mutate(ctx, kind, func(current domain.List) (domain.List, error) {
		return current.Add(entry, kind)
	}); err != nil {
		return "", "", err
	}
	warning := ""
	if other.Has(entry) {
		warning = fmt.Sprintf("This site is already in your %s.", kind.Other().Title())
	}
	s.logger.Info("list entry added", zap.String("list", string(kind)), zap.String("url", entry), zap.Bool("conflict", warning != ""))
	return entry, warning, nil
}

func (s *ListService) Remove(ctx context.Context, kind domain.Kind, rawURL string) error {
	entry, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	if err := s.store.Mutate(ctx, kind, func(current domain.List) (domain.List, error) {
		return current.Remove(entry, kind)
	}); err != nil {
		return err
	}
	s.logger.Info("list entry removed", zap.String("list", string(kind)), zap.String("url", entry))
	return nil
}

func (s *ListService) Load(ctx context.Context, kind domain.Kind) (domain.List, error) {
	return s.store.Load(ctx, kind)
}

// Contains matches pageURL against the list. Unparseable URLs only match exactly.
func (s *ListService) Contains(ctx context.Context, kind domain.Kind, pageURL string) (bool, error) {
	list, err := s.store.Load(ctx, kind)
	if err != nil {
		return false, err
	}
	if normalized, err := domain.NormalizeURL(pageURL); err == nil {
		pageURL = normalized
	}
	return list.Contains(pageURL), nil
}
