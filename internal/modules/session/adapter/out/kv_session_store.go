package out

import (
	"context"
	"encoding/json"
	"fmt"

	"lockin/internal/modules/session/domain"
	sessionout "lockin/internal/modules/session/port/out"
	"lockin/internal/platform/kv"
)

type KVSessionStore struct {
	kv *kv.Store
}

func NewKVSessionStore(store *kv.Store) sessionout.SessionStore {
	return &KVSessionStore{kv: store}
}

func (s *KVSessionStore) Load(ctx context.Context) (domain.Session, bool, error) {
	var session domain.Session
	found, err := s.kv.Get(ctx, kv.KeySession, &session)
	if err != nil || !found {
		return domain.Session{}, false, err
	}
	if session.Stage == domain.StageNone {
		return domain.Session{}, false, nil
	}
	if err := session.Validate(); err != nil {
		return domain.Session{}, false, fmt.Errorf("stored session: %w", err)
	}
	return session, true, nil
}

func (s *KVSessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("refusing to store session: %w", err)
	}
	return s.kv.Set(ctx, kv.KeySession, session)
}

func (s *KVSessionStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, kv.KeySession)
}

type KVHistoryStore struct {
	kv *kv.Store
}

func NewKVHistoryStore(store *kv.Store) sessionout.HistoryStore {
	return &KVHistoryStore{kv: store}
}

func (s *KVHistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) (bool, error) {
	appended := false
	err := s.kv.Update(ctx, kv.KeySessionHistory, func(raw []byte, found bool) (any, error) {
		var entries []domain.HistoryEntry
		if found {
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, fmt.Errorf("decode history: %w", err)
			}
		}
		for _, existing := range entries {
			if existing.SessionID == entry.SessionID {
				return entries, nil
			}
		}
		appended = true
		return append(entries, entry), nil
	})
	if err != nil {
		return false, err
	}
	return appended, nil
}

func (s *KVHistoryStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	entries := []domain.HistoryEntry{}
	if _, err := s.kv.Get(ctx, kv.KeySessionHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
