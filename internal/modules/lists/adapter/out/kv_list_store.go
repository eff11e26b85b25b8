package out

import (
	"context"
	"encoding/json"
	"fmt"

	"lockin/internal/modules/lists/domain"
	listsout "lockin/internal/modules/lists/port/out"
	"lockin/internal/platform/kv"
)

type KVListStore struct {
	kv *kv.Store
}

func NewKVListStore(store *kv.Store) listsout.ListStore {
	return &KVListStore{kv: store}
}

func keyFor(kind domain.Kind) string {
	if kind == domain.KindAllow {
		return kv.KeyAllowList
	}
	return kv.KeyBlockList
}

func (s *KVListStore) Load(ctx context.Context, kind domain.Kind) (domain.List, error) {
	var list domain.List
	if _, err := s.kv.Get(ctx, keyFor(kind), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *KVListStore) Mutate(ctx context.Context, kind domain.Kind, fn func(domain.List) (domain.List, error)) error {
	return s.kv.Update(ctx, keyFor(kind), func(raw []byte, found bool) (any, error) {
		var list domain.List
		if found {
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fmt.Errorf("decode %s list: %w", kind, err)
			}
		}
		next, err := fn(list)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = domain.List{}
		}
		return next, nil
	})
}
