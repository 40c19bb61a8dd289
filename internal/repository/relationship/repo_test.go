package relationship

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
)

func TestCreate_AtomicWrites(t *testing.T) {
	repo, ms := newTestRepo(t)
	rel := testRelationship(t, "r1", "alice", "bob", testNow)

	var got []db.WriteOp
	ms.execFn = func(_ context.Context, ops []db.WriteOp) error {
		got = ops
		return nil
	}

	if err := repo.Create(context.Background(), rel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(got))
	}
	if got[0].Kind != db.WriteHSet || got[0].Key != "serendip:rel:r1" {
		t.Errorf("op0 = %+v", got[0])
	}
	if got[0].Fields["strength"] != "1" || got[0].Fields["source"] != "seed" {
		t.Errorf("fields = %v", got[0].Fields)
	}
	if got[1].Key != "serendip:rels:alice" || got[2].Key != "serendip:rels:bob" {
		t.Errorf("adjacency keys = %s, %s", got[1].Key, got[2].Key)
	}
	if got[1].Members[0] != "r1" {
		t.Errorf("member = %v", got[1].Members)
	}
}

func TestCreate_ExecError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.execFn = func(_ context.Context, _ []db.WriteOp) error { return db.ErrTxAborted }

	err := repo.Create(context.Background(), testRelationship(t, "r1", "a", "b", testNow))
	if !errors.Is(err, db.ErrTxAborted) {
		t.Fatalf("expected ErrTxAborted, got %v", err)
	}
}

func TestListByPerson_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		t.Fatal("no hash reads expected")
		return nil, nil
	}

	rels, err := repo.ListByPerson(context.Background(), "loner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rels == nil || len(rels) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", rels)
	}
}

func TestListByPerson_SortedAndSkipsDangling(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(_ context.Context, key string) ([]string, error) {
		if key != "serendip:rels:alice" {
			t.Errorf("unexpected key: %s", key)
		}
		return []string{"r2", "gone", "r1"}, nil
	}

	later := testRelationship(t, "r2", "alice", "carol", testNow.Add(time.Hour))
	earlier := testRelationship(t, "r1", "bob", "alice", testNow)
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if keys[1] != "serendip:rel:gone" {
			t.Errorf("unexpected keys: %v", keys)
		}
		return []map[string]string{relationshipToHash(&later), {}, relationshipToHash(&earlier)}, nil
	}

	rels, err := repo.ListByPerson(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships, got %d", len(rels))
	}
	if rels[0].ID() != "r1" || rels[1].ID() != "r2" {
		t.Errorf("order = %s, %s", rels[0].ID(), rels[1].ID())
	}
	if other, _ := rels[0].OtherSide("alice"); other != "bob" {
		t.Errorf("other side = %s", other)
	}
	if !rels[0].CreatedAt().Equal(testNow) {
		t.Errorf("created_at = %v", rels[0].CreatedAt())
	}
}

func TestListByPerson_CorruptHash(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(_ context.Context, _ string) ([]string, error) { return []string{"r1"}, nil }
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{{"id": "r1", "created_at": "yesterday"}}, nil
	}

	if _, err := repo.ListByPerson(context.Background(), "alice"); err == nil {
		t.Fatal("expected parse error")
	}
}
