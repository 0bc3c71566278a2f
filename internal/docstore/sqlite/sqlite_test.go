package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/OgnevOA/spendy-pants/internal/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Set(ctx, docstore.CollectionUsers, "42", docstore.Fields{
		"status":  "approved",
		"groupId": "g1",
	}, false)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	doc, err := s.Get(ctx, docstore.CollectionUsers, "42")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Fields["status"] != "approved" || doc.Fields["groupId"] != "g1" {
		t.Errorf("unexpected fields: %v", doc.Fields)
	}

	if err := s.Delete(ctx, docstore.CollectionUsers, "42"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, docstore.CollectionUsers, "42"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Set(ctx, docstore.CollectionUsers, "x", docstore.Fields{"kind": "user"}, false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := s.Get(ctx, docstore.CollectionGroups, "x"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get() across collections error = %v, want ErrNotFound", err)
	}
}

func TestUpdateArrayUnionAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Set(ctx, docstore.CollectionGroups, "g1", docstore.Fields{
		"groupName":     "Family",
		"memberUserIds": []string{"1", "2"},
	}, false)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := s.Update(ctx, docstore.CollectionGroups, "g1", docstore.Fields{
		"memberUserIds": docstore.ArrayUnion("3"),
	}); err != nil {
		t.Fatalf("Update(union) error = %v", err)
	}
	if err := s.Update(ctx, docstore.CollectionGroups, "g1", docstore.Fields{
		"memberUserIds": docstore.ArrayRemove("1"),
	}); err != nil {
		t.Fatalf("Update(remove) error = %v", err)
	}

	doc, err := s.Get(ctx, docstore.CollectionGroups, "g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	members, ok := doc.Fields["memberUserIds"].([]any)
	if !ok {
		t.Fatalf("memberUserIds is %T, want []any", doc.Fields["memberUserIds"])
	}
	want := []any{"2", "3"}
	if len(members) != len(want) {
		t.Fatalf("members = %v, want %v", members, want)
	}
	for i := range members {
		if members[i] != want[i] {
			t.Errorf("members[%d] = %v, want %v", i, members[i], want[i])
		}
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), docstore.CollectionUsers, "nope", docstore.Fields{"x": 1})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestQueryDateWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dates := map[string]string{
		"r1": "2024-02-01",
		"r2": "2024-02-29",
		"r3": "2024-03-01",
	}
	for id, date := range dates {
		err := s.Set(ctx, docstore.CollectionReceipts, id, docstore.Fields{
			"ownerUserId": "42",
			"date":        date,
		}, false)
		if err != nil {
			t.Fatalf("Set(%s) error = %v", id, err)
		}
	}

	docs, err := s.Query(ctx, docstore.CollectionReceipts,
		docstore.Eq("ownerUserId", "42"),
		docstore.Gte("date", "2024-02-01"),
		docstore.Lte("date", "2024-02-29"))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Query() returned %d documents, want 2", len(docs))
	}
}

func TestAddAutoIDGeneratesDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id1, err := s.AddAutoID(ctx, docstore.CollectionReceipts, docstore.Fields{"storeName": "A"})
	if err != nil {
		t.Fatalf("AddAutoID() error = %v", err)
	}
	id2, err := s.AddAutoID(ctx, docstore.CollectionReceipts, docstore.Fields{"storeName": "B"})
	if err != nil {
		t.Fatalf("AddAutoID() error = %v", err)
	}
	if id1 == id2 {
		t.Errorf("ids collide: %q", id1)
	}
}
