package docstore

import (
	"testing"
	"time"
)

func TestResolveWritesPlainAndDelete(t *testing.T) {
	current := Fields{"name": "Alpha", "stale": true}
	out, err := ResolveWrites(current, Fields{
		"name":  "Beta",
		"stale": FieldDelete,
		"extra": 7,
	})
	if err != nil {
		t.Fatalf("ResolveWrites() error = %v", err)
	}
	if out["name"] != "Beta" {
		t.Errorf("name = %v, want Beta", out["name"])
	}
	if _, ok := out["stale"]; ok {
		t.Error("deleted field still present")
	}
	if out["extra"] != 7 {
		t.Errorf("extra = %v, want 7", out["extra"])
	}
	if current["name"] != "Alpha" {
		t.Error("input fields were mutated")
	}
}

func TestResolveWritesServerTimestamp(t *testing.T) {
	out, err := ResolveWrites(Fields{}, Fields{"updatedAt": ServerTimestamp})
	if err != nil {
		t.Fatalf("ResolveWrites() error = %v", err)
	}
	s, ok := out["updatedAt"].(string)
	if !ok {
		t.Fatalf("updatedAt is %T, want string", out["updatedAt"])
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		t.Errorf("updatedAt %q is not RFC3339: %v", s, err)
	}
}

func TestResolveWritesArrayOps(t *testing.T) {
	tests := []struct {
		name    string
		current Fields
		op      ArrayOp
		want    []any
	}{
		{
			name:    "union appends missing value",
			current: Fields{"members": []any{"u1"}},
			op:      ArrayUnion("u2"),
			want:    []any{"u1", "u2"},
		},
		{
			name:    "union skips existing value",
			current: Fields{"members": []any{"u1", "u2"}},
			op:      ArrayUnion("u2"),
			want:    []any{"u1", "u2"},
		},
		{
			name:    "union creates missing field",
			current: Fields{},
			op:      ArrayUnion("u1"),
			want:    []any{"u1"},
		},
		{
			name:    "remove drops value",
			current: Fields{"members": []any{"u1", "u2", "u3"}},
			op:      ArrayRemove("u2"),
			want:    []any{"u1", "u3"},
		},
		{
			name:    "remove of absent value keeps array",
			current: Fields{"members": []any{"u1"}},
			op:      ArrayRemove("u9"),
			want:    []any{"u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResolveWrites(tt.current, Fields{"members": tt.op})
			if err != nil {
				t.Fatalf("ResolveWrites() error = %v", err)
			}
			got, ok := out["members"].([]any)
			if !ok {
				t.Fatalf("members is %T, want []any", out["members"])
			}
			if len(got) != len(tt.want) {
				t.Fatalf("members = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("members[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveWritesArrayOpOnScalar(t *testing.T) {
	_, err := ResolveWrites(Fields{"members": "not-an-array"}, Fields{"members": ArrayUnion("u1")})
	if err == nil {
		t.Fatal("expected error for array op on scalar field")
	}
}

func TestMatches(t *testing.T) {
	doc := Document{ID: "r1", Fields: Fields{
		"ownerUserId": "42",
		"date":        "2024-02-15",
		"totalCents":  float64(1299),
	}}

	tests := []struct {
		name    string
		filters []Filter
		want    bool
	}{
		{"no filters", nil, true},
		{"equality match", []Filter{Eq("ownerUserId", "42")}, true},
		{"equality miss", []Filter{Eq("ownerUserId", "7")}, false},
		{"missing field", []Filter{Eq("groupId", "g1")}, false},
		{"numeric equality across int and float", []Filter{Eq("totalCents", 1299)}, true},
		{"date window hit", []Filter{Gte("date", "2024-02-01"), Lte("date", "2024-02-29")}, true},
		{"date on lower boundary", []Filter{Gte("date", "2024-02-15")}, true},
		{"date below window", []Filter{Gte("date", "2024-03-01")}, false},
		{"date above window", []Filter{Lte("date", "2024-01-31")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(doc, tt.filters); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
