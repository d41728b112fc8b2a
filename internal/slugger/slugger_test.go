package slugger

import (
	"context"
	"errors"
	"testing"
)

func existsIn(taken ...string) ExistsFunc {
	set := make(map[string]bool, len(taken))
	for _, s := range taken {
		set[s] = true
	}
	return func(_ context.Context, slug string) (bool, error) {
		return set[slug], nil
	}
}

func TestMake(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Dish", "my-dish"},
		{"Classic Spaghetti Carbonara", "classic-spaghetti-carbonara"},
		{"Crème Brûlée", "creme-brulee"},
		{"  Spaced   Out  ", "spaced-out"},
	}
	for _, tt := range tests {
		if got := Make(tt.title); got != tt.want {
			t.Errorf("Make(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestUnique_NoCollision(t *testing.T) {
	got, err := Unique(context.Background(), "My Dish", existsIn())
	if err != nil {
		t.Fatalf("Unique() error = %v", err)
	}
	if got != "my-dish" {
		t.Errorf("Unique() = %q, want %q", got, "my-dish")
	}
}

func TestUnique_SuffixStartsAtTwo(t *testing.T) {
	got, err := Unique(context.Background(), "My Dish", existsIn("my-dish"))
	if err != nil {
		t.Fatalf("Unique() error = %v", err)
	}
	if got != "my-dish-2" {
		t.Errorf("Unique() = %q, want %q", got, "my-dish-2")
	}
}

func TestUnique_SkipsTakenSuffixes(t *testing.T) {
	got, err := Unique(context.Background(), "My Dish", existsIn("my-dish", "my-dish-2", "my-dish-3"))
	if err != nil {
		t.Fatalf("Unique() error = %v", err)
	}
	if got != "my-dish-4" {
		t.Errorf("Unique() = %q, want %q", got, "my-dish-4")
	}
}

func TestUnique_PropagatesExistsError(t *testing.T) {
	boom := errors.New("store down")
	_, err := Unique(context.Background(), "My Dish", func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}
