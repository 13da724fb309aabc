package resolver_test

import (
	"context"
	"testing"

	"github.com/vapodego/aibabyapp-project-sub001/job"
	"github.com/vapodego/aibabyapp-project-sub001/resolver"
)

var catalog = []resolver.Spot{
	{Name: "Riverside Park", Area: "riverside", Interests: []string{"parks", "picnic"}},
	{Name: "City Aquarium", Area: "downtown", Interests: []string{"aquarium", "indoor"}},
}

func TestResolve_InterestOverlap(t *testing.T) {
	r := resolver.NewStatic(catalog)

	spots, err := r.Resolve(context.Background(), job.PlanInput{
		Origin:    "Shibuya, Tokyo",
		Interests: []string{"PARKS"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(spots) != 1 || spots[0].Name != "Riverside Park" {
		t.Errorf("spots = %v, want only Riverside Park", spots)
	}
}

func TestResolve_NoInterestsMatchesAll(t *testing.T) {
	r := resolver.NewStatic(catalog)

	spots, err := r.Resolve(context.Background(), job.PlanInput{Origin: "Shibuya, Tokyo"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(spots) != len(catalog) {
		t.Errorf("spots = %d, want %d", len(spots), len(catalog))
	}
}

func TestResolve_NoMatch(t *testing.T) {
	r := resolver.NewStatic(catalog)

	spots, err := r.Resolve(context.Background(), job.PlanInput{
		Origin:    "Shibuya, Tokyo",
		Interests: []string{"skiing"},
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(spots) != 0 {
		t.Errorf("spots = %v, want none", spots)
	}
}

func TestNewStatic_DefaultCatalog(t *testing.T) {
	r := resolver.NewStatic(nil)

	spots, err := r.Resolve(context.Background(), job.PlanInput{Origin: "Shibuya, Tokyo"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(spots) == 0 {
		t.Error("default catalog resolved no spots")
	}
}
