// Package resolver performs the submission-time input resolution step:
// finding outing spots eligible for a submitted origin and interest
// set. The search/geocoding backend is a black box behind the Resolver
// interface; the static implementation here serves development and
// tests. An empty resolution rejects the submission before any job is
// created.
package resolver

import (
	"context"
	"strings"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// Spot is one candidate outing destination.
type Spot struct {
	Name      string   `json:"name"`
	Area      string   `json:"area"`
	Interests []string `json:"interests"`
}

// Resolver finds eligible spots for a submission.
type Resolver interface {
	// Resolve returns the spots eligible for the given input. An empty
	// slice means no eligible subject exists and the submission is
	// rejected.
	Resolve(ctx context.Context, input job.PlanInput) ([]Spot, error)
}

// Static resolves against a fixed in-memory catalog. Spots match when
// the input names no interests, or when at least one interest overlaps.
type Static struct {
	catalog []Spot
}

// NewStatic creates a Static resolver. A nil catalog falls back to the
// built-in default.
func NewStatic(catalog []Spot) *Static {
	if catalog == nil {
		catalog = defaultCatalog
	}
	return &Static{catalog: catalog}
}

// Resolve filters the catalog by interest overlap.
func (r *Static) Resolve(_ context.Context, input job.PlanInput) ([]Spot, error) {
	var out []Spot
	for _, s := range r.catalog {
		if matches(s, input.Interests) {
			out = append(out, s)
		}
	}
	return out, nil
}

func matches(s Spot, interests []string) bool {
	if len(interests) == 0 {
		return true
	}
	for _, want := range interests {
		for _, have := range s.Interests {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

var defaultCatalog = []Spot{
	{Name: "Riverside Park", Area: "riverside", Interests: []string{"parks", "picnic"}},
	{Name: "City Aquarium", Area: "downtown", Interests: []string{"aquarium", "indoor"}},
	{Name: "Hilltop Petting Zoo", Area: "hills", Interests: []string{"animals", "outdoor"}},
	{Name: "Children's Science Museum", Area: "downtown", Interests: []string{"museum", "indoor"}},
	{Name: "Forest Adventure Trail", Area: "forest", Interests: []string{"hiking", "outdoor"}},
	{Name: "Harbor Ferris Wheel", Area: "harbor", Interests: []string{"rides", "views"}},
}
