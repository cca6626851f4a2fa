package devbackend

import (
	"strings"

	"github.com/jrsteele09/homereno-client/marketplace"
)

// catalog is the read-only marketplace data served by the API routes.
type catalog struct {
	projects []marketplace.Project
	bids     []marketplace.Bid
}

func newCatalog() *catalog {
	return &catalog{
		projects: []marketplace.Project{
			{
				ID: "p-100", Name: "Kitchen remodel", Owner: "customer@homereno.dev", Status: "OPEN", Budget: 25000,
				Rooms: []marketplace.Room{{Name: "Kitchen", Phases: []string{"Demolition", "Plumbing", "Cabinets"}}},
			},
			{
				ID: "p-101", Name: "Bathroom refresh", Owner: "customer@homereno.dev", Status: "IN_PROGRESS", Budget: 8000,
				Rooms: []marketplace.Room{{Name: "Main bath", Phases: []string{"Tiling", "Fixtures"}}},
			},
			{ID: "p-200", Name: "Deck build", Owner: "other@homereno.dev", Status: "OPEN", Budget: 12000},
		},
		bids: []marketplace.Bid{
			{ID: "b-1", ProjectID: "p-100", Vendor: "vendor@homereno.dev", Amount: 23500, Status: "PENDING"},
			{ID: "b-2", ProjectID: "p-200", Vendor: "vendor@homereno.dev", Amount: 11800, Status: "ACCEPTED"},
			{ID: "b-3", ProjectID: "p-101", Vendor: "other-vendor@homereno.dev", Amount: 7900, Status: "PENDING"},
		},
	}
}

func (c *catalog) ProjectsOwnedBy(email string) []marketplace.Project {
	projects := make([]marketplace.Project, 0)
	for _, p := range c.projects {
		if strings.EqualFold(p.Owner, email) {
			projects = append(projects, p)
		}
	}
	return projects
}

func (c *catalog) BidsBy(email string) []marketplace.Bid {
	bids := make([]marketplace.Bid, 0)
	for _, b := range c.bids {
		if strings.EqualFold(b.Vendor, email) {
			bids = append(bids, b)
		}
	}
	return bids
}
