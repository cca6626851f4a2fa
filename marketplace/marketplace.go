// Package marketplace holds the REST payloads of the renovation marketplace
// and typed calls for them over the authenticated client.
package marketplace

import (
	"context"

	"github.com/jrsteele09/homereno-client/apiclient"
)

// Protected REST endpoints.
const (
	PathProjects        = "/projects"
	PathVendorBids      = "/vendor/bids"
	PathAdminStatistics = "/admin/statistics"
)

// Project is a customer's renovation project.
type Project struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Owner  string  `json:"owner"`
	Status string  `json:"status"`
	Budget float64 `json:"budget"`
	Rooms  []Room  `json:"rooms,omitempty"`
}

// Room is a part of a project with its own work phases.
type Room struct {
	Name   string   `json:"name"`
	Phases []string `json:"phases,omitempty"`
}

// Bid is a vendor's offer on a project.
type Bid struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	Vendor    string  `json:"vendor"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// Statistics is the admin dashboard summary.
type Statistics struct {
	Customers int `json:"customers"`
	Vendors   int `json:"vendors"`
	Admins    int `json:"admins"`
	Projects  int `json:"projects"`
	Bids      int `json:"bids"`
}

// ProjectList is the body of GET /projects.
type ProjectList struct {
	Projects []Project `json:"projects"`
}

// BidList is the body of GET /vendor/bids.
type BidList struct {
	Bids []Bid `json:"bids"`
}

// ListProjects returns the signed-in customer's projects.
func ListProjects(ctx context.Context, c *apiclient.Client) ([]Project, error) {
	var out ProjectList
	if err := c.GetJSON(ctx, PathProjects, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// ListBids returns the signed-in vendor's bids.
func ListBids(ctx context.Context, c *apiclient.Client) ([]Bid, error) {
	var out BidList
	if err := c.GetJSON(ctx, PathVendorBids, &out); err != nil {
		return nil, err
	}
	return out.Bids, nil
}

// GetStatistics returns the admin summary.
func GetStatistics(ctx context.Context, c *apiclient.Client) (*Statistics, error) {
	var out Statistics
	if err := c.GetJSON(ctx, PathAdminStatistics, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
