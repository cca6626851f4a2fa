package devbackend

import (
	"net/http"

	"github.com/jrsteele09/homereno-client/marketplace"
	"github.com/jrsteele09/homereno-client/users"
)

// ProjectsHandler lists the calling customer's projects.
func (s *Server) ProjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, marketplace.ProjectList{Projects: s.catalog.ProjectsOwnedBy(claims.Subject)})
	}
}

// VendorBidsHandler lists the calling vendor's bids.
func (s *Server) VendorBidsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, marketplace.BidList{Bids: s.catalog.BidsBy(claims.Subject)})
	}
}

func (s *Server) AdminStatisticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := s.accounts.CountByRole()
		writeJSON(w, http.StatusOK, marketplace.Statistics{
			Customers: counts[users.RoleCustomer],
			Vendors:   counts[users.RoleVendor],
			Admins:    counts[users.RoleAdmin],
			Projects:  len(s.catalog.projects),
			Bids:      len(s.catalog.bids),
		})
	}
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	}
}
