// Package match evaluates saved-search criteria against listings.
// Evaluation is pure: criteria compile to a list of clauses that are
// folded with AND, so every filter can be tested in isolation and an
// unset filter only ever weakens the overall predicate.
package match

import (
	"strings"

	"github.com/samber/lo"

	"github.com/agromarket/search-alerts/internal/entities"
)

type Clause interface {
	Matches(listing entities.Listing) bool
}

// TextContains matches the term case-insensitively against either the
// listing title or its description.
type TextContains struct {
	Term string
}

func (c TextContains) Matches(listing entities.Listing) bool {
	term := strings.ToLower(c.Term)
	return strings.Contains(strings.ToLower(listing.Title), term) ||
		strings.Contains(strings.ToLower(listing.Description), term)
}

type CategoryEquals struct {
	Category string
}

func (c CategoryEquals) Matches(listing entities.Listing) bool {
	return listing.Category == c.Category
}

type LocationContains struct {
	Location string
}

func (c LocationContains) Matches(listing entities.Listing) bool {
	return strings.Contains(strings.ToLower(listing.Location), strings.ToLower(c.Location))
}

type PriceAtLeast struct {
	Min int64
}

func (c PriceAtLeast) Matches(listing entities.Listing) bool {
	return listing.Price >= c.Min
}

type PriceAtMost struct {
	Max int64
}

func (c PriceAtMost) Matches(listing entities.Listing) bool {
	return listing.Price <= c.Max
}

// ClausesFor compiles the search criteria into clauses. Query text is
// always present (blank text is rejected at creation time); the other
// filters contribute a clause only when set.
func ClausesFor(search entities.SavedSearch) []Clause {
	clauses := []Clause{TextContains{Term: search.QueryText}}

	if search.Category != "" {
		clauses = append(clauses, CategoryEquals{Category: search.Category})
	}
	if search.Location != "" {
		clauses = append(clauses, LocationContains{Location: search.Location})
	}
	if search.PriceMin != nil {
		clauses = append(clauses, PriceAtLeast{Min: *search.PriceMin})
	}
	if search.PriceMax != nil {
		clauses = append(clauses, PriceAtMost{Max: *search.PriceMax})
	}
	return clauses
}

// Matches reports whether a listing satisfies a saved search. Only Active
// listings are eligible, and a user is never matched against their own
// listing.
func Matches(search entities.SavedSearch, listing entities.Listing) bool {
	if listing.Status != entities.ListingActive {
		return false
	}
	if listing.OwnerID == search.OwnerID {
		return false
	}
	return lo.EveryBy(ClausesFor(search), func(clause Clause) bool {
		return clause.Matches(listing)
	})
}
