package authz

import (
	"strings"

	"golang.org/x/text/cases"
)

// normalize trims and case-folds free-text input so that matching is
// insensitive to casing, including non-ASCII group names.
func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Department is an organizational department keyword matched inside a
// membership role label.
type Department string

const (
	DepartmentFinance   Department = "finance"
	DepartmentHR        Department = "hr"
	DepartmentSales     Department = "sales"
	DepartmentLogistics Department = "logistics"
)

// Seniority is a seniority keyword matched inside a membership role label.
type Seniority string

const (
	SeniorityAdmin   Seniority = "admin"
	SeniorityManager Seniority = "manager"
	SeniorityUser    Seniority = "user"
	SeniorityEditor  Seniority = "editor"
	SeniorityAuthor  Seniority = "author"
)

// umbrellaKeywords mark a group as an organizational umbrella. A membership
// only yields department/seniority evidence when its group name carries one
// of these markers.
var umbrellaKeywords = []string{"management", "tenant"}

// Predicate answers whether an identity holds a department at a seniority.
// Predicates are total: a nil identity is false, never an error.
type Predicate func(id *Identity) bool

// PredicateKey names one generated predicate. A zero Department marks the
// basic umbrella-only tier.
type PredicateKey struct {
	Department Department
	Seniority  Seniority
}

// CatalogEntry declares one department with the seniorities generated for
// it. The catalog expands entries into predicates once at construction.
type CatalogEntry struct {
	Department  Department
	Seniorities []Seniority
}

// DefaultCatalogEntries declares the built-in predicate table: a basic
// umbrella-only tier plus every department crossed with every seniority.
func DefaultCatalogEntries() []CatalogEntry {
	all := []Seniority{SeniorityAdmin, SeniorityManager, SeniorityUser, SeniorityEditor, SeniorityAuthor}
	return []CatalogEntry{
		{Department: "", Seniorities: all},
		{Department: DepartmentFinance, Seniorities: all},
		{Department: DepartmentHR, Seniorities: all},
		{Department: DepartmentSales, Seniorities: all},
		{Department: DepartmentLogistics, Seniorities: all},
	}
}

// Catalog is the generated family of membership predicates. Construction
// expands the declarative entry table; lookups afterwards are map hits.
type Catalog struct {
	predicates map[PredicateKey]Predicate
	keys       []PredicateKey
}

// NewCatalog expands the entries into predicates. Entry order is preserved
// so that evaluation output is deterministic.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{predicates: make(map[PredicateKey]Predicate)}
	for _, entry := range entries {
		for _, sen := range entry.Seniorities {
			key := PredicateKey{Department: entry.Department, Seniority: sen}
			if _, exists := c.predicates[key]; exists {
				continue
			}
			c.predicates[key] = buildPredicate(entry.Department, sen)
			c.keys = append(c.keys, key)
		}
	}
	return c
}

// DefaultCatalog returns the catalog built from DefaultCatalogEntries.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultCatalogEntries())
}

// Holds evaluates the predicate for the given department/seniority pair.
// Unknown pairs are false.
func (c *Catalog) Holds(id *Identity, dept Department, sen Seniority) bool {
	if c == nil {
		return false
	}
	pred, ok := c.predicates[PredicateKey{Department: dept, Seniority: sen}]
	if !ok {
		return false
	}
	return pred(id)
}

// Keys lists every generated predicate key in declaration order.
func (c *Catalog) Keys() []PredicateKey {
	if c == nil {
		return nil
	}
	keys := make([]PredicateKey, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// PredicateResult is one evaluated catalog entry.
type PredicateResult struct {
	Key   PredicateKey
	Holds bool
}

// Evaluate runs every predicate against the identity in declaration order.
func (c *Catalog) Evaluate(id *Identity) []PredicateResult {
	if c == nil {
		return nil
	}
	results := make([]PredicateResult, 0, len(c.keys))
	for _, key := range c.keys {
		results = append(results, PredicateResult{Key: key, Holds: c.predicates[key](id)})
	}
	return results
}

// CanonicalTag returns the coarse-role tag a predicate falls back to when an
// identity has no memberships, e.g. FINANCE_MANAGER or GROUP_ADMIN for the
// basic tier.
func CanonicalTag(dept Department, sen Seniority) string {
	if dept == "" {
		return "GROUP_" + strings.ToUpper(string(sen))
	}
	return strings.ToUpper(string(dept)) + "_" + strings.ToUpper(string(sen))
}

// buildPredicate generates the two-branch membership/fallback check for one
// department+seniority pair. A zero department generates the umbrella-only
// basic form.
func buildPredicate(dept Department, sen Seniority) Predicate {
	canonical := CanonicalTag(dept, sen)
	deptKey := normalize(string(dept))
	senKey := normalize(string(sen))

	return func(id *Identity) bool {
		if id == nil {
			return false
		}
		// Membership evidence fully overrides the coarse-role fallback:
		// when memberships exist, the coarse role is not consulted even
		// if none of them match.
		if len(id.Memberships) == 0 {
			return strings.ToUpper(strings.TrimSpace(id.CoarseRole)) == canonical
		}
		for _, m := range id.Memberships {
			if !membershipMatches(m, deptKey, senKey) {
				continue
			}
			return true
		}
		return false
	}
}

// membershipMatches applies the soft-matching policy: umbrella marker in the
// group name, then department and seniority keywords in the same
// membership's role label. Overlapping keyword hits (a role labelled
// "Finance Sales Manager") satisfy every department they mention; missing
// strings are empty and simply fail to match.
func membershipMatches(m Membership, deptKey, senKey string) bool {
	group := normalize(m.GroupName)
	role := normalize(m.RoleLabel)
	if !containsUmbrella(group) {
		return false
	}
	if deptKey != "" && !strings.Contains(role, deptKey) {
		return false
	}
	return strings.Contains(role, senKey)
}

func containsUmbrella(group string) bool {
	for _, kw := range umbrellaKeywords {
		if strings.Contains(group, kw) {
			return true
		}
	}
	return false
}
