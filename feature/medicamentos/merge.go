package medicamentos

import (
	"fmt"
	"strings"

	"medicamentos-etl/core/publish"
)

// MatchPolicy decides what happens when one registration matches several price rows.
type MatchPolicy string

const (
	// MatchFirst keeps the first matching price row in file order.
	MatchFirst MatchPolicy = "first"
	// MatchReject fails the merge on the first ambiguous registration.
	MatchReject MatchPolicy = "reject"
	// MatchAll keeps every pair; the key widens to registration plus CMED registration.
	MatchAll MatchPolicy = "all"
)

// ParseMatchPolicy validates a configured policy. Empty means MatchFirst.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MatchFirst, nil
	case MatchFirst, MatchReject, MatchAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown match policy %q (want first, reject or all)", s)
	}
}

// MergeStats summarizes a merge.
type MergeStats struct {
	Matched         int `json:"matched"`
	UnmatchedAnvisa int `json:"unmatched_anvisa"`
	UnmatchedCMED   int `json:"unmatched_cmed"`
	// Ambiguous counts registrations that matched more than one price row.
	Ambiguous int `json:"ambiguous"`
}

// Merge inner-joins registrations with price rows on the base identifier.
// Output follows the ANVISA order, ties broken by CMED order.
func Merge(anvisa []AnvisaRecord, cmed []CMEDRecord, policy MatchPolicy) ([]CanonicalRecord, MergeStats, error) {
	var stats MergeStats

	byBase := make(map[string][]int, len(cmed))
	for i, r := range cmed {
		byBase[r.BaseIdentifier] = append(byBase[r.BaseIdentifier], i)
	}

	used := make(map[string]struct{}, len(byBase))
	out := make([]CanonicalRecord, 0, len(anvisa))
	for _, a := range anvisa {
		base := BaseIdentifier(a.Identifier)
		matches := byBase[base]
		if len(matches) == 0 {
			stats.UnmatchedAnvisa++
			continue
		}
		used[base] = struct{}{}

		if len(matches) > 1 {
			stats.Ambiguous++
			switch policy {
			case MatchReject:
				return nil, stats, &publish.Error{
					Kind: publish.KindAmbiguousJoin,
					Step: "merge",
					Err: fmt.Errorf("registration %s (ANVISA row %d) matches %d CMED rows: %s",
						a.Identifier, a.Row, len(matches), cmedRows(cmed, matches)),
				}
			case MatchFirst:
				matches = matches[:1]
			}
		}

		for _, i := range matches {
			out = append(out, CanonicalRecord{
				Identifier:        a.Identifier,
				ClasseTerapeutica: a.ClasseTerapeutica,
				PrincipioAtivo:    a.PrincipioAtivo,
				CMEDRecord:        cmed[i],
			})
		}
	}

	for base, rows := range byBase {
		if _, ok := used[base]; !ok {
			stats.UnmatchedCMED += len(rows)
		}
	}
	stats.Matched = len(out)
	return out, stats, nil
}

func cmedRows(cmed []CMEDRecord, idx []int) string {
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("row %d (%s)", cmed[i].Row, cmed[i].RegistroCMED))
	}
	return strings.Join(parts, ", ")
}
