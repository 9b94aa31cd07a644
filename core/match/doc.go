// Package match decides whether an applicant appears in a team's registry roster.
//
// Identity is decided by exact equality of normalized names plus every attribute
// (number, member id, birth date) that both sides supply. Edit-distance similarity
// only surfaces near-miss candidates for manual review; it never produces a match.
package match
