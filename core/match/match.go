package match

import (
	"sort"

	"roster-verifier/core/normalize"
	"roster-verifier/core/registry"
)

// Kind classifies the outcome of matching one applicant.
type Kind string

const (
	// Matched means exactly one registry row is consistent with the applicant.
	Matched Kind = "matched"
	// Ambiguous means several rows are consistent, or only near-misses exist.
	Ambiguous Kind = "ambiguous"
	// NotFound means no row came close enough.
	NotFound Kind = "not-found"
	// RegistryUnavailable is assigned by the orchestrator when the roster could not be fetched.
	RegistryUnavailable Kind = "registry-unavailable"
)

// Applicant is the identifying part of an application.
type Applicant struct {
	Name      string
	Number    string
	MemberID  string
	BirthDate string
}

// Candidate is a registry row attached to an outcome for review.
type Candidate struct {
	Record registry.Record `json:"record"`
	Score  float64         `json:"score"`
}

// Options tunes near-miss detection.
type Options struct {
	// Threshold is the name similarity a near-miss must exceed.
	Threshold float64
	// ReviewFloor is the similarity a candidate must exceed to be attached to a not-found outcome.
	ReviewFloor float64
	// MaxCandidates caps the attached near-miss candidates.
	MaxCandidates int
}

// DefaultOptions returns the defaults used when configuration is absent.
func DefaultOptions() Options {
	return Options{Threshold: 0.8, ReviewFloor: 0.5, MaxCandidates: 5}
}

// Outcome is the result of Match.
type Outcome struct {
	Kind       Kind             `json:"kind"`
	Confidence float64          `json:"confidence"`
	Record     *registry.Record `json:"record,omitempty"`
	Candidates []Candidate      `json:"candidates,omitempty"`
}

// Match classifies an applicant against the registry rows of its team.
// It is pure: the same inputs always produce the same outcome.
// Fuzzy similarity never yields Matched.
func Match(a Applicant, records []registry.Record, opts Options) Outcome {
	name := normalize.String(a.Name)

	var consistent []Candidate
	scored := make([]Candidate, 0, len(records))
	best := 0.0
	for _, rec := range records {
		recName := normalize.String(rec.Name)
		score := 1.0
		if recName != name {
			score = Similarity(name, recName)
		}
		if score > best {
			best = score
		}
		c := Candidate{Record: rec, Score: score}
		if recName == name && compatible(a, rec) {
			consistent = append(consistent, c)
			continue
		}
		scored = append(scored, c)
	}

	switch len(consistent) {
	case 0:
	case 1:
		rec := consistent[0].Record
		return Outcome{Kind: Matched, Confidence: 1, Record: &rec}
	default:
		sortCandidates(consistent)
		return Outcome{Kind: Ambiguous, Confidence: 1, Candidates: consistent}
	}

	sortCandidates(scored)
	near := filter(scored, opts.Threshold)
	if len(near) > 0 {
		return Outcome{Kind: Ambiguous, Confidence: best, Candidates: limit(near, opts.MaxCandidates)}
	}
	return Outcome{Kind: NotFound, Confidence: best, Candidates: limit(filter(scored, opts.ReviewFloor), opts.MaxCandidates)}
}

// compatible reports whether every attribute supplied by both sides agrees.
func compatible(a Applicant, rec registry.Record) bool {
	pairs := [][2]string{
		{normalize.Number(a.Number), normalize.Number(rec.Number)},
		{normalize.Number(a.MemberID), normalize.Number(rec.MemberID)},
		{normalize.Date(a.BirthDate), normalize.Date(rec.BirthDate)},
	}
	for _, p := range pairs {
		if p[0] != "" && p[1] != "" && p[0] != p[1] {
			return false
		}
	}
	return true
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		if cs[i].Record.MemberID != cs[j].Record.MemberID {
			return cs[i].Record.MemberID < cs[j].Record.MemberID
		}
		return cs[i].Record.Name < cs[j].Record.Name
	})
}

func filter(cs []Candidate, min float64) []Candidate {
	var out []Candidate
	for _, c := range cs {
		if c.Score > min {
			out = append(out, c)
		}
	}
	return out
}

func limit(cs []Candidate, n int) []Candidate {
	if n > 0 && len(cs) > n {
		return cs[:n]
	}
	return cs
}
