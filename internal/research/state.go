// Package research defines the shared, monotonically growing state the
// pipeline engine threads through its stages, the Document and Event
// types stages exchange, and the URL canonicalization invariant that
// keeps category maps consistent.
package research

// SiteScrape is the optional raw-text capture of the company homepage,
// produced by the grounding stage.
type SiteScrape struct {
	Title      string
	RawContent string
}

// State is the research record every stage reads from and contributes a
// Delta to. It is never mutated in place after construction by the
// engine; stages receive an immutable Snapshot and return a Delta, which
// the engine merges into a new State value.
type State struct {
	Company    string
	CompanyURL string
	Industry   string
	HQLocation string

	SiteScrape *SiteScrape

	Messages []string

	FinancialData map[string]*Document
	NewsData      map[string]*Document
	IndustryData  map[string]*Document
	CompanyData   map[string]*Document

	CuratedFinancialData map[string]*Document
	CuratedNewsData      map[string]*Document
	CuratedIndustryData  map[string]*Document
	CuratedCompanyData   map[string]*Document

	FinancialBriefing string
	NewsBriefing      string
	IndustryBriefing  string
	CompanyBriefing   string
	Briefings         map[string]string

	References []string

	Report string
}

// New creates the initial State for a job, as submitted in the research
// request.
func New(company, companyURL, industry, hqLocation string) *State {
	return &State{
		Company:    company,
		CompanyURL: companyURL,
		Industry:   industry,
		HQLocation: hqLocation,
	}
}

// Snapshot returns a shallow copy of the state safe to hand to a stage or
// an event subscriber: top-level fields are copied, and map/slice fields
// are never mutated by any stage after being written (stages always
// replace, never edit, a map they own), so a shallow copy is sufficient
// to prevent a reader from observing future writes.
func (s *State) Snapshot() *State {
	cp := *s
	return &cp
}

// Delta is the partial output of a single stage. Nil fields (and an
// empty Messages slice) mean "this stage did not touch this field"; the
// engine only overwrites fields a Delta sets, so a non-nil empty map
// replaces the current value.
type Delta struct {
	SiteScrape *SiteScrape
	Messages   []string

	FinancialData map[string]*Document
	NewsData      map[string]*Document
	IndustryData  map[string]*Document
	CompanyData   map[string]*Document

	CuratedFinancialData map[string]*Document
	CuratedNewsData      map[string]*Document
	CuratedIndustryData  map[string]*Document
	CuratedCompanyData   map[string]*Document

	FinancialBriefing *string
	NewsBriefing      *string
	IndustryBriefing  *string
	CompanyBriefing   *string
	Briefings         map[string]string

	References []string

	Report *string
}

// Merge applies a Delta on top of State, returning a new State value.
// Per the engine's merge policy: for the four category-data maps and
// their curated counterparts, each stage owns a disjoint key so a
// wholesale replace is equivalent to a conflict-free merge; Messages are
// appended, never replaced, since every stage's progress note should
// survive.
func Merge(base *State, d Delta) *State {
	next := base.Snapshot()

	if d.SiteScrape != nil {
		next.SiteScrape = d.SiteScrape
	}
	if len(d.Messages) > 0 {
		next.Messages = append(append([]string{}, base.Messages...), d.Messages...)
	}

	if d.FinancialData != nil {
		next.FinancialData = d.FinancialData
	}
	if d.NewsData != nil {
		next.NewsData = d.NewsData
	}
	if d.IndustryData != nil {
		next.IndustryData = d.IndustryData
	}
	if d.CompanyData != nil {
		next.CompanyData = d.CompanyData
	}

	if d.CuratedFinancialData != nil {
		next.CuratedFinancialData = d.CuratedFinancialData
	}
	if d.CuratedNewsData != nil {
		next.CuratedNewsData = d.CuratedNewsData
	}
	if d.CuratedIndustryData != nil {
		next.CuratedIndustryData = d.CuratedIndustryData
	}
	if d.CuratedCompanyData != nil {
		next.CuratedCompanyData = d.CuratedCompanyData
	}

	if d.FinancialBriefing != nil {
		next.FinancialBriefing = *d.FinancialBriefing
	}
	if d.NewsBriefing != nil {
		next.NewsBriefing = *d.NewsBriefing
	}
	if d.IndustryBriefing != nil {
		next.IndustryBriefing = *d.IndustryBriefing
	}
	if d.CompanyBriefing != nil {
		next.CompanyBriefing = *d.CompanyBriefing
	}
	if d.Briefings != nil {
		merged := make(map[string]string, len(base.Briefings)+len(d.Briefings))
		for k, v := range base.Briefings {
			merged[k] = v
		}
		for k, v := range d.Briefings {
			merged[k] = v
		}
		next.Briefings = merged
	}

	if d.References != nil {
		next.References = d.References
	}
	if d.Report != nil {
		next.Report = *d.Report
	}

	return next
}

// MergeAll folds a sequence of deltas (e.g. the four researcher outputs
// after a parallel fan-out) into base in order, returning the final
// state. Because the four category deltas write disjoint keys, order
// between them does not matter; order only matters for shared keys like
// Messages, which always append.
func MergeAll(base *State, deltas ...Delta) *State {
	state := base
	for _, d := range deltas {
		state = Merge(state, d)
	}
	return state
}
