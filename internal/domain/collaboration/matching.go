package collaboration

import (
	"sort"
	"strings"

	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIERED MATCH GENERATOR
//
// Staged pipeline over in-memory trait sets:
//   eligible -> score -> assign tier -> rank -> pick top per tier
//
// Tiers 1-3 require at least Threshold overlapping categories. Each candidate
// gets the first tier it qualifies for. Tier 4 is drawn from every eligible
// candidate not already surfaced, ranked by its best partial overlap.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMatchThreshold is the minimum number of overlapping categories for tiers 1-3.
const DefaultMatchThreshold = 3

// Profile is a mentorship together with its classified traits.
type Profile struct {
	Mentorship *mentorship.Mentorship
	Traits     mentorship.TraitSet
}

// MatchInput is everything the generator needs for one seeking mentorship.
type MatchInput struct {
	Seeker     Profile
	Candidates []Profile

	// ActiveCollaborations involving the seeker, either side.
	ActiveCollaborations []*Collaboration

	// PendingRequests involving the seeker's SE, either side.
	PendingRequests []*Request
}

// Overlap holds the category intersections between seeker and candidate.
type Overlap struct {
	// Complementary: candidate strengths that are seeker weaknesses.
	Complementary []string
	// SharedStrengths: strong on both sides.
	SharedStrengths []string
	// SharedWeaknesses: weak on both sides.
	SharedWeaknesses []string
}

// For returns the overlap that defines tier t. Fallback has none of its own.
func (o Overlap) For(t Tier) []string {
	switch t {
	case TierComplementary:
		return o.Complementary
	case TierSharedStrength:
		return o.SharedStrengths
	case TierSharedWeakness:
		return o.SharedWeaknesses
	default:
		return nil
	}
}

// BestPartial returns the highest-priority tier with a non-empty overlap,
// ignoring the threshold. It is used to rank fallback candidates.
func (o Overlap) BestPartial() Tier {
	for _, t := range []Tier{TierComplementary, TierSharedStrength, TierSharedWeakness} {
		if len(o.For(t)) > 0 {
			return t
		}
	}
	return tierNone
}

// Suggestion is one surfaced candidate.
type Suggestion struct {
	Tier              Tier
	CardID            string
	Candidate         Party
	MatchedCategories []string
	// Basis is the overlap the suggestion was ranked on. For tiers 1-3 it
	// equals Tier; for fallback it is the best partial overlap, or zero.
	Basis Tier

	SeekerStrengths     []string
	SeekerWeaknesses    []string
	CandidateStrengths  []string
	CandidateWeaknesses []string
}

// MatchCount is the number of matched categories.
func (s Suggestion) MatchCount() int {
	return len(s.MatchedCategories)
}

// Scored is a candidate after the score and tier stages.
type Scored struct {
	Profile Profile
	CardID  string
	Overlap Overlap
	// Primary is the first tier (1-3) whose threshold is met, or zero.
	Primary Tier
}

// Matcher runs the pipeline.
type Matcher struct {
	threshold int
}

// NewMatcher creates a Matcher. A non-positive threshold falls back to
// DefaultMatchThreshold.
func NewMatcher(threshold int) Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return Matcher{threshold: threshold}
}

// Threshold returns the configured tier 1-3 threshold.
func (m Matcher) Threshold() int {
	return m.threshold
}

// Suggest returns at most one suggestion per tier, ordered by tier.
func (m Matcher) Suggest(in MatchInput) []Suggestion {
	if in.Seeker.Mentorship == nil {
		return []Suggestion{}
	}

	scored := m.Score(in.Seeker, Eligible(in))
	blocked := BlockedTiers(in.Seeker.Mentorship.SEID, in.PendingRequests)

	out := make([]Suggestion, 0, len(Tiers))
	surfaced := make(map[string]bool)

	for _, t := range []Tier{TierComplementary, TierSharedStrength, TierSharedWeakness} {
		if blocked[t] {
			continue
		}
		pool := make([]Scored, 0)
		for _, s := range scored {
			if s.Primary == t {
				pool = append(pool, s)
			}
		}
		if len(pool) == 0 {
			continue
		}
		RankTier(pool, t)
		top := pool[0]
		surfaced[top.Profile.Mentorship.ID] = true
		out = append(out, newSuggestion(in.Seeker, top, t, t))
	}

	if !blocked[TierFallback] {
		pool := make([]Scored, 0, len(scored))
		for _, s := range scored {
			if !surfaced[s.Profile.Mentorship.ID] {
				pool = append(pool, s)
			}
		}
		if len(pool) > 0 {
			RankFallback(pool)
			top := pool[0]
			out = append(out, newSuggestion(in.Seeker, top, TierFallback, top.Overlap.BestPartial()))
		}
	}

	return out
}

// Eligible applies the exclusions: same mentorship, inactive, same mentor,
// same SE, an active collaboration in either direction, or a Pending request
// on the pairing's card in either direction.
func Eligible(in MatchInput) []Profile {
	seeker := in.Seeker.Mentorship

	pendingCards := make(map[string]bool, len(in.PendingRequests))
	for _, r := range in.PendingRequests {
		if r.IsPending() {
			pendingCards[strings.ToLower(r.CardID)] = true
		}
	}

	out := make([]Profile, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		cand := c.Mentorship
		if cand == nil || cand.ID == seeker.ID || !cand.IsActive() {
			continue
		}
		if cand.MentorID == seeker.MentorID || cand.SEID == seeker.SEID {
			continue
		}
		if linked(in.ActiveCollaborations, seeker.ID, cand.ID) {
			continue
		}
		forward, err := BuildCardIDFromStrings(cand.SEID, seeker.SEID)
		if err != nil {
			continue
		}
		reverse, _ := BuildCardIDFromStrings(seeker.SEID, cand.SEID)
		if pendingCards[forward] || pendingCards[reverse] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func linked(collabs []*Collaboration, a, b string) bool {
	for _, c := range collabs {
		if c.Status && c.Links(a, b) {
			return true
		}
	}
	return false
}

// BlockedTiers returns the tiers that already have a Pending request where
// the SE is the seeking side.
func BlockedTiers(seekingSEID string, pending []*Request) map[Tier]bool {
	out := make(map[Tier]bool)
	for _, r := range pending {
		if r.IsPending() && strings.EqualFold(r.Seeking.SEID, seekingSEID) {
			out[r.Tier] = true
		}
	}
	return out
}

// Score computes overlaps and primary tiers.
func (m Matcher) Score(seeker Profile, candidates []Profile) []Scored {
	seekerStrong := toSet(seeker.Traits.Strengths())
	seekerWeak := toSet(seeker.Traits.Weaknesses())

	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		card, err := BuildCardIDFromStrings(c.Mentorship.SEID, seeker.Mentorship.SEID)
		if err != nil {
			continue
		}
		ov := Overlap{
			Complementary:    intersect(c.Traits.Strengths(), seekerWeak),
			SharedStrengths:  intersect(c.Traits.Strengths(), seekerStrong),
			SharedWeaknesses: intersect(c.Traits.Weaknesses(), seekerWeak),
		}
		out = append(out, Scored{
			Profile: c,
			CardID:  card,
			Overlap: ov,
			Primary: m.AssignTier(ov),
		})
	}
	return out
}

// AssignTier returns the first tier whose overlap meets the threshold.
func (m Matcher) AssignTier(ov Overlap) Tier {
	for _, t := range []Tier{TierComplementary, TierSharedStrength, TierSharedWeakness} {
		if len(ov.For(t)) >= m.threshold {
			return t
		}
	}
	return tierNone
}

// RankTier orders candidates of one tier by matched count desc, then mentor
// name, then mentorship id.
func RankTier(pool []Scored, t Tier) {
	sort.SliceStable(pool, func(i, j int) bool {
		ci, cj := len(pool[i].Overlap.For(t)), len(pool[j].Overlap.For(t))
		if ci != cj {
			return ci > cj
		}
		return pool[i].Profile.Mentorship.SortKey() < pool[j].Profile.Mentorship.SortKey()
	})
}

// RankFallback orders by best partial overlap (complementary first, none
// last), then its size desc, then mentor name, then mentorship id.
func RankFallback(pool []Scored) {
	rank := func(t Tier) int {
		if t == tierNone {
			return int(TierFallback)
		}
		return int(t)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		bi, bj := pool[i].Overlap.BestPartial(), pool[j].Overlap.BestPartial()
		if rank(bi) != rank(bj) {
			return rank(bi) < rank(bj)
		}
		ci, cj := len(pool[i].Overlap.For(bi)), len(pool[j].Overlap.For(bj))
		if ci != cj {
			return ci > cj
		}
		return pool[i].Profile.Mentorship.SortKey() < pool[j].Profile.Mentorship.SortKey()
	})
}

func newSuggestion(seeker Profile, s Scored, tier, basis Tier) Suggestion {
	matched := s.Overlap.For(basis)
	if matched == nil {
		matched = []string{}
	}
	return Suggestion{
		Tier:                tier,
		CardID:              s.CardID,
		Candidate:           PartyOf(s.Profile.Mentorship),
		MatchedCategories:   matched,
		Basis:               basis,
		SeekerStrengths:     seeker.Traits.Strengths(),
		SeekerWeaknesses:    seeker.Traits.Weaknesses(),
		CandidateStrengths:  s.Profile.Traits.Strengths(),
		CandidateWeaknesses: s.Profile.Traits.Weaknesses(),
	}
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}

// intersect keeps the order of items, which is category-name order.
func intersect(items []string, set map[string]bool) []string {
	out := make([]string, 0)
	for _, it := range items {
		if set[it] {
			out = append(out, it)
		}
	}
	return out
}
