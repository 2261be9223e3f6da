package service

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"

	"pricematch-service/internal/match/model"
)

// catalogueView carries the normalized fields of one matching run so they are
// computed once per run, not once per query item.
type catalogueView struct {
	cands []model.CatalogueCandidate
	names []string // normalized product names
	codes []string // normalized codes
	idx   *blockIndex
}

func buildView(cands []model.CatalogueCandidate, opt model.Options) *catalogueView {
	v := &catalogueView{
		cands: cands,
		names: make([]string, len(cands)),
		codes: make([]string, len(cands)),
	}
	for i := range cands {
		v.names[i] = Normalize(cands[i].ProductName)
		v.codes[i] = Normalize(cands[i].Code)
	}
	if opt.EnableBlocking {
		v.idx = buildBlockIndex(cands, v.names)
	}
	return v
}

// FindMatches ranks the catalogue against one query item.
//
// Never errors: a blank product name yields a skipped result, an empty
// catalogue yields empty suggestions with BestMatch nil and AutoMatched false.
func FindMatches(item model.QueryItem, cands []model.CatalogueCandidate, opt model.Options) model.MatchResult {
	return matchOne(item, buildView(cands, opt), opt)
}

// FindMatchesForItems ranks the catalogue against every query item, fanning
// out across a bounded worker pool. Results are written by input position, so
// row order is preserved regardless of scheduling. The context is checked
// between items only; the per-item compute path is pure and sub-millisecond.
// On cancellation the results computed so far are returned as-is, with
// empty results at the positions that were never dispatched.
func FindMatchesForItems(ctx context.Context, items []model.QueryItem, cands []model.CatalogueCandidate, opt model.Options) []model.MatchResult {
	results := make([]model.MatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	view := buildView(cands, opt)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = matchOne(items[i], view, opt)
			}
		}()
	}

	fed := make([]bool, len(items))
feed:
	for i := range items {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
			fed[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	// positions cut off by cancellation still carry their query item, so the
	// caller can associate partial results positionally
	for i := range results {
		if !fed[i] {
			results[i] = model.MatchResult{QueryItem: items[i], Suggestions: []model.MatchSuggestion{}}
		}
	}
	return results
}

func matchOne(item model.QueryItem, view *catalogueView, opt model.Options) model.MatchResult {
	res := model.MatchResult{QueryItem: item, Suggestions: []model.MatchSuggestion{}}

	if strings.TrimSpace(item.ProductName) == "" {
		// malformed input: flagged, not silently scored as zero everywhere
		res.Skipped = true
		return res
	}

	qNorm := Normalize(item.ProductName)
	qCode := ""
	if opt.UseSku {
		qCode = Normalize(item.Code)
	}

	var block map[int]struct{}
	if view.idx != nil {
		block = view.idx.candidatePositions(qNorm)
	}

	topK := opt.TopK
	if topK <= 0 {
		topK = model.DefaultOptions().TopK
	}

	sugg := make([]model.MatchSuggestion, 0, len(view.cands))
	for i := range view.cands {
		if block != nil && qCode == "" {
			if _, ok := block[i]; !ok {
				continue
			}
		}
		s := scoreAgainst(qNorm, qCode, view, i)
		tier := opt.Thresholds.Tier(s.Value)
		if tier == model.ConfidenceNone {
			continue // a NONE suggestion is no use to a reviewer
		}
		sugg = append(sugg, model.MatchSuggestion{
			Candidate:  view.cands[i],
			Score:      s.Value,
			Confidence: tier,
			MatchedOn:  s.MatchedOn,
		})
	}

	sortSuggestions(sugg)
	if len(sugg) > topK {
		sugg = sugg[:topK]
	}
	res.Suggestions = sugg

	if len(sugg) > 0 {
		best := sugg[0]
		res.BestMatch = &best
		res.AutoMatched = best.Confidence.AutoAcceptable()
	}
	return res
}

// scoreAgainst mirrors ScoreStrings but reuses the run's precomputed
// normalized candidate fields.
func scoreAgainst(qNorm, qCode string, view *catalogueView, i int) Score {
	if qCode != "" && qCode == view.codes[i] {
		return Score{Value: 1.0, MatchedOn: "code"}
	}
	cn := view.names[i]
	if qNorm == "" || cn == "" {
		return Score{Value: 0, MatchedOn: "name"}
	}

	char := charSimilarity(qNorm, cn)
	token := tokenSimilarity(qNorm, cn)
	wc := weightCharDefault
	if len(strings.Fields(qNorm)) >= minTokensForReweigh && len(strings.Fields(cn)) >= minTokensForReweigh {
		wc = weightCharMulti
	}
	return Score{Value: clamp01(wc*char + (1-wc)*token), MatchedOn: "name"}
}

// sortSuggestions orders by score descending; ties break to the shorter
// candidate name, then lexically, then by id. Fully deterministic.
func sortSuggestions(s []model.MatchSuggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		ni, nj := s[i].Candidate.ProductName, s[j].Candidate.ProductName
		if len(ni) != len(nj) {
			return len(ni) < len(nj)
		}
		if ni != nj {
			return ni < nj
		}
		return s[i].Candidate.ID < s[j].Candidate.ID
	})
}
