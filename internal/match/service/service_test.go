package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricematch-service/internal/match/model"
)

func cand(id, name, code string) model.CatalogueCandidate {
	return model.CatalogueCandidate{ID: id, ProductName: name, Code: code, Price: decimal.New(100, -2)}
}

func item(row int, name, code string) model.QueryItem {
	return model.QueryItem{RowIndex: row, ProductName: name, Code: code, Quantity: decimal.NewFromInt(1)}
}

func TestFindMatches_ExactNameIsExactTier(t *testing.T) {
	cands := []model.CatalogueCandidate{
		cand("c1", "Tomato 1kg", ""),
		cand("c2", "Wheat Flour 2kg", ""),
	}
	res := FindMatches(item(1, "tomato 1KG", ""), cands, model.DefaultOptions())

	require.NotNil(t, res.BestMatch)
	assert.Equal(t, "c1", res.BestMatch.Candidate.ID)
	assert.Equal(t, 1.0, res.BestMatch.Score)
	assert.Equal(t, model.ConfidenceExact, res.BestMatch.Confidence)
	assert.True(t, res.AutoMatched)
}

func TestFindMatches_CodeShortCircuit(t *testing.T) {
	cands := []model.CatalogueCandidate{
		cand("c1", "Something else entirely", "SKU-9"),
	}
	res := FindMatches(item(1, "Tomato 1kg", "sku-9"), cands, model.DefaultOptions())

	require.NotNil(t, res.BestMatch)
	assert.Equal(t, "code", res.BestMatch.MatchedOn)
	assert.Equal(t, model.ConfidenceExact, res.BestMatch.Confidence)
	assert.True(t, res.AutoMatched)
}

func TestFindMatches_EmptyCatalogue(t *testing.T) {
	res := FindMatches(item(1, "Tomato 1kg", ""), nil, model.DefaultOptions())

	assert.Empty(t, res.Suggestions)
	assert.Nil(t, res.BestMatch)
	assert.False(t, res.AutoMatched)
	assert.False(t, res.Skipped)
}

func TestFindMatches_BlankNameIsSkipped(t *testing.T) {
	cands := []model.CatalogueCandidate{cand("c1", "Tomato 1kg", "")}
	res := FindMatches(item(1, "   ", ""), cands, model.DefaultOptions())

	assert.True(t, res.Skipped)
	assert.Empty(t, res.Suggestions)
	assert.Nil(t, res.BestMatch)
	assert.False(t, res.AutoMatched)
}

func TestFindMatches_NoneTierExcluded(t *testing.T) {
	cands := []model.CatalogueCandidate{cand("c1", "apple", "")}
	res := FindMatches(item(1, "zzzz", ""), cands, model.DefaultOptions())

	assert.Empty(t, res.Suggestions, "a NONE suggestion must not reach a reviewer")
	assert.Nil(t, res.BestMatch)
	assert.False(t, res.AutoMatched)
}

func TestFindMatches_AutoMatchSafety(t *testing.T) {
	// "organic tomaten 1kg" vs "organic tomato 1kg" lands mid-band:
	// close enough to suggest, not close enough to link silently.
	cands := []model.CatalogueCandidate{cand("c1", "organic tomato 1kg", "")}
	res := FindMatches(item(1, "organic tomaten 1kg", ""), cands, model.DefaultOptions())

	require.NotNil(t, res.BestMatch)
	assert.False(t, res.BestMatch.Confidence.AutoAcceptable())
	assert.False(t, res.AutoMatched)

	// the same score auto-matches once the caller lowers the HIGH bar,
	// proving the gate is the tier, not the raw score
	opt := model.DefaultOptions()
	opt.Thresholds.High = 0.5
	opt.Thresholds.Medium = 0.45
	res = FindMatches(item(1, "organic tomaten 1kg", ""), cands, opt)
	require.NotNil(t, res.BestMatch)
	assert.Equal(t, model.ConfidenceHigh, res.BestMatch.Confidence)
	assert.True(t, res.AutoMatched)
}

func TestFindMatches_TopKBound(t *testing.T) {
	var cands []model.CatalogueCandidate
	for i := 0; i < 10; i++ {
		cands = append(cands, cand(fmt.Sprintf("c%d", i), "tomato 1kg", ""))
	}
	opt := model.DefaultOptions()
	opt.TopK = 3
	res := FindMatches(item(1, "tomato 1kg", ""), cands, opt)
	assert.Len(t, res.Suggestions, 3)
}

func TestFindMatches_DeterministicTieBreak(t *testing.T) {
	// equal scores: shorter name wins, then lexical, then id
	cands := []model.CatalogueCandidate{
		cand("c2", "tomato 1kg", ""),
		cand("c1", "tomato 1kg", ""),
	}
	opt := model.DefaultOptions()
	first := FindMatches(item(1, "tomato 1kg", ""), cands, opt)
	for i := 0; i < 20; i++ {
		res := FindMatches(item(1, "tomato 1kg", ""), cands, opt)
		require.Equal(t, first.Suggestions, res.Suggestions)
	}
	assert.Equal(t, "c1", first.Suggestions[0].Candidate.ID)
}

func TestSortSuggestions_ShorterNameWinsTies(t *testing.T) {
	s := []model.MatchSuggestion{
		{Candidate: cand("a", "tomato 1kg extra", ""), Score: 0.9},
		{Candidate: cand("b", "tomato 1kg", ""), Score: 0.9},
		{Candidate: cand("c", "zz", ""), Score: 0.95},
	}
	sortSuggestions(s)
	assert.Equal(t, "c", s[0].Candidate.ID) // highest score first
	assert.Equal(t, "b", s[1].Candidate.ID) // then shorter name
	assert.Equal(t, "a", s[2].Candidate.ID)
}

func TestFindMatchesForItems_PreservesRowOrder(t *testing.T) {
	var items []model.QueryItem
	for i := 1; i <= 50; i++ {
		items = append(items, item(i, fmt.Sprintf("product number %d", i), ""))
	}
	cands := []model.CatalogueCandidate{
		cand("c1", "product number 7", ""),
		cand("c2", "product number 23", ""),
	}

	results := FindMatchesForItems(context.Background(), items, cands, model.DefaultOptions())
	require.Len(t, results, 50)
	for i, r := range results {
		assert.Equal(t, i+1, r.QueryItem.RowIndex)
	}
}

func TestFindMatchesForItems_DeterministicAcrossRuns(t *testing.T) {
	var items []model.QueryItem
	for i := 1; i <= 20; i++ {
		items = append(items, item(i, fmt.Sprintf("item %d of many", i), ""))
	}
	cands := []model.CatalogueCandidate{
		cand("c1", "item 3 of many", ""),
		cand("c2", "item 13 of many", ""),
	}
	first := FindMatchesForItems(context.Background(), items, cands, model.DefaultOptions())
	for run := 0; run < 5; run++ {
		assert.Equal(t, first, FindMatchesForItems(context.Background(), items, cands, model.DefaultOptions()))
	}
}

func TestFindMatchesForItems_CancelledContextKeepsPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var items []model.QueryItem
	for i := 1; i <= 10; i++ {
		items = append(items, item(i, "tomato 1kg", ""))
	}
	cands := []model.CatalogueCandidate{cand("c1", "tomato 1kg", "")}

	results := FindMatchesForItems(ctx, items, cands, model.DefaultOptions())
	require.Len(t, results, 10)
	for i, r := range results {
		// partial results stay positionally valid
		assert.Equal(t, i+1, r.QueryItem.RowIndex)
	}
}

func TestFindMatchesForItems_BlockingDoesNotChangeBestMatch(t *testing.T) {
	var cands []model.CatalogueCandidate
	for i := 0; i < 30; i++ {
		cands = append(cands, cand(fmt.Sprintf("c%d", i), fmt.Sprintf("catalogue product %d", i), ""))
	}
	cands = append(cands, cand("hit", "Tomaten 1kg", ""))

	items := []model.QueryItem{item(1, "tomaten 1kg", "")}

	plain := FindMatchesForItems(context.Background(), items, cands, model.DefaultOptions())
	opt := model.DefaultOptions()
	opt.EnableBlocking = true
	blocked := FindMatchesForItems(context.Background(), items, cands, opt)

	require.NotNil(t, plain[0].BestMatch)
	require.NotNil(t, blocked[0].BestMatch)
	assert.Equal(t, plain[0].BestMatch.Candidate.ID, blocked[0].BestMatch.Candidate.ID)
	assert.Equal(t, plain[0].BestMatch.Score, blocked[0].BestMatch.Score)
}
