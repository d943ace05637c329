package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/macrolens/tracker/internal/domain"
	"go.uber.org/zap"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Scoring bonuses
const (
	brandMatchBonus     = 25.0 // Query brand matches the label brand
	substringMatchBonus = 10.0 // Product name is a substring of the label title, or the reverse
	defaultThreshold    = 40.0
)

// extendedStopWords includes basic English stop words plus label and packaging noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	// Dosage units
	"iu": true, "mcg": true, "mg": true, "ug": true, "dfe": true, "rae": true,
	"oz": true, "fl": true, "ml": true, "gram": true, "grams": true,
	// Dosage forms
	"capsule": true, "capsules": true, "softgel": true, "softgels": true,
	"tablet": true, "tablets": true, "gummy": true, "gummies": true,
	"caplet": true, "caplets": true, "veggie": true, "vegetarian": true,
	// Packaging terms
	"pack": true, "count": true, "ct": true, "bottle": true, "jar": true,
	// Marketing/generic terms
	"supplement": true, "dietary": true, "formula": true, "support": true,
	"serving": true, "servings": true, "new": true, "value": true, "size": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	FuzzyEditDistance      int
}

// LabelMatch is the best supplement label for a consumer product
type LabelMatch struct {
	Hit           domain.DSLDSearchHit
	Score         float64
	MatchedTokens []string
}

// MatchingService picks the supplement label whose title and brand best match a consumer product
type MatchingService struct {
	minConfidenceThreshold float64
	enableFuzzyMatching    bool
	fuzzyEditDistance      int
	logger                 *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	threshold := config.MinConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		minConfidenceThreshold: threshold,
		enableFuzzyMatching:    config.EnableFuzzyMatching,
		fuzzyEditDistance:      fuzzyDist,
		logger:                 logger,
	}
}

// BestLabel scores every hit against the product name and brand and returns the highest.
// Ties keep the earlier hit. Returns domain.ErrProductNotFound when nothing reaches the threshold.
func (s *MatchingService) BestLabel(
	ctx context.Context,
	productName, brand string,
	hits []domain.DSLDSearchHit,
) (*LabelMatch, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	var best *LabelMatch
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, matched := s.calculateMatchScore(productName, brand, hit.Source.FullName, hit.Source.BrandName)
		s.logger.Debug("label scored",
			zap.String("label", hit.Source.FullName),
			zap.String("brand", hit.Source.BrandName),
			zap.Float64("score", score),
			zap.Strings("matched", matched))

		if best == nil || score > best.Score {
			best = &LabelMatch{Hit: hit, Score: score, MatchedTokens: matched}
		}
	}

	if best == nil {
		return nil, domain.ErrProductNotFound
	}
	if best.Score < s.minConfidenceThreshold {
		return nil, fmt.Errorf("%w: best label %q scored %.1f", domain.ErrProductNotFound, best.Hit.Source.FullName, best.Score)
	}
	return best, nil
}

// calculateMatchScore computes similarity between a product and a label.
// Uses a weighted combination of:
//   - Product token coverage: what % of the product name tokens appear in the label title (most important)
//   - Label token coverage: what % of the label title tokens appear in the product name
//   - Jaccard similarity
//
// plus bonuses for a brand match and a substring match. Returns the score (0-100)
// and the list of matched tokens.
func (s *MatchingService) calculateMatchScore(productName, brand, labelTitle, labelBrand string) (float64, []string) {
	cleanedProduct := cleanProductNameForMatching(productName)
	productTokens := tokenize(cleanedProduct)
	labelTokens := tokenize(labelTitle)

	if len(productTokens) == 0 || len(labelTokens) == 0 {
		return 0, nil
	}

	productMatched, matchedTokens := s.findIntersection(productTokens, labelTokens)
	productCoverage := float64(productMatched) / float64(len(productTokens))

	labelMatched, _ := s.findIntersection(labelTokens, productTokens)
	labelCoverage := float64(labelMatched) / float64(len(labelTokens))

	jaccard := float64(productMatched) / float64(findUnion(productTokens, labelTokens))

	score := (productCoverage*0.60 + labelCoverage*0.20 + jaccard*0.20) * 100

	if brandsMatch(brand, labelBrand, labelTitle) {
		score += brandMatchBonus
	}

	productLower := strings.ToLower(cleanedProduct)
	labelLower := strings.ToLower(labelTitle)
	if len(productLower) > 3 && (strings.Contains(labelLower, productLower) || strings.Contains(productLower, labelLower)) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}

	return score, matchedTokens
}

// brandsMatch compares brands loosely: "NOW" matches "NOW Foods", and a brand named in the title counts
func brandsMatch(brand, labelBrand, labelTitle string) bool {
	brand = normalizeKey(punctuationRegex.ReplaceAllString(brand, " "))
	if brand == "" {
		return false
	}

	labelBrand = normalizeKey(punctuationRegex.ReplaceAllString(labelBrand, " "))
	if labelBrand != "" && (strings.Contains(labelBrand, brand) || strings.Contains(brand, labelBrand)) {
		return true
	}
	return strings.Contains(strings.ToLower(labelTitle), brand)
}

// cleanProductNameForMatching strips everything after the first comma and any size or pack count
func cleanProductNameForMatching(name string) string {
	if idx := strings.Index(name, ","); idx > 0 {
		name = name[:idx]
	}

	name = sizeQuantityPattern.ReplaceAllString(name, " ")
	name = packCountPattern.ReplaceAllString(name, " ")

	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words, label noise, and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || extendedStopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens of 4+ chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findIntersection returns how many distinct tokens of tokens1 occur in tokens2, and which.
// With fuzzy matching enabled a token within the edit distance also counts.
func (s *MatchingService) findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool, len(tokens2))
	for _, t := range tokens2 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens1 {
		if seen[t] {
			continue
		}
		seen[t] = true

		if set[t] || (s.enableFuzzyMatching && s.fuzzyContains(tokens2, t)) {
			matched = append(matched, t)
		}
	}

	return len(matched), matched
}

func (s *MatchingService) fuzzyContains(tokens []string, token string) bool {
	for _, candidate := range tokens {
		if fuzzyTokenMatch(token, candidate, s.fuzzyEditDistance) {
			return true
		}
	}
	return false
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
