package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxQueryLength keeps name-fallback queries short enough for the USDA search endpoint
const maxQueryLength = 100

// QueryPreprocessor turns a noisy consumer product name into a focused search query
type QueryPreprocessor struct {
	logger *zap.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "128 fl oz", "12 oz", "1.5 liter", "2 lb", "400g"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(?:fl\s*oz|oz|ounces?|lbs?|pounds?|ml|cl|l|liters?|litres?|gallons?|gal|quarts?|qt|pints?|pt|kg|grams?|g)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "60 capsules"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(?:pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*(?:cans?|bottles?|pouches?|bars?|pieces?|capsules?|tablets?|softgels?|gummies)\b`)

	// Matches standalone numbers left at either end (e.g., ", 128", "12 -")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	// Characters that the USDA proxy rejects with a 400
	specialCharsPattern = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `]`)

	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are marketing and packaging terms that never narrow a search
var queryNoiseWords = map[string]bool{
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "choice": true, "quality": true, "best": true,
	"great": true, "delicious": true, "tasty": true, "favorite": true, "special": true,

	"size": true, "large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "giant": true, "big": true, "single": true,

	"package": true, "box": true, "bag": true, "bottle": true, "can": true,
	"jar": true, "tub": true, "carton": true, "sleeve": true, "pouch": true,

	"food": true, "item": true, "product": true, "brand": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{logger: logger}
}

// PreprocessQuery cleans a consumer product name for a government-database name search.
// Removes size and pack counts, marketing terms and unsafe characters, then prepends the
// brand unless the name already contains it.
func (p *QueryPreprocessor) PreprocessQuery(productName, brand string) string {
	if strings.TrimSpace(productName) == "" {
		return ""
	}

	cleaned := strings.ReplaceAll(productName, "&", " and ")
	cleaned = specialCharsPattern.ReplaceAllString(cleaned, " ")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = cleanOrphanedPunctuation(cleaned)
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))

	brand = strings.TrimSpace(brand)
	if brand != "" && !strings.Contains(cleaned, strings.ToLower(brand)) {
		cleaned = strings.TrimSpace(brand + " " + cleaned)
	}

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		// cut at a word boundary when one is reasonably close
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	p.logger.Debug("preprocessed query", zap.String("input", productName), zap.String("output", cleaned))
	return cleaned
}

// removeNoiseWords lowercases s and drops marketing and generic terms
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))

	for _, word := range words {
		if !queryNoiseWords[strings.Trim(word, ",.!?;:-'\"")] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation left alone after earlier removals
func cleanOrphanedPunctuation(s string) string {
	s = orphanedPunctuationPattern.ReplaceAllString(s, " ")
	s = trailingPunctuationPattern.ReplaceAllString(s, "")
	return leadingPunctuationPattern.ReplaceAllString(s, "")
}

// normalizeKey lowercases s and collapses whitespace for use in cache and dedup keys
func normalizeKey(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(strings.ToLower(s), " "))
}
