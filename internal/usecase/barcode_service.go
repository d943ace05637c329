package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/macrolens/tracker/internal/infrastructure/dsld"
	"github.com/macrolens/tracker/internal/infrastructure/metrics"
	"github.com/macrolens/tracker/internal/infrastructure/openfoodfacts"
	"github.com/macrolens/tracker/internal/infrastructure/usda"
	"go.uber.org/zap"
)

// stepOutcome is what a single pipeline step contributed
type stepOutcome int

const (
	// stepEmpty means the source answered but had nothing usable
	stepEmpty stepOutcome = iota
	// stepFound means the step produced a non-empty food
	stepFound
	// stepUnavailable means the source failed or timed out
	stepUnavailable
)

func (o stepOutcome) String() string {
	switch o {
	case stepFound:
		return metrics.OutcomeFound
	case stepUnavailable:
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeEmpty
	}
}

// stepResult is the tri-state result of a pipeline step.
// An Empty result may still carry a food (a named consumer product without nutrition).
type stepResult struct {
	Outcome stepOutcome
	Food    *domain.Food
}

func found(f *domain.Food) stepResult { return stepResult{Outcome: stepFound, Food: f} }

func empty(f *domain.Food) stepResult { return stepResult{Outcome: stepEmpty, Food: f} }

func unavailable() stepResult { return stepResult{Outcome: stepUnavailable} }

// barcodeLookup carries what earlier steps learned to later ones
type barcodeLookup struct {
	barcode    string
	userID     string
	name       string
	brand      *string
	supplement bool
}

// BarcodeService resolves a barcode to a nutrition preview across every source
type BarcodeService struct {
	foods        domain.FoodRepository
	offClient    domain.OpenFoodFactsClient
	dsldClient   domain.DSLDClient
	usdaClient   domain.USDAClient
	matcher      *MatchingService
	preprocessor *QueryPreprocessor
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewBarcodeService creates a new barcode service with dependencies
func NewBarcodeService(
	foods domain.FoodRepository,
	offClient domain.OpenFoodFactsClient,
	dsldClient domain.DSLDClient,
	usdaClient domain.USDAClient,
	matcher *MatchingService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BarcodeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{}, logger)
	}

	return &BarcodeService{
		foods:        foods,
		offClient:    offClient,
		dsldClient:   dsldClient,
		usdaClient:   usdaClient,
		matcher:      matcher,
		preprocessor: NewQueryPreprocessor(logger),
		metrics:      m,
		logger:       logger.Named("barcode"),
	}
}

// Resolve returns the stored food for barcode or a non-persisted preview built from
// the external sources. Flow: local store -> OpenFoodFacts -> DSLD (supplements only)
// -> USDA (only when nothing better was found) -> precedence -> emptiness gate.
func (s *BarcodeService) Resolve(ctx context.Context, barcode, userID string) (*domain.Food, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidRequest)
	}

	lookup := &barcodeLookup{barcode: barcode, userID: userID}

	if local := s.lookupLocal(ctx, lookup); local.Outcome == stepFound {
		s.metrics.IncBarcodeResolution(string(domain.SourceLocal))
		return local.Food, nil
	}

	consumer := s.lookupConsumer(ctx, lookup)

	var supplement stepResult
	if lookup.supplement && lookup.name != "" {
		supplement = s.lookupSupplement(ctx, lookup)
	}

	var government stepResult
	if consumer.Outcome != stepFound && supplement.Outcome != stepFound {
		government = s.lookupGovernment(ctx, lookup)
	}

	food := s.choose(lookup, supplement, government, consumer)
	if food == nil || (food.Category != domain.CategorySupplement && food.IsEmpty()) {
		s.metrics.IncBarcodeResolution("not_found")
		s.logger.Debug("no usable nutrition", zap.String("barcode", barcode))
		return nil, domain.ErrProductNotFound
	}

	s.metrics.IncBarcodeResolution(string(food.Source))
	s.logger.Debug("barcode resolved",
		zap.String("barcode", barcode),
		zap.String("source", string(food.Source)),
		zap.String("name", food.Name))
	return food, nil
}

// lookupLocal returns a stored non-empty food. A stored empty row counts as a miss.
func (s *BarcodeService) lookupLocal(ctx context.Context, lookup *barcodeLookup) stepResult {
	food, err := s.foods.FindByBarcode(ctx, lookup.barcode, lookup.userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("local lookup failed", zap.String("barcode", lookup.barcode), zap.Error(err))
			return unavailable()
		}
		return empty(nil)
	}
	if food.IsEmpty() {
		return empty(food)
	}
	return found(food)
}

// lookupConsumer queries OpenFoodFacts and records the product's naming and supplement flag
func (s *BarcodeService) lookupConsumer(ctx context.Context, lookup *barcodeLookup) stepResult {
	start := time.Now()
	result := s.consumerResult(ctx, lookup)
	s.metrics.ObserveLookup(string(domain.SourceOpenFoodFacts), result.Outcome.String(), time.Since(start))
	return result
}

func (s *BarcodeService) consumerResult(ctx context.Context, lookup *barcodeLookup) stepResult {
	product, err := s.offClient.GetProduct(ctx, lookup.barcode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return empty(nil)
		}
		s.logger.Debug("openfoodfacts unavailable", zap.String("barcode", lookup.barcode), zap.Error(err))
		return unavailable()
	}

	lookup.supplement = openfoodfacts.IsSupplement(*product)
	food := openfoodfacts.ToFood(*product)
	if food == nil {
		return empty(nil)
	}
	lookup.name = food.Name
	lookup.brand = food.Brand

	if food.IsEmpty() {
		return empty(food)
	}
	return found(food)
}

// lookupSupplement finds the DSLD label that best matches the consumer name and brand
func (s *BarcodeService) lookupSupplement(ctx context.Context, lookup *barcodeLookup) stepResult {
	start := time.Now()
	result := s.supplementResult(ctx, lookup)
	s.metrics.ObserveLookup(string(domain.SourceDSLD), result.Outcome.String(), time.Since(start))
	return result
}

func (s *BarcodeService) supplementResult(ctx context.Context, lookup *barcodeLookup) stepResult {
	brand := ""
	if lookup.brand != nil {
		brand = *lookup.brand
	}

	hits, err := s.dsldClient.Search(ctx, strings.TrimSpace(lookup.name+" "+brand))
	if err != nil {
		return s.sourceFailure(domain.SourceDSLD, lookup, err)
	}

	match, err := s.matcher.BestLabel(ctx, lookup.name, brand, hits)
	if err != nil {
		return s.sourceFailure(domain.SourceDSLD, lookup, err)
	}

	label, err := s.dsldClient.GetLabel(ctx, match.Hit.ID)
	if err != nil {
		return s.sourceFailure(domain.SourceDSLD, lookup, err)
	}

	food := dsld.ToFood(*label)
	if food == nil || food.IsEmpty() {
		return empty(food)
	}
	return found(food)
}

// lookupGovernment searches USDA by barcode, then by the cleaned consumer name
func (s *BarcodeService) lookupGovernment(ctx context.Context, lookup *barcodeLookup) stepResult {
	start := time.Now()
	result := s.governmentResult(ctx, lookup)
	s.metrics.ObserveLookup(string(domain.SourceUSDA), result.Outcome.String(), time.Since(start))
	return result
}

func (s *BarcodeService) governmentResult(ctx context.Context, lookup *barcodeLookup) stepResult {
	resp, err := s.usdaClient.SearchFoods(ctx, lookup.barcode)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return s.sourceFailure(domain.SourceUSDA, lookup, err)
	}

	var foods []domain.USDAFood
	if resp != nil {
		foods = resp.Foods
	}

	if len(foods) == 0 {
		brand := ""
		if lookup.brand != nil {
			brand = *lookup.brand
		}
		query := s.preprocessor.PreprocessQuery(lookup.name, brand)
		if query == "" {
			return empty(nil)
		}

		resp, err = s.usdaClient.SearchFoods(ctx, query)
		if err != nil {
			return s.sourceFailure(domain.SourceUSDA, lookup, err)
		}
		foods = brandedFirst(resp.Foods)
	}

	for _, candidate := range foods {
		if food := usda.ToFood(candidate); food != nil {
			s.logger.Debug("usda candidate accepted",
				zap.String("barcode", lookup.barcode),
				zap.String("fdc_id", usda.FdcID(candidate)))
			if food.IsEmpty() {
				return empty(food)
			}
			return found(food)
		}
	}
	return empty(nil)
}

// sourceFailure maps a step error to Empty for "nothing matched" and Unavailable otherwise
func (s *BarcodeService) sourceFailure(source domain.FoodSource, lookup *barcodeLookup, err error) stepResult {
	if errors.Is(err, domain.ErrNotFound) {
		return empty(nil)
	}
	s.logger.Debug("source unavailable",
		zap.String("source", string(source)),
		zap.String("barcode", lookup.barcode),
		zap.Error(err))
	return unavailable()
}

// choose applies supplement > government > consumer precedence and stamps the
// request's barcode, category and consumer naming onto the winner
func (s *BarcodeService) choose(lookup *barcodeLookup, supplement, government, consumer stepResult) *domain.Food {
	var food *domain.Food
	switch {
	case supplement.Outcome == stepFound:
		food = supplement.Food
	case government.Outcome == stepFound:
		food = government.Food
	case consumer.Food != nil:
		food = consumer.Food
	default:
		return nil
	}

	food = food.Clone()
	food.ID = ""
	food.UserID = nil
	food.Barcode = domain.StringPtr(lookup.barcode)

	if food.Source != domain.SourceOpenFoodFacts && lookup.name != "" {
		food.Name = lookup.name
		if lookup.brand != nil {
			food.Brand = domain.StringPtr(*lookup.brand)
		}
	}

	if lookup.supplement || food.Source == domain.SourceDSLD {
		food.Category = domain.CategorySupplement
	} else {
		food.Category = domain.CategoryFood
	}
	return food
}

// brandedFirst stably moves Branded entries ahead of generic and survey entries
func brandedFirst(foods []domain.USDAFood) []domain.USDAFood {
	sorted := make([]domain.USDAFood, len(foods))
	copy(sorted, foods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DataType == domain.USDADataTypeBranded && sorted[j].DataType != domain.USDADataTypeBranded
	})
	return sorted
}
