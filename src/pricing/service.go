package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"FlightRiskPricing/src/repository"
	"FlightRiskPricing/src/storage"
)

// PremiumService fronts the pricing model with a quote cache. The
// model can be swapped at runtime when the calibration file changes;
// swapping bumps a generation counter baked into cache keys, so stale
// quotes are never served.
type PremiumService struct {
	mu     sync.RWMutex
	model  *PricingModel
	gen    uint64
	cache  repository.QuoteCache
	logger *storage.Logger
}

// NewPremiumService wires a model to a cache. cache and logger may be
// nil; a nil cache disables the lookaside.
func NewPremiumService(model *PricingModel, cache repository.QuoteCache, logger *storage.Logger) *PremiumService {
	return &PremiumService{
		model:  model,
		cache:  cache,
		logger: logger,
	}
}

func (s *PremiumService) Model() *PricingModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel installs a recalibrated model and invalidates cached
// quotes by moving to the next key generation.
func (s *PremiumService) SetModel(model *PricingModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.gen++
}

// Quote prices a flight, serving from the cache when possible. Cache
// failures degrade to recomputation and are only logged.
func (s *PremiumService) Quote(req FlightRequest) (*PremiumResult, error) {
	s.mu.RLock()
	model, gen := s.model, s.gen
	s.mu.RUnlock()

	key := quoteKey(gen, req)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			var res PremiumResult
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				return &res, nil
			}
			if s.logger != nil {
				s.logger.Warning("discarding corrupt cached quote for " + key)
			}
		}
	}

	res, err := model.CalculatePremium(req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			if err := s.cache.Set(key, string(payload)); err != nil && s.logger != nil {
				s.logger.Warning("quote cache set failed: " + err.Error())
			}
		}
	}

	return res, nil
}

func quoteKey(gen uint64, req FlightRequest) string {
	base := "default"
	if req.BasePremium != nil {
		base = strconv.FormatFloat(*req.BasePremium, 'f', -1, 64)
	}
	return fmt.Sprintf("quote:%d:%s:%s:%s:%s:%d:%s",
		gen, req.Airline, req.Departure, req.Arrival, req.Date, req.Hour, base)
}
