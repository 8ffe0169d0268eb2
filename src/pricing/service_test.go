package pricing

import (
	"errors"
	"testing"
)

// spyCache records traffic so tests can tell cache hits from recomputations.
type spyCache struct {
	Data     map[string]string
	GetCalls int
	SetCalls int
	FailSet  bool
}

func newSpyCache() *spyCache {
	return &spyCache{Data: map[string]string{}}
}

func (c *spyCache) Get(key string) (string, bool) {
	c.GetCalls++
	v, ok := c.Data[key]
	return v, ok
}

func (c *spyCache) Set(key, value string) error {
	c.SetCalls++
	if c.FailSet {
		return errors.New("cache unavailable")
	}
	c.Data[key] = value
	return nil
}

func testRequest() FlightRequest {
	return FlightRequest{Airline: "SV", Departure: "HKG", Arrival: "SUB", Date: "2024-07-21", Hour: 3}
}

func TestQuotePopulatesAndReusesCache(t *testing.T) {
	cache := newSpyCache()
	svc := NewPremiumService(DefaultPricingModel(), cache, nil)

	first, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if len(cache.Data) != 1 || cache.SetCalls != 1 {
		t.Fatalf("first quote should store one entry, got %d entries after %d sets", len(cache.Data), cache.SetCalls)
	}

	second, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if cache.SetCalls != 1 {
		t.Errorf("second quote recomputed instead of reading cache (%d sets)", cache.SetCalls)
	}
	if cache.GetCalls != 2 {
		t.Errorf("GetCalls = %d, want 2", cache.GetCalls)
	}
	if *first != *second {
		t.Errorf("cached quote differs from computed quote:\n%+v\n%+v", first, second)
	}
}

func TestQuoteSurvivesCacheWriteFailure(t *testing.T) {
	cache := newSpyCache()
	cache.FailSet = true
	svc := NewPremiumService(DefaultPricingModel(), cache, nil)

	res, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatalf("Quote with failing cache: %v", err)
	}
	if res.RiskCategory != "High Risk" {
		t.Errorf("risk category = %q, want High Risk", res.RiskCategory)
	}

	if _, err := svc.Quote(testRequest()); err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if cache.SetCalls != 2 {
		t.Errorf("expected recomputation on every call while cache fails, SetCalls = %d", cache.SetCalls)
	}
}

func TestQuoteRecoversFromCorruptCacheEntry(t *testing.T) {
	cache := newSpyCache()
	svc := NewPremiumService(DefaultPricingModel(), cache, nil)

	want, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatal(err)
	}
	for key := range cache.Data {
		cache.Data[key] = "not json"
	}

	got, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatalf("Quote with corrupt cache entry: %v", err)
	}
	if *got != *want {
		t.Errorf("recomputed quote differs: %+v vs %+v", got, want)
	}
	if cache.SetCalls != 2 {
		t.Errorf("corrupt entry should be rewritten, SetCalls = %d", cache.SetCalls)
	}
}

func TestQuoteInvalidInputNotCached(t *testing.T) {
	cache := newSpyCache()
	svc := NewPremiumService(DefaultPricingModel(), cache, nil)

	req := testRequest()
	req.Hour = 25
	if _, err := svc.Quote(req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(cache.Data) != 0 || cache.SetCalls != 0 {
		t.Errorf("invalid request reached the cache: %d entries, %d sets", len(cache.Data), cache.SetCalls)
	}
}

func TestSetModelInvalidatesCachedQuotes(t *testing.T) {
	cache := newSpyCache()
	svc := NewPremiumService(DefaultPricingModel(), cache, nil)

	if _, err := svc.Quote(testRequest()); err != nil {
		t.Fatal(err)
	}

	params := neutralParams()
	model, err := NewPricingModel(params)
	if err != nil {
		t.Fatal(err)
	}
	svc.SetModel(model)

	res, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.CombinedMultiplier != 1.0 {
		t.Errorf("stale quote served after SetModel: combined = %v", res.CombinedMultiplier)
	}
	if len(cache.Data) != 2 {
		t.Errorf("expected distinct cache entries per model generation, got %d", len(cache.Data))
	}
}

func TestQuoteWithoutCache(t *testing.T) {
	svc := NewPremiumService(DefaultPricingModel(), nil, nil)

	res, err := svc.Quote(testRequest())
	if err != nil {
		t.Fatalf("Quote without cache: %v", err)
	}
	if res.RiskCategory != "High Risk" {
		t.Errorf("risk category = %q, want High Risk", res.RiskCategory)
	}
}
