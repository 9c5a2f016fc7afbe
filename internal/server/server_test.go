package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/cache"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/config"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/dashboard"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/exchange"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/fetcher"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/gate"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage/memory"
)

// stubSource serves canned exchange data to the dashboard manager.
type stubSource struct {
	tokens []domain.TokenDescriptor
}

func (s *stubSource) TokenList(ctx context.Context) ([]domain.TokenDescriptor, error) {
	return s.tokens, nil
}

func (s *stubSource) Ticker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error) {
	return &domain.TickerSnapshot{Symbol: symbol}, nil
}

func (s *stubSource) Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]domain.VolumeBucket, error) {
	return []domain.VolumeBucket{{OpenTime: 1, QuoteVolume: 100}}, nil
}

type harness struct {
	router       *gin.Engine
	manager      *dashboard.Manager
	competitions *memory.CompetitionStore
	history      *memory.VolumeHistoryStore
	upstreamHits *atomic.Int64
	upstream     *httptest.Server
}

func newHarness(t *testing.T, tokens []domain.TokenDescriptor) *harness {
	t.Helper()

	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("limit") == "429" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"000000","message":null,"data":[]}`))
	}))
	t.Cleanup(upstream.Close)

	comps := memory.NewCompetitionStore()
	history := memory.NewVolumeHistoryStore()

	manager := dashboard.New(dashboard.Options{
		Fetcher:      fetcher.New(&stubSource{tokens: tokens}, zerolog.Nop()),
		Competitions: comps,
		History:      history,
		Logger:       zerolog.Nop(),
		Refresh: config.RefreshConfig{
			Interval:    time.Minute,
			Concurrency: 3,
			TopN:        20,
		},
	})

	handlers := NewHandlers(HandlerOptions{
		Manager:      manager,
		Competitions: comps,
		History:      history,
		Gate:         gate.New("hunter2"),
		Exchange:     exchange.NewClient(upstream.URL),
		Cache:        cache.New(),
		CacheTTL: config.CacheConfig{
			TokenListTTL: 5 * time.Minute,
			TickerTTL:    5 * time.Second,
			KlinesTTL:    30 * time.Second,
		},
		Logger: zerolog.Nop(),
	})

	srv := New("127.0.0.1:0", time.Second, handlers, zerolog.Nop())

	return &harness{
		router:       srv.Router(),
		manager:      manager,
		competitions: comps,
		history:      history,
		upstreamHits: &hits,
		upstream:     upstream,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (string, json.RawMessage) {
	t.Helper()
	var env struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env.Code, env.Data
}

func TestTokensEndpoint(t *testing.T) {
	h := newHarness(t, []domain.TokenDescriptor{
		{AlphaID: "AAA", Symbol: "AAA", Name: "Token A"},
		{AlphaID: "BBB", Symbol: "BBB", Name: "Token B"},
	})
	if err := h.manager.InitialLoad(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := h.do(t, http.MethodGet, "/api/tokens", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	code, data := decodeEnvelope(t, rec)
	if code != "000000" {
		t.Errorf("expected success code, got %q", code)
	}
	var list []domain.TokenDetail
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 tokens, got %d", len(list))
	}

	rec = h.do(t, http.MethodGet, "/api/tokens?search=bbb", nil)
	_, data = decodeEnvelope(t, rec)
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].AlphaID != "BBB" {
		t.Errorf("expected filtered list [BBB], got %v", list)
	}
}

func TestReadyEndpoint(t *testing.T) {
	h := newHarness(t, []domain.TokenDescriptor{{AlphaID: "AAA", Symbol: "AAA"}})

	if rec := h.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before initial load, got %d", rec.Code)
	}

	if err := h.manager.InitialLoad(context.Background()); err != nil {
		t.Fatal(err)
	}

	if rec := h.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200 after initial load, got %d", rec.Code)
	}
}

func TestVerifyPassEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/verify-pass", gin.H{"password": "hunter2"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for valid pass, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/verify-pass", gin.H{"password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid pass, got %d", rec.Code)
	}
	code, _ := decodeEnvelope(t, rec)
	if code != codeUnauthorized {
		t.Errorf("expected %q, got %q", codeUnauthorized, code)
	}
}

func TestCompetitionsCRUD(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/competitions", gin.H{
		"alphaId": "AAA",
		"symbol":  "AAA",
		"name":    "Token A",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 upsert, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/competitions", nil)
	_, data := decodeEnvelope(t, rec)
	var list []domain.Competition
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].AlphaID != "AAA" {
		t.Fatalf("expected [AAA], got %v", list)
	}

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	rec = h.do(t, http.MethodPut, "/api/competitions/AAA", gin.H{
		"startTime": start, "endTime": end,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 update, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPut, "/api/competitions/MISSING", gin.H{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown update, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, "/api/competitions/AAA", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 delete, got %d", rec.Code)
	}
	rec = h.do(t, http.MethodDelete, "/api/competitions/AAA", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for repeat delete, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/competitions", gin.H{"alphaId": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty alphaId, got %d", rec.Code)
	}
}

func TestProxyEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/binance-proxy?endpoint=klines&symbol=AUSDT&interval=1d", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if hits := h.upstreamHits.Load(); hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}

	// Same request is served from cache
	rec = h.do(t, http.MethodGet, "/api/binance-proxy?endpoint=klines&symbol=AUSDT&interval=1d", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from cache, got %d", rec.Code)
	}
	if hits := h.upstreamHits.Load(); hits != 1 {
		t.Errorf("expected cached response, got %d upstream hits", hits)
	}

	// Param order must not split the cache
	rec = h.do(t, http.MethodGet, "/api/binance-proxy?interval=1d&symbol=AUSDT&endpoint=klines", nil)
	if hits := h.upstreamHits.Load(); hits != 1 {
		t.Errorf("expected same cache entry regardless of param order, got %d hits", hits)
	}

	rec = h.do(t, http.MethodGet, "/api/binance-proxy?endpoint=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown endpoint, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/binance-proxy", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing endpoint, got %d", rec.Code)
	}

	// Upstream 429 is relayed with the rate limit code
	rec = h.do(t, http.MethodGet, "/api/binance-proxy?endpoint=ticker&limit=429", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	code, _ := decodeEnvelope(t, rec)
	if code != codeRateLimit {
		t.Errorf("expected %q, got %q", codeRateLimit, code)
	}
}

func TestTokenDetailsBatchEndpoint(t *testing.T) {
	h := newHarness(t, []domain.TokenDescriptor{{AlphaID: "AAA", Symbol: "AAA"}})
	if err := h.manager.InitialLoad(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := h.do(t, http.MethodPost, "/api/token-details-batch", gin.H{"symbols": []string{"AAA", "BBB"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	_, data := decodeEnvelope(t, rec)
	var out map[string]struct {
		Ticker      *domain.TickerSnapshot `json:"ticker"`
		VolumeStats domain.VolumeStats     `json:"volumeStats"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out["AAA"].Ticker == nil {
		t.Error("expected ticker for AAA")
	}

	rec = h.do(t, http.MethodPost, "/api/token-details-batch", gin.H{"symbols": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty symbols, got %d", rec.Code)
	}

	big := make([]string, maxBatchSymbols+1)
	for i := range big {
		big[i] = "X"
	}
	rec = h.do(t, http.MethodPost, "/api/token-details-batch", gin.H{"symbols": big})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized batch, got %d", rec.Code)
	}
}

func TestTokenDetailsBatchEndpoint_PairSymbols(t *testing.T) {
	h := newHarness(t, []domain.TokenDescriptor{{AlphaID: "ALPHA_118", Symbol: "XYZ"}})
	if err := h.manager.InitialLoad(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := h.do(t, http.MethodPost, "/api/token-details-batch",
		gin.H{"symbols": []string{"ALPHA_118USDT", "ALPHA_204USDT"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	_, data := decodeEnvelope(t, rec)
	var out map[string]struct {
		Ticker *domain.TickerSnapshot `json:"ticker"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}

	// Keys are alpha ids with the quote suffix stripped.
	for _, id := range []string{"ALPHA_118", "ALPHA_204"} {
		if out[id].Ticker == nil {
			t.Fatalf("expected entry keyed %q, got keys %v", id, keys(out))
		}
	}

	// The non-catalog token's pair symbol must not double the suffix.
	if got := out["ALPHA_204"].Ticker.Symbol; got != "ALPHA_204USDT" {
		t.Errorf("expected ticker fetched as ALPHA_204USDT, got %q", got)
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestVolumeHistoryEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	day := int64(24 * 60 * 60 * 1000)
	if err := h.history.InsertBulk(context.Background(), []*domain.VolumeHistoryPoint{
		{AlphaID: "AAA", OpenTime: day, QuoteVolume: 10},
		{AlphaID: "AAA", OpenTime: 2 * day, QuoteVolume: 20},
	}); err != nil {
		t.Fatal(err)
	}

	rec := h.do(t, http.MethodGet, "/api/volume-history?alphaId=AAA", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_, data := decodeEnvelope(t, rec)
	var points []domain.VolumeHistoryPoint
	if err := json.Unmarshal(data, &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 points, got %d", len(points))
	}

	rec = h.do(t, http.MethodGet, "/api/volume-history", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without alphaId, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/volume-history?alphaId=AAA&start=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad start, got %d", rec.Code)
	}
}
