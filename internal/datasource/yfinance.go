package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/seenimoa/investscout/internal/infra"
	"github.com/seenimoa/investscout/pkg/models"
	"github.com/seenimoa/investscout/pkg/utils"
)

const (
	// DefaultYahooBaseURL is the Yahoo Finance query host.
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

	// DefaultYahooCookieURL is visited once to obtain the session cookie.
	DefaultYahooCookieURL = "https://fc.yahoo.com"

	// DefaultYahooRateLimit is the default request rate (requests per second).
	DefaultYahooRateLimit = 8

	// DefaultSessionTTL bounds how long a crumb is reused before the session
	// is re-established.
	DefaultSessionTTL = time.Hour

	crumbKey = "crumb"

	quoteSummaryModules = "price,summaryDetail,financialData,defaultKeyStatistics,assetProfile"
)

// YFinance implements MetricSource using the Yahoo Finance quoteSummary API.
// Requests carry a session cookie and crumb, obtained lazily, renewed after
// the session TTL and refreshed once when Yahoo rejects them.
type YFinance struct {
	baseURL    string
	cookieURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	// mu serialises session bootstrap so concurrent workers share one crumb.
	mu      sync.Mutex
	session *infra.Cache[string]
	sessTTL time.Duration
}

// YFinanceOption configures the YFinance source.
type YFinanceOption func(*YFinance)

// WithBaseURL sets a custom query host.
func WithBaseURL(baseURL string) YFinanceOption {
	return func(y *YFinance) {
		y.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCookieURL sets the page visited to obtain the session cookie.
func WithCookieURL(cookieURL string) YFinanceOption {
	return func(y *YFinance) {
		y.cookieURL = cookieURL
	}
}

// WithHTTPClient sets a custom HTTP client. It should carry a cookie jar.
func WithHTTPClient(client *http.Client) YFinanceOption {
	return func(y *YFinance) {
		y.httpClient = client
	}
}

// WithRateLimiter sets the limiter shared by all requests of this source.
func WithRateLimiter(l *rate.Limiter) YFinanceOption {
	return func(y *YFinance) {
		y.limiter = l
	}
}

// WithSessionTTL sets how long a crumb is reused. Values below one second
// are ignored.
func WithSessionTTL(ttl time.Duration) YFinanceOption {
	return func(y *YFinance) {
		if ttl >= time.Second {
			y.sessTTL = ttl
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger zerolog.Logger) YFinanceOption {
	return func(y *YFinance) {
		y.logger = logger
	}
}

// NewYFinance creates a new Yahoo Finance metric source.
func NewYFinance(opts ...YFinanceOption) *YFinance {
	jar, _ := cookiejar.New(nil)
	y := &YFinance{
		baseURL:   DefaultYahooBaseURL,
		cookieURL: DefaultYahooCookieURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultYahooRateLimit), DefaultYahooRateLimit),
		logger:  zerolog.Nop(),
		sessTTL: DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(y)
	}
	y.session = infra.NewCache[string](y.sessTTL)
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v10 quoteSummary types ---

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price                *yfPrice         `json:"price"`
	SummaryDetail        *yfSummaryDetail `json:"summaryDetail"`
	FinancialData        *yfFinancialData `json:"financialData"`
	DefaultKeyStatistics *yfKeyStatistics `json:"defaultKeyStatistics"`
	AssetProfile         *yfAssetProfile  `json:"assetProfile"`
}

type yfPrice struct {
	ShortName          string  `json:"shortName"`
	LongName           string  `json:"longName"`
	RegularMarketPrice yfValue `json:"regularMarketPrice"`
	MarketCap          yfValue `json:"marketCap"`
}

type yfSummaryDetail struct {
	MarketCap            yfValue `json:"marketCap"`
	TrailingPE           yfValue `json:"trailingPE"`
	ForwardPE            yfValue `json:"forwardPE"`
	DividendYield        yfValue `json:"dividendYield"`
	PayoutRatio          yfValue `json:"payoutRatio"`
	FiftyTwoWeekHigh     yfValue `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      yfValue `json:"fiftyTwoWeekLow"`
	FiftyDayAverage      yfValue `json:"fiftyDayAverage"`
	TwoHundredDayAverage yfValue `json:"twoHundredDayAverage"`
}

type yfFinancialData struct {
	CurrentPrice            yfValue `json:"currentPrice"`
	TargetMeanPrice         yfValue `json:"targetMeanPrice"`
	RecommendationKey       string  `json:"recommendationKey"`
	RecommendationMean      yfValue `json:"recommendationMean"`
	NumberOfAnalystOpinions yfValue `json:"numberOfAnalystOpinions"`
	RevenueGrowth           yfValue `json:"revenueGrowth"`
	EarningsGrowth          yfValue `json:"earningsGrowth"`
}

type yfKeyStatistics struct {
	ForwardPE yfValue `json:"forwardPE"`
}

type yfAssetProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// yfValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper.
// Missing values arrive as {} or are omitted.
type yfValue struct {
	Raw *float64 `json:"raw"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// FetchMetrics returns the quoteSummary metrics for a ticker. A response
// without a market price is reported as ErrTickerNotFound.
func (y *YFinance) FetchMetrics(ctx context.Context, ticker string) (*models.RawMetrics, error) {
	yfTicker := utils.ToYahooTicker(ticker)

	result, err := y.quoteSummary(ctx, yfTicker)
	if err != nil {
		return nil, err
	}

	m := result.toRawMetrics(ticker)
	if m.Price == nil {
		return nil, fmt.Errorf("%w: %s has no market price", ErrTickerNotFound, ticker)
	}
	return m, nil
}

func (y *YFinance) quoteSummary(ctx context.Context, yfTicker string) (*yfSummaryResult, error) {
	crumb, err := y.sessionCrumb(ctx)
	if err != nil {
		return nil, err
	}

	result, err := y.getSummary(ctx, yfTicker, crumb)
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
		y.logger.Debug().Str("ticker", yfTicker).Msg("Yahoo crumb rejected, refreshing session")
		y.resetCrumb(crumb)
		if crumb, err = y.sessionCrumb(ctx); err != nil {
			return nil, err
		}
		result, err = y.getSummary(ctx, yfTicker, crumb)
	}
	return result, err
}

func (y *YFinance) getSummary(ctx context.Context, yfTicker, crumb string) (*yfSummaryResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("modules", quoteSummaryModules)
	if crumb != "" {
		q.Set("crumb", crumb)
	}
	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", y.baseURL, url.PathEscape(yfTicker), q.Encode())

	body, status, err := doGet(ctx, y.httpClient, reqURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		switch status {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, yfTicker)
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("yfinance quoteSummary %s: %w: %w", yfTicker, ErrRateLimited, err)
		}
		return nil, fmt.Errorf("yfinance quoteSummary %s: %w", yfTicker, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance quoteSummary: %w", err)
	}

	if resp.QuoteSummary.Error != nil {
		if strings.EqualFold(resp.QuoteSummary.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, yfTicker)
		}
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, yfTicker)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// sessionCrumb returns the cached crumb, bootstrapping the cookie session on
// first use or once the previous crumb has expired.
func (y *YFinance) sessionCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if crumb, ok := y.session.Get(crumbKey); ok {
		return crumb, nil
	}

	// 1. Visit a Yahoo page so the jar holds the session cookie. The page
	// itself may answer 404; only the Set-Cookie matters.
	if body, _, err := doGet(ctx, y.httpClient, y.cookieURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}); err == nil {
		body.Close()
	} else if !isHTTPError(err) {
		return "", fmt.Errorf("yahoo session cookie: %w", err)
	}

	// 2. Exchange the cookie for a crumb.
	body, _, err := doGet(ctx, y.httpClient, y.baseURL+"/v1/test/getcrumb", map[string]string{
		"Accept":  "text/plain",
		"Origin":  "https://finance.yahoo.com",
		"Referer": "https://finance.yahoo.com/",
	})
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 256))
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(raw))
	if crumb == "" || strings.Contains(strings.ToLower(crumb), "html") {
		return "", fmt.Errorf("yahoo crumb: invalid crumb received")
	}

	y.session.Set(crumbKey, crumb)
	y.logger.Debug().Dur("ttl", y.sessTTL).Msg("Yahoo session established")
	return crumb, nil
}

// resetCrumb drops the cached crumb if it is still the rejected one.
func (y *YFinance) resetCrumb(rejected string) {
	y.mu.Lock()
	if crumb, ok := y.session.Get(crumbKey); ok && crumb == rejected {
		y.session.Invalidate(crumbKey)
	}
	y.mu.Unlock()
}

// --- Helpers ---

func isHTTPError(err error) bool {
	var httpErr *ErrHTTP
	return errors.As(err, &httpErr)
}

func (v yfValue) ptr() *float64 {
	if v.Raw == nil {
		return nil
	}
	f := *v.Raw
	return &f
}

func firstPtr(values ...yfValue) *float64 {
	for _, v := range values {
		if p := v.ptr(); p != nil {
			return p
		}
	}
	return nil
}

func (r *yfSummaryResult) toRawMetrics(ticker string) *models.RawMetrics {
	price := r.Price
	if price == nil {
		price = &yfPrice{}
	}
	sd := r.SummaryDetail
	if sd == nil {
		sd = &yfSummaryDetail{}
	}
	fd := r.FinancialData
	if fd == nil {
		fd = &yfFinancialData{}
	}
	ks := r.DefaultKeyStatistics
	if ks == nil {
		ks = &yfKeyStatistics{}
	}

	m := &models.RawMetrics{
		Ticker:             ticker,
		Name:               coalesce(price.ShortName, price.LongName, ticker),
		Price:              firstPtr(price.RegularMarketPrice, fd.CurrentPrice),
		TargetPrice:        fd.TargetMeanPrice.ptr(),
		MarketCap:          firstPtr(price.MarketCap, sd.MarketCap),
		PERatio:            firstPtr(sd.ForwardPE, ks.ForwardPE, sd.TrailingPE),
		DividendYield:      sd.DividendYield.ptr(),
		PayoutRatio:        sd.PayoutRatio.ptr(),
		RevenueGrowth:      fd.RevenueGrowth.ptr(),
		EarningsGrowth:     fd.EarningsGrowth.ptr(),
		Recommendation:     fd.RecommendationKey,
		RecommendationMean: fd.RecommendationMean.ptr(),
		FiftyTwoWeekHigh:   sd.FiftyTwoWeekHigh.ptr(),
		FiftyTwoWeekLow:    sd.FiftyTwoWeekLow.ptr(),
		FiftyDayAvg:        sd.FiftyDayAverage.ptr(),
		TwoHundredDayAvg:   sd.TwoHundredDayAverage.ptr(),
	}
	if n := fd.NumberOfAnalystOpinions.ptr(); n != nil {
		count := int(*n)
		m.NumAnalysts = &count
	}
	if r.AssetProfile != nil {
		m.Sector = r.AssetProfile.Sector
		m.Industry = r.AssetProfile.Industry
	}
	return m
}
