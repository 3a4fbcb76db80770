package shopee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
)

const (
	// API prices carry five implied decimal places.
	priceDivisor = 100000

	itemAPIPath = "/api/v4/item/get"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// FetchError classifies a failed price fetch. Every kind is row-level
// and non-fatal: the day's price is recorded as unavailable and the
// run continues. There is no retry within a run.
type FetchError struct {
	Kind  model.FailureKind
	Ref   model.ProductRef
	cause error
}

func (e *FetchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("fetch %d/%d: %s: %v", e.Ref.ShopID, e.Ref.ItemID, e.Kind, e.cause)
	}
	return fmt.Sprintf("fetch %d/%d: %s", e.Ref.ShopID, e.Ref.ItemID, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.cause }

// FailureKindOf extracts the failure classification from a row-level
// error, covering both link and fetch failures.
func FailureKindOf(err error) model.FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var le *LinkError
	if errors.As(err, &le) {
		return model.FailureBadLink
	}
	return model.FailureMalformed
}

// Fetcher retrieves current prices from the platform's item API, with
// a markup-scrape fallback when the API answer has an unexpected
// shape. One Fetcher is shared by all workers of a run.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. baseURL is the platform origin
// (e.g. https://shopee.vn); timeout bounds each individual request.
func NewFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// SetClient swaps the underlying HTTP client (tests).
func (f *Fetcher) SetClient(c *http.Client) {
	f.client = c
}

type itemEnvelope struct {
	Error *int      `json:"error"`
	Data  *itemData `json:"data"`
}

type itemData struct {
	Price          int64           `json:"price"`
	Models         []itemModel     `json:"models"`
	TierVariations []tierVariation `json:"tier_variations"`
}

type itemModel struct {
	Price   int64 `json:"price"`
	ExtInfo struct {
		TierIndex []int `json:"tier_index"`
	} `json:"extinfo"`
}

type tierVariation struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// FetchPrice returns today's price for the product in integral
// currency units. var1/var2 select a variant model when the product
// has tier variations; empty values pick the default model.
func (f *Fetcher) FetchPrice(ctx context.Context, ref model.ProductRef, var1, var2 string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.get(ctx, ref, fmt.Sprintf("%s%s?itemid=%d&shopid=%d", f.baseURL, itemAPIPath, ref.ItemID, ref.ShopID))
	if err != nil {
		return 0, err
	}

	var envelope itemEnvelope
	if jerr := json.Unmarshal(body, &envelope); jerr != nil || envelope.Data == nil {
		// Unexpected API shape: fall back to scraping the product page.
		f.logger.Debug("item api shape unexpected, falling back to markup scrape",
			"shopId", ref.ShopID, "itemId", ref.ItemID)
		return f.scrapePrice(ctx, ref)
	}
	if envelope.Error != nil && *envelope.Error != 0 {
		return 0, &FetchError{Kind: model.FailureNotFound, Ref: ref,
			cause: fmt.Errorf("api error code %d", *envelope.Error)}
	}

	raw := envelope.Data.Price
	if m, ok := selectModel(envelope.Data, var1, var2); ok {
		raw = m.Price
	}

	price := raw / priceDivisor
	if price <= 0 {
		return 0, &FetchError{Kind: model.FailureMalformed, Ref: ref,
			cause: fmt.Errorf("non-positive price %d", raw)}
	}
	return price, nil
}

func (f *Fetcher) get(ctx context.Context, ref model.ProductRef, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: model.FailureMalformed, Ref: ref, cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: transportKind(err), Ref: ref, cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{Kind: model.FailureNotFound, Ref: ref,
			cause: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{Kind: model.FailureForbidden, Ref: ref,
			cause: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Kind: model.FailureMalformed, Ref: ref,
			cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &FetchError{Kind: transportKind(err), Ref: ref, cause: err}
	}
	return body, nil
}

func transportKind(err error) model.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureMalformed
}

// Prices embedded in product-page markup, five implied decimals.
var reMarkupPrice = regexp.MustCompile(`"price"\s*:\s*(\d+)`)

// scrapePrice pulls the price out of the product page markup. Last
// resort when the item API does not answer in the expected shape.
func (f *Fetcher) scrapePrice(ctx context.Context, ref model.ProductRef) (int64, error) {
	body, err := f.get(ctx, ref, fmt.Sprintf("%s/product/%d/%d", f.baseURL, ref.ShopID, ref.ItemID))
	if err != nil {
		return 0, err
	}

	m := reMarkupPrice.FindSubmatch(body)
	if m == nil {
		return 0, &FetchError{Kind: model.FailureMalformed, Ref: ref,
			cause: errors.New("no price found in product page markup")}
	}
	raw, perr := strconv.ParseInt(string(m[1]), 10, 64)
	if perr != nil {
		return 0, &FetchError{Kind: model.FailureMalformed, Ref: ref, cause: perr}
	}

	price := raw / priceDivisor
	if price <= 0 {
		return 0, &FetchError{Kind: model.FailureMalformed, Ref: ref,
			cause: fmt.Errorf("non-positive price %d", raw)}
	}
	return price, nil
}

// selectModel picks the variant model matching var1/var2 against the
// product's tier variations. Matching is case-insensitive and
// tolerates partial labels in either direction, mirroring how sellers
// write variant names. Falls back to the first model.
func selectModel(data *itemData, var1, var2 string) (itemModel, bool) {
	if len(data.Models) == 0 {
		return itemModel{}, false
	}
	if var1 == "" && var2 == "" {
		return data.Models[0], true
	}

	idx1, idx2 := -1, -1
	if var1 != "" && len(data.TierVariations) > 0 {
		idx1 = optionIndex(data.TierVariations[0].Options, var1)
	}
	if var2 != "" && len(data.TierVariations) > 1 {
		idx2 = optionIndex(data.TierVariations[1].Options, var2)
	}

	for _, m := range data.Models {
		ti := m.ExtInfo.TierIndex
		switch {
		case idx1 >= 0 && idx2 >= 0:
			if len(ti) >= 2 && ti[0] == idx1 && ti[1] == idx2 {
				return m, true
			}
		case idx1 >= 0:
			if len(ti) >= 1 && ti[0] == idx1 {
				return m, true
			}
		}
	}
	return data.Models[0], true
}

func optionIndex(options []string, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	for i, opt := range options {
		o := strings.ToLower(strings.TrimSpace(opt))
		if o == want || strings.Contains(o, want) || strings.Contains(want, o) {
			return i
		}
	}
	return -1
}
