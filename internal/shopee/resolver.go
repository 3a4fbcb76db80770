package shopee

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
)

// Product URLs end their path with an "i.<shopId>.<itemId>" segment,
// e.g. https://shopee.vn/Some-Product-Name-i.88201679.18932132659.
var reItemSegment = regexp.MustCompile(`i\.(\d+)\.(\d+)`)

// LinkError reports a product URL that does not resolve to an
// identifier pair. It is row-level and never fatal to a run.
type LinkError struct {
	Link   string
	Reason string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("resolve link %q: %s", e.Link, e.Reason)
}

// ResolveLink extracts the shop/item identifier pair from a product
// URL. Trailing query parameters and fragments are tolerated; the
// shopid/itemid query form is accepted as a fallback. Malformed input
// yields a *LinkError, never a panic, so callers can keep processing
// other rows.
func ResolveLink(raw string) (model.ProductRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.ProductRef{}, &LinkError{Link: raw, Reason: "empty link"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return model.ProductRef{}, &LinkError{Link: raw, Reason: "not a valid URL"}
	}

	// Last i.<shop>.<item> occurrence in the path wins; the product
	// name before it may itself contain digits and dots.
	if matches := reItemSegment.FindAllStringSubmatch(u.Path, -1); len(matches) > 0 {
		m := matches[len(matches)-1]
		shopID, err1 := strconv.ParseInt(m[1], 10, 64)
		itemID, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 == nil && err2 == nil {
			return model.ProductRef{ShopID: shopID, ItemID: itemID}, nil
		}
	}

	q := u.Query()
	if q.Get("shopid") != "" && q.Get("itemid") != "" {
		shopID, err1 := strconv.ParseInt(q.Get("shopid"), 10, 64)
		itemID, err2 := strconv.ParseInt(q.Get("itemid"), 10, 64)
		if err1 == nil && err2 == nil {
			return model.ProductRef{ShopID: shopID, ItemID: itemID}, nil
		}
		return model.ProductRef{}, &LinkError{Link: raw, Reason: "shopid/itemid parameters are not numeric"}
	}

	return model.ProductRef{}, &LinkError{Link: raw, Reason: "no i.<shopId>.<itemId> segment"}
}
