package shopee

import (
	"errors"
	"testing"
)

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		shopID  int64
		itemID  int64
		wantErr bool
	}{
		{
			name:   "plain product url",
			url:    "https://shopee.vn/iPhone-14-Pro-Max-128GB-i.88201679.18932132659",
			shopID: 88201679,
			itemID: 18932132659,
		},
		{
			name:   "query parameters tolerated",
			url:    "https://shopee.vn/Some-Product-i.123.456?sp_atk=abc&xptdk=def",
			shopID: 123,
			itemID: 456,
		},
		{
			name:   "fragment tolerated",
			url:    "https://shopee.vn/Some-Product-i.123.456#reviews",
			shopID: 123,
			itemID: 456,
		},
		{
			name:   "url-encoded name with dots and digits",
			url:    "https://shopee.vn/Apple-Watch-9-GPS-41mm-vi%E1%BB%81n-nh%C3%B4m-i.88201679.21366382963",
			shopID: 88201679,
			itemID: 21366382963,
		},
		{
			name:   "shopid and itemid query fallback",
			url:    "https://shopee.vn/product?shopid=77&itemid=88",
			shopID: 77,
			itemID: 88,
		},
		{
			name:    "no identifier segment",
			url:     "https://shopee.vn/some-product",
			wantErr: true,
		},
		{
			name:    "non-numeric identifiers",
			url:     "https://shopee.vn/x-i.abc.def",
			wantErr: true,
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
		{
			name:    "not a url at all",
			url:     "definitely not a link",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ResolveLink(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveLink(%q) should fail", tt.url)
				}
				var le *LinkError
				if !errors.As(err, &le) {
					t.Errorf("error %T should be a *LinkError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveLink(%q) failed: %v", tt.url, err)
			}
			if ref.ShopID != tt.shopID || ref.ItemID != tt.itemID {
				t.Errorf("ref = %d/%d, want %d/%d", ref.ShopID, ref.ItemID, tt.shopID, tt.itemID)
			}
		})
	}
}
