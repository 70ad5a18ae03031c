package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// backendTime decodes the backend's zone-less LocalDateTime values, written
// either as ISO strings or as [y,m,d,h,min,s,nanos] arrays. Values without a
// zone are read as UTC.
type backendTime struct {
	time.Time
}

var localDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (t *backendTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if len(b) > 0 && b[0] == '[' {
		var parts []int
		if err := json.Unmarshal(b, &parts); err != nil {
			return fmt.Errorf("decode time array: %w", err)
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		if parts[1] == 0 {
			parts[1] = 1
		}
		if parts[2] == 0 {
			parts[2] = 1
		}
		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.UTC)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode time: %w", err)
	}
	for _, layout := range localDateTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}

type cartDTO struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	UpdatedAt backendTime `json:"updatedAt"`
}

func (d cartDTO) toDomain(status domain.CartStatus) domain.Cart {
	return domain.Cart{ID: d.ID, Name: d.Name, Status: status, UpdatedAt: d.UpdatedAt.Time}
}

type cartItemDTO struct {
	ItemID        string              `json:"itemId"`
	ItemName      string              `json:"itemName"`
	ImageURL      string              `json:"imageUrl"`
	Quantity      int                 `json:"quantity"`
	MinPrice      decimal.NullDecimal `json:"minPrice"`
	MaxPrice      decimal.NullDecimal `json:"maxPrice"`
	TotalMinPrice decimal.NullDecimal `json:"totalMinPrice"`
	TotalMaxPrice decimal.NullDecimal `json:"totalMaxPrice"`
}

func (d cartItemDTO) toDomain() domain.CartLine {
	return domain.CartLine{
		ItemID:        d.ItemID,
		ItemName:      d.ItemName,
		ImageURL:      d.ImageURL,
		Quantity:      d.Quantity,
		MinPrice:      d.MinPrice,
		MaxPrice:      d.MaxPrice,
		TotalMinPrice: d.TotalMinPrice,
		TotalMaxPrice: d.TotalMaxPrice,
	}
}

type storeDTO struct {
	StoreID       int64  `json:"storeId"`
	ChainName     string `json:"chainName"`
	StoreName     string `json:"storeName"`
	StoreNumber   *int64 `json:"storeNumber"`
	StoreCity     string `json:"storeCity"`
	StoreAddress  string `json:"storeAddress"`
	ChainImageURL string `json:"chainImageUrl"`
}

func (d storeDTO) toDomain() domain.Store {
	s := domain.Store{
		ID:            d.StoreID,
		ChainName:     d.ChainName,
		StoreName:     d.StoreName,
		City:          d.StoreCity,
		Address:       d.StoreAddress,
		ChainImageURL: d.ChainImageURL,
	}
	if d.StoreNumber != nil {
		s.StoreNumber = strconv.FormatInt(*d.StoreNumber, 10)
	}
	return s
}

func storesToDomain(in []storeDTO) []domain.Store {
	out := make([]domain.Store, 0, len(in))
	for _, s := range in {
		out = append(out, s.toDomain())
	}
	return out
}

type comparisonRequestDTO struct {
	UserID   int64   `json:"userId"`
	CartID   int64   `json:"cartId"`
	StoreIDs []int64 `json:"storeIds"`
}

type itemWithPriceDTO struct {
	ItemID         string              `json:"itemId"`
	ItemName       string              `json:"itemName"`
	ImageURL       string              `json:"imageUrl"`
	Price          decimal.NullDecimal `json:"price"`
	QuantityOfItem *int                `json:"quantityOfItem"`
	FoundInStore   bool                `json:"foundInStore"`
}

type comparisonResultDTO struct {
	Store     storeDTO            `json:"store"`
	Items     []itemWithPriceDTO  `json:"items"`
	CartPrice decimal.NullDecimal `json:"cartPrice"`
}

func (d comparisonResultDTO) toDomain() domain.StoreResult {
	items := make([]domain.PricedLine, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.PricedLine{
			ItemID:         it.ItemID,
			ItemName:       it.ItemName,
			ImageURL:       it.ImageURL,
			Price:          it.Price,
			QuantityOfItem: it.QuantityOfItem,
			FoundInStore:   it.FoundInStore,
		})
	}

	cartPrice := decimal.Zero
	if d.CartPrice.Valid {
		cartPrice = d.CartPrice.Decimal
	}

	return domain.StoreResult{
		Store:     d.Store.toDomain(),
		Items:     items,
		CartPrice: cartPrice,
	}
}

type itemDTO struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	LowestPrice        decimal.NullDecimal `json:"lowestPrice"`
	HighestPrice       decimal.NullDecimal `json:"highestPrice"`
	ImageURL           string              `json:"imageUrl"`
	ManufacturerName   string              `json:"manufacturerName"`
	ManufactureCountry string              `json:"manufactureCountry"`
	UnitQty            string              `json:"unitQty"`
	Quantity           decimal.NullDecimal `json:"quantity"`
	IsWeighted         *bool               `json:"isWeighted"`
}

func (d itemDTO) toDomain() domain.Alternative {
	return domain.Alternative{
		ID:                 d.ID,
		Name:               d.Name,
		LowestPrice:        d.LowestPrice,
		HighestPrice:       d.HighestPrice,
		ImageURL:           d.ImageURL,
		ManufacturerName:   d.ManufacturerName,
		ManufactureCountry: d.ManufactureCountry,
		UnitQty:            d.UnitQty,
		Quantity:           d.Quantity,
		IsWeighted:         d.IsWeighted != nil && *d.IsWeighted,
	}
}

// userSummaryDTO tolerates the id spellings different backend versions use.
// encoding/json matches keys case-insensitively, so "userID" lands in UserID.
type userSummaryDTO struct {
	UserID        *int64     `json:"userId"`
	ID            *int64     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	SessionNumber flexString `json:"sessionNumber"`
}

// normalizedID returns the first id field present.
func (d userSummaryDTO) normalizedID() (int64, bool) {
	for _, id := range []*int64{d.UserID, d.ID} {
		if id != nil && *id > 0 {
			return *id, true
		}
	}
	return 0, false
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode session number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}
