package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

const CategoryAll = "all"

type PriceBand string

const (
	PriceAll  PriceBand = "all"
	PriceLow  PriceBand = "low"
	PriceMid  PriceBand = "mid"
	PriceHigh PriceBand = "high"
)

type SortOrder string

const (
	SortDefault  SortOrder = "default"
	SortLowHigh  SortOrder = "low-high"
	SortHighLow  SortOrder = "high-low"
	SortNameAsc  SortOrder = "az"
	SortNameDesc SortOrder = "za"
)

var (
	priceLowUpper  = decimal.NewFromInt(20)
	priceHighLower = decimal.NewFromInt(30)
)

// CatalogFilter 空值等同 all / default
type CatalogFilter struct {
	Category string
	Price    PriceBand
	Sort     SortOrder
}

type ICatalogService interface {
	List(filter CatalogFilter) ([]model.Product, error)
	Get(name string) (model.Product, error)
	Categories() []string
}

// CatalogService 唯讀商品清單
type CatalogService struct {
	products []model.Product
	byName   map[string]model.Product
}

func NewCatalogService(products []model.Product) *CatalogService {
	s := &CatalogService{
		products: append([]model.Product(nil), products...),
		byName:   make(map[string]model.Product, len(products)),
	}
	for _, p := range products {
		s.byName[p.Name] = p
	}
	return s
}

var _ ICatalogService = (*CatalogService)(nil)

func (s *CatalogService) List(filter CatalogFilter) ([]model.Product, error) {
	band := filter.Price
	if band == "" {
		band = PriceAll
	}
	order := filter.Sort
	if order == "" {
		order = SortDefault
	}
	category := filter.Category
	if category == "" {
		category = CategoryAll
	}

	switch band {
	case PriceAll, PriceLow, PriceMid, PriceHigh:
	default:
		return nil, fmt.Errorf("unknown price band %q", band)
	}

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != CategoryAll && p.Category != category {
			continue
		}
		if !inBand(band, p.Price) {
			continue
		}
		out = append(out, p)
	}

	switch order {
	case SortDefault:
	case SortLowHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortHighLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	default:
		return nil, fmt.Errorf("unknown sort order %q", order)
	}
	return out, nil
}

func (s *CatalogService) Get(name string) (model.Product, error) {
	p, ok := s.byName[name]
	if !ok {
		return model.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, name)
	}
	return p, nil
}

// Categories 依首次出現順序
func (s *CatalogService) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// low: < 20, mid: 20 ~ 30, high: > 30
func inBand(band PriceBand, price decimal.Decimal) bool {
	switch band {
	case PriceLow:
		return price.LessThan(priceLowUpper)
	case PriceMid:
		return price.GreaterThanOrEqual(priceLowUpper) && price.LessThanOrEqual(priceHighLower)
	case PriceHigh:
		return price.GreaterThan(priceHighLower)
	default:
		return true
	}
}

func product(name, image, category string) model.Product {
	return model.Product{
		Name:     name,
		Price:    decimal.NewFromInt(25),
		Image:    image,
		Category: category,
	}
}

// DefaultProducts 預設商品
func DefaultProducts() []model.Product {
	return []model.Product{
		product("Aqua Surge", "images/Aqua_Surge.png", "floral"),
		product("Autumn Indulgence", "images/Autumn_Indulgence.png", "woody"),
		product("Bergamot Bloom", "images/Bergamot_Bloom.png", "citrus"),
		product("Cashmere Dreams", "images/Cashmere_Dreams.png", "vanilla"),
		product("Christmas Kiss", "images/Christmas_Kiss.png", "sweet"),
		product("Golden Nector", "images/Golden_Nector.png", "floral"),
		product("Hamptons Breeze", "images/Hamptons_Breeze.png", "floral"),
		product("Holy Berry", "images/berry.png.png", "fruity"),
		product("Lemon & Lavender", "images/Lemon_Lavender.png", "woody"),
		product("Lemongrass Elixir", "images/Lemongrass_Elixir.png", "fresh"),
		product("Take Me Away", "images/Take_Me_Away.png", "fresh"),
		product("Mocha Delight", "images/Mocha_Delight.png", "floral"),
		product("Mojito Millionaire", "images/Mojito_Millionaire.png", "floral"),
		product("Mystic Woods", "images/Mystic_Woods.png", "fruity"),
		product("Strawberry Vanilla", "images/Strawberry_Vanilla.png", "woody"),
	}
}
