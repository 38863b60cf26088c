package models

type Product struct {
	ID          ProductID     `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Category    string        `json:"category" yaml:"category"`
	Description string        `json:"description" yaml:"description"`
	Price       float64       `json:"price" yaml:"price"`
	PriceType   PriceType     `json:"price_type" yaml:"price_type"`
	Deposit     float64       `json:"deposit" yaml:"deposit"`
	Status      ProductStatus `json:"status" yaml:"status"`
	ImageURL    string        `json:"image_url" yaml:"image_url"`
	Features    []string      `json:"features" yaml:"features"`
	CreatedAt   Timestamp     `json:"created_at" yaml:"created_at"`
}

func (p Product) IsAvailable() bool {
	return p.Status == ProductAvailable
}
