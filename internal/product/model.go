package product

import "time"

type Review struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	User      string    `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Product is a catalog entry. Rating and NumReviews are derived from Reviews
// and only ever written together with them.
type Product struct {
	ID           string    `json:"_id" bson:"_id"`
	User         string    `json:"user" bson:"user"`
	Name         string    `json:"name" bson:"name"`
	Image        string    `json:"image" bson:"image"`
	Brand        string    `json:"brand" bson:"brand"`
	Category     string    `json:"category" bson:"category"`
	Description  string    `json:"description" bson:"description"`
	Reviews      []Review  `json:"reviews" bson:"reviews"`
	Rating       float64   `json:"rating" bson:"rating"`
	NumReviews   int       `json:"numReviews" bson:"numReviews"`
	Price        float64   `json:"price" bson:"price"`
	CountInStock int       `json:"countInStock" bson:"countInStock"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (p *Product) HasReviewFrom(userID string) bool {
	for _, r := range p.Reviews {
		if r.User == userID {
			return true
		}
	}
	return false
}

type ListResult struct {
	Products []*Product `json:"products"`
	Page     int        `json:"page"`
	Pages    int        `json:"pages"`
}

// UpdateParams replaces every catalog attribute of a product.
type UpdateParams struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	CountInStock int     `json:"countInStock"`
}

type ReviewParams struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
