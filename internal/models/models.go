package models

import "time"

// Product represents an inventory item in the catalog
type Product struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Category      string    `db:"category" json:"category"`
	Price         float64   `db:"price" json:"price"`
	DiscountPrice *float64  `db:"discountPrice" json:"discount_price,omitempty"`
	GSTSlab       *float64  `db:"gstSlab" json:"gst_slab,omitempty"`
	Quantity      int       `db:"quantity" json:"quantity"`
	Details       *string   `db:"details" json:"details,omitempty"`
	ImageURI      *string   `db:"imageUri" json:"image_uri,omitempty"`
	CreatedAt     time.Time `db:"createdAt" json:"created_at"`
	UpdatedAt     time.Time `db:"updatedAt" json:"updated_at"`

	// Images holds image URIs in display order. A nil slice means "not provided":
	// updates leave the stored image set alone. A non-nil empty slice clears it.
	Images []string `db:"-" json:"images,omitempty"`
}

// Category is a named product grouping. Products refer to it by name.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"createdAt" json:"created_at"`
	UpdatedAt time.Time `db:"updatedAt" json:"updated_at"`
}

// CategoryWithCount is a category plus the number of products carrying its name
type CategoryWithCount struct {
	Category
	ProductCount int `db:"productCount" json:"product_count"`
}

// ProductImage is one image of a product
type ProductImage struct {
	ID           int64     `db:"id" json:"id"`
	ProductID    int64     `db:"productId" json:"product_id"`
	ImageURI     string    `db:"imageUri" json:"image_uri"`
	DisplayOrder int       `db:"displayOrder" json:"display_order"`
	IsPrimary    bool      `db:"isPrimary" json:"is_primary"`
	CreatedAt    time.Time `db:"createdAt" json:"created_at"`
}

// PrimaryImageURI returns the product's mirrored primary image, or "" when unset
func (p *Product) PrimaryImageURI() string {
	if p.ImageURI == nil {
		return ""
	}
	return *p.ImageURI
}
