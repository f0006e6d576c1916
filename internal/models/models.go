package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Manufacturer struct {
	ID           uuid.UUID `gorm:"primaryKey"       json:"id"`
	Email        string    `gorm:"unique;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"         json:"-"`
	CompanyName  string    `gorm:"not null"         json:"company_name"`
	TaxNumber    string    `gorm:"unique;not null"  json:"tax_number"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	BusinessArea string    `json:"business_area"`
	ContactName  string    `json:"contact_name"`
	Documents    []string  `gorm:"serializer:json"  json:"documents"`
	Active       bool      `gorm:"default:true"     json:"active"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *Manufacturer) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Professional struct {
	ID           uuid.UUID `gorm:"primaryKey"       json:"id"`
	Email        string    `gorm:"unique;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"         json:"-"`
	FullName     string    `gorm:"not null"         json:"full_name"`
	Profession   string    `gorm:"not null"         json:"profession"`
	Diploma      string    `json:"diploma"`
	Active       bool      `gorm:"default:true"     json:"active"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Professional) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID             uuid.UUID `gorm:"primaryKey"      json:"id"`
	ManufacturerID uuid.UUID `gorm:"index;not null"  json:"manufacturer_id"`
	Title          string    `gorm:"not null"        json:"title"`
	Description    string    `gorm:"not null"        json:"description"`
	Category       string    `gorm:"index"           json:"category"`
	Price          float64   `gorm:"not null;check:price>=0"  json:"price"`
	Stock          uint      `json:"stock"`
	Images         []string  `gorm:"serializer:json" json:"images"`
	Specs          []string  `gorm:"serializer:json" json:"specs"`
	ModelFormats   []string  `gorm:"serializer:json" json:"model_formats"`
	Rating         float64   `gorm:"default:0"       json:"rating"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Cart is the one-active-per-(subject, role) aggregate. Uniqueness of the
// active cart is enforced by the cart service, not by a schema constraint.
type Cart struct {
	ID        uuid.UUID  `gorm:"primaryKey"                       json:"id"`
	SubjectID uuid.UUID  `gorm:"index:idx_cart_owner;not null"    json:"subject_id"`
	Role      string     `gorm:"index:idx_cart_owner;not null"    json:"role"`
	Status    string     `gorm:"index:idx_cart_owner;not null;default:active" json:"status"`
	Total     float64    `gorm:"not null;default:0"               json:"total"`
	Items     []CartItem `gorm:"foreignKey:CartID"                json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem holds a price snapshot; the snapshot is refreshed to the live
// catalog price on every add, so the cart tracks the latest known price.
type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                                json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"     json:"cart_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"     json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity>0"       json:"quantity"`
	Price     float64   `gorm:"not null;check:price>=0"                   json:"price"`
	AddedAt   time.Time `gorm:"autoCreateTime"                            json:"added_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// SessionToken is one entry of a subject's live-token set. The raw JWT is
// never stored, only its sha256 digest.
type SessionToken struct {
	ID          uuid.UUID `gorm:"primaryKey"        json:"id"`
	SubjectID   uuid.UUID `gorm:"index;not null"    json:"subject_id"`
	Role        string    `gorm:"not null"          json:"role"`
	TokenDigest string    `gorm:"unique;not null"   json:"-"`
	ExpiresAt   time.Time `gorm:"not null"          json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *SessionToken) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// RevokedToken backs the blacklist revocation strategy. A row matters only
// until its ExpiresAt, which mirrors the remaining validity of the JWT.
type RevokedToken struct {
	ID          uuid.UUID `gorm:"primaryKey"       json:"id"`
	TokenDigest string    `gorm:"unique;not null"  json:"-"`
	ExpiresAt   time.Time `gorm:"not null"         json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *RevokedToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Favorite struct {
	ID             uuid.UUID `gorm:"primaryKey"                              json:"id"`
	ProfessionalID uuid.UUID `gorm:"uniqueIndex:idx_prof_product;not null"   json:"professional_id"`
	ProductID      uuid.UUID `gorm:"uniqueIndex:idx_prof_product;not null"   json:"product_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
