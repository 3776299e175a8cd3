package domain

import (
	"time"
)

// ListingState is the lifecycle state of an antique listing.
type ListingState int

const (
	// StateRejected means the antiquarian refused the listing and the owner must rework it.
	StateRejected ListingState = -1
	// StateNeedsReview means the listing waits for an antiquarian's verdict.
	StateNeedsReview ListingState = 0
	// StateAccepted means the listing was validated and the commission applied.
	StateAccepted ListingState = 1
	// StateAcceptedButModified means an accepted listing was edited and must be reviewed again.
	StateAcceptedButModified ListingState = 2
	// StateSold is terminal.
	StateSold ListingState = 3
)

// Open reports whether the state represents outstanding antiquarian work.
func (s ListingState) Open() bool {
	return s == StateNeedsReview || s == StateAcceptedButModified
}

// Reviewable reports whether an antiquarian may still accept or reject the listing.
func (s ListingState) Reviewable() bool {
	return s == StateNeedsReview || s == StateAcceptedButModified
}

func (s ListingState) String() string {
	switch s {
	case StateRejected:
		return "rejected"
	case StateNeedsReview:
		return "needs_review"
	case StateAccepted:
		return "accepted"
	case StateAcceptedButModified:
		return "accepted_but_modified"
	case StateSold:
		return "sold"
	}
	return "unknown"
}

// Listing is an antique item put up for sale. Price includes the commission
// markup once the listing has been accepted.
type Listing struct {
	ID               uint         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Price            float64      `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Title            string       `gorm:"column:title;not null" json:"title"`
	Description      string       `gorm:"column:description;not null" json:"description"`
	SellerEmail      string       `gorm:"column:seller_email;not null;index" json:"seller_email"`
	AntiquarianEmail string       `gorm:"column:antiquarian_email;not null;index" json:"antiquarian_email"`
	State            ListingState `gorm:"column:state;not null;default:0" json:"state"`
	IsDisplay        bool         `gorm:"column:is_display;not null;default:true" json:"is_display"`
	NoteTitle        string       `gorm:"column:note_title" json:"note_title,omitempty"`
	NoteDescription  string       `gorm:"column:note_description" json:"note_description,omitempty"`
	NotePrice        string       `gorm:"column:note_price" json:"note_price,omitempty"`
	NotePhoto        string       `gorm:"column:note_photo" json:"note_photo,omitempty"`
	CreatedAt        time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "antiquities"
}

// Photo belongs to exactly one listing. Photos are replaced as a whole set on
// edit, so rows carry no state beyond the storage path.
type Photo struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"column:listing_id;not null;index" json:"listing_id"`
	Path      string    `gorm:"column:path;not null" json:"path"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Photo) TableName() string {
	return "antiquity_photos"
}

// ListingWithPhotos is the read shape for a listing and its photo paths.
type ListingWithPhotos struct {
	Listing
	Photos []string `json:"photos"`
}
