package models

import (
	"strings"
	"time"

	"github.com/piratesdroid/travel-guide/internal/filter"
)

// Kind names a record collection in the document store.
type Kind string

const (
	KindPlace Kind = "place"
	KindFort  Kind = "fort"
	KindBlog  Kind = "blog"
)

// Valid reports whether k is one of the known collections.
func (k Kind) Valid() bool {
	switch k {
	case KindPlace, KindFort, KindBlog:
		return true
	}
	return false
}

// Postal holds the pincode enrichment stored alongside places and forts.
// CheckedAt is when the refresh job last tried to resolve the pincode.
type Postal struct {
	Pincode   string     `json:"pincode,omitempty" validate:"omitempty,pincode"`
	District  string     `json:"district,omitempty"`
	State     string     `json:"postal_state,omitempty"`
	Region    string     `json:"region,omitempty"`
	CheckedAt *time.Time `json:"pincode_checked_at,omitempty"`
}

// Apply copies a resolved result into the record's postal fields.
func (p *Postal) Apply(r *PostalResult) {
	if r == nil {
		return
	}
	p.Pincode = r.Pincode
	p.District = r.District
	p.State = r.State
	p.Region = r.Region
}

// Place is a destination record as stored under Place/{id}.
type Place struct {
	ID     string   `json:"ID" validate:"omitempty,max=128"`
	Title  string   `json:"Title" validate:"required"`
	Desc   string   `json:"Desc,omitempty"`
	Type   string   `json:"Type,omitempty"`
	Add    string   `json:"Add,omitempty"`
	Thumb  string   `json:"Thumb,omitempty"`
	Images []string `json:"Images,omitempty"`
	Rating string   `json:"rating,omitempty"`
	Geo
	Postal
}

// View projects the place for listing filters: location is the address, category the type.
func (p Place) View() filter.RecordView {
	return filter.RecordView{Title: p.Title, LocationText: p.Add, Category: p.Type}
}

// Fort is a fort record as stored under Fort/{id}. Older entries carry the
// display name in "name" and the address in "Address".
type Fort struct {
	ID      string   `json:"ID" validate:"omitempty,max=128"`
	Name    string   `json:"name,omitempty" validate:"required_without=Title"`
	Title   string   `json:"Title,omitempty"`
	Address string   `json:"Address,omitempty"`
	State   string   `json:"State,omitempty"`
	Desc    string   `json:"Desc,omitempty"`
	Thumb   string   `json:"Thumb,omitempty"`
	Image   string   `json:"Image,omitempty"`
	Images  []string `json:"Images,omitempty"`
	Rating  string   `json:"rating,omitempty"`
	Geo
	Postal
}

// DisplayTitle returns the name shown for the fort.
func (f Fort) DisplayTitle() string {
	if t := strings.TrimSpace(f.Name); t != "" {
		return t
	}
	return strings.TrimSpace(f.Title)
}

// Cover returns the first usable image of the fort.
func (f Fort) Cover() string {
	if f.Thumb != "" {
		return f.Thumb
	}
	return f.Image
}

// View projects the fort for listing filters. Forts have no category.
func (f Fort) View() filter.RecordView {
	return filter.RecordView{Title: f.DisplayTitle(), LocationText: f.Address}
}

// Blog is an article stored under Blog/{id}.
type Blog struct {
	ID       string   `json:"ID" validate:"omitempty,max=128"`
	Title    string   `json:"Title" validate:"required"`
	Content  string   `json:"Content,omitempty"`
	Category string   `json:"Category,omitempty"`
	Author   string   `json:"Author,omitempty"`
	Date     string   `json:"Date,omitempty"`
	ReadTime string   `json:"ReadTime,omitempty"`
	Thumb    string   `json:"Thumb,omitempty"`
	Tags     []string `json:"Tags,omitempty"`
}

// View projects the blog for listing filters: the body stands in for the location text.
func (b Blog) View() filter.RecordView {
	return filter.RecordView{Title: b.Title, LocationText: b.Content, Category: b.Category}
}
