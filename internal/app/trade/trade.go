/*
Package trade holds the trade data model and the Catalog controller.
*/
package trade

import (
	"strings"
	"time"

	"gardentrade/internal/pkg/errs"
)

// ItemKind is the closed set of tradeable item categories.
type ItemKind string

const (
	KindPlant ItemKind = "plant"
	KindPet   ItemKind = "pet"
	KindCoins ItemKind = "coins"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindPlant, KindPet, KindCoins:
		return true
	}
	return false
}

// Status is the lifecycle state of a trade. It only moves from active to completed.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Item is one line of an offer.
type Item struct {
	Kind     ItemKind `json:"kind"`
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
}

// NewItem validates and returns an item with a trimmed name.
func NewItem(kind ItemKind, name string, quantity int) (Item, error) {
	if !kind.Valid() {
		return Item{}, errs.NewError(errs.ErrItemKindInvalid)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, errs.NewError(errs.ErrItemNameRequired)
	}

	if quantity <= 0 {
		return Item{}, errs.NewError(errs.ErrItemQuantityInvalid)
	}

	return Item{Kind: kind, Name: name, Quantity: quantity}, nil
}

// Trade is a posted offer exchanging one list of items for another.
type Trade struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	OwnerAvatar string    `json:"ownerAvatar,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Offering    []Item    `json:"offering"`
	Seeking     []Item    `json:"seeking"`
	CreatedAt   time.Time `json:"createdAt"`
	Status      Status    `json:"status"`
}

// Draft is the owner-supplied part of a trade.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Offering    []Item `json:"offering"`
	Seeking     []Item `json:"seeking"`
}

// Validate checks the postability rules: a title and at least one item on
// each side, every item valid.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errs.NewError(errs.ErrTitleRequired)
	}
	if len(d.Offering) == 0 {
		return errs.NewError(errs.ErrOfferingRequired)
	}
	if len(d.Seeking) == 0 {
		return errs.NewError(errs.ErrSeekingRequired)
	}

	for _, list := range [][]Item{d.Offering, d.Seeking} {
		for _, it := range list {
			if _, err := NewItem(it.Kind, it.Name, it.Quantity); err != nil {
				return err
			}
		}
	}

	return nil
}

// SamePost reports whether stored was written by an earlier attempt to post
// t: same id, owner and creation time. Backends use it to make a repeated
// PostTrade succeed instead of failing on the existing id.
func (t Trade) SamePost(stored Trade) bool {
	return t.ID == stored.ID &&
		t.Owner == stored.Owner &&
		t.CreatedAt.Truncate(time.Microsecond).Equal(stored.CreatedAt.Truncate(time.Microsecond))
}

// Clone returns a copy of t whose item slices are not shared.
func (t Trade) Clone() Trade {
	t.Offering = append([]Item(nil), t.Offering...)
	t.Seeking = append([]Item(nil), t.Seeking...)
	return t
}
