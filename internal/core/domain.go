package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// User account status values.
const (
	StatusPendingApproval UserStatus = "pending_approval"
	StatusApproved        UserStatus = "approved"
	StatusBanned          UserStatus = "banned"
)

type (
	UserStatus string

	// User is the profile stored per Telegram user. GroupID is empty when the
	// user is not in a group; if set, the referenced group's member list must
	// contain this user (the scope operations keep both sides in sync).
	User struct {
		TelegramUserID string
		GroupID        string
		Status         UserStatus
		CreatedAt      time.Time
		RequestedAt    time.Time
	}

	// Group is a shared spending scope. MemberUserIDs has set semantics: no
	// duplicates, order not significant.
	Group struct {
		ID            string
		Name          string
		OwnerID       string
		MemberUserIDs []string
		CreatedAt     time.Time
	}

	// Receipt is one processed receipt image. GroupID empty means the receipt
	// is filed under the uploader's personal scope; non-empty means the group
	// scope. The scope is fixed at creation time.
	Receipt struct {
		ID             string
		StoreName      string
		Date           string // YYYY-MM-DD
		Total          *Money
		CurrencyCode   string
		Items          []LineItem
		OwnerUserID    string
		GroupID        string
		UploadedAt     time.Time
		UpdatedAt      time.Time
		VerifiedByUser bool
		EditedBy       string
	}

	// LineItem is one row of a receipt. Items have no identity of their own;
	// they live and die with their receipt.
	LineItem struct {
		Name         string
		Price        *Money
		Category     string
		Quantity     float64
		PricePerUnit *Money
		Unit         string
	}
)

var (
	ErrEmptyGroupName  = errors.New("group name cannot be empty")
	ErrAlreadyInGroup  = errors.New("user is already in a group")
	ErrNotInGroup      = errors.New("user is not in a group")
	ErrGroupNotFound   = errors.New("group not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrStaleGroupRef   = errors.New("stale group reference")
	ErrInvalidStatus   = errors.New("invalid user status")
)

// Categories is the fixed set a line item may carry. Anything else is coerced
// to CategoryOther at the boundary.
var Categories = []string{
	"Produce", "Dairy & Eggs", "Meat & Seafood", "Bakery", "Pantry Staples",
	"Frozen Foods", "Beverages (Non-alcoholic)", "Alcohol", "Snacks & Sweets",
	"Household Supplies", "Personal Care", "Baby Items", "Pet Supplies", "Other",
}

const CategoryOther = "Other"

// Defaults for line item fields left out of an edit block.
const (
	DefaultQuantity = 1
	DefaultUnit     = "unit"
)

// NormalizeCategory returns the category unchanged if it is one of Categories,
// otherwise CategoryOther.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// ValidStatus reports whether s is one of the three known account statuses.
func ValidStatus(s UserStatus) bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusBanned:
		return true
	}
	return false
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGroupName
	}
	if g.OwnerID == "" {
		return errors.New("group owner cannot be empty")
	}
	seen := make(map[string]struct{}, len(g.MemberUserIDs))
	for _, id := range g.MemberUserIDs {
		if _, dup := seen[id]; dup {
			return errors.New("duplicate member in group")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// HasMember reports whether userID is in the group's member set.
func (g Group) HasMember(userID string) bool {
	for _, id := range g.MemberUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (r Receipt) Validate() error {
	if r.OwnerUserID == "" {
		return errors.New("receipt owner cannot be empty")
	}
	if r.Date != "" {
		if _, err := ParseDate(r.Date); err != nil {
			return err
		}
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("line item %d has empty name", i+1)
		}
		if it.Quantity < 0 {
			return fmt.Errorf("line item %d has negative quantity", i+1)
		}
	}
	return nil
}

// IsGroupScoped reports whether the receipt is filed under a shared group.
func (r Receipt) IsGroupScoped() bool {
	return r.GroupID != ""
}
