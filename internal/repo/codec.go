package repo

import (
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/docstore"
)

// Document field names. These are the persistent schema; renaming one is a
// data migration.
const (
	fieldStatus      = "status"
	fieldGroupID     = "groupId"
	fieldCreatedAt   = "createdAt"
	fieldRequestedAt = "requestedAt"

	fieldGroupName = "groupName"
	fieldOwnerID   = "ownerId"
	fieldMembers   = "memberUserIds"

	fieldStoreName       = "storeName"
	fieldDate            = "date"
	fieldTotalCents      = "totalCents"
	fieldCurrencyCode    = "currencyCode"
	fieldItems           = "items"
	fieldOwnerUserID     = "ownerUserId"
	fieldUploadTimestamp = "uploadTimestamp"
	fieldUpdatedAt       = "updatedAt"
	fieldVerified        = "verifiedByUser"
	fieldEditedBy        = "editedBy"

	fieldItemName     = "name"
	fieldItemPrice    = "priceCents"
	fieldItemCategory = "category"
	fieldItemQuantity = "quantity"
	fieldItemPPU      = "pricePerUnitCents"
	fieldItemUnit     = "unit"
)

func encodeUser(u core.User) docstore.Fields {
	f := docstore.Fields{
		fieldStatus:      string(u.Status),
		fieldCreatedAt:   encodeTime(u.CreatedAt),
		fieldRequestedAt: encodeTime(u.RequestedAt),
	}
	if u.GroupID != "" {
		f[fieldGroupID] = u.GroupID
	}
	return f
}

func decodeUser(doc docstore.Document) core.User {
	return core.User{
		TelegramUserID: doc.ID,
		GroupID:        fieldString(doc.Fields, fieldGroupID),
		Status:         core.UserStatus(fieldString(doc.Fields, fieldStatus)),
		CreatedAt:      fieldTime(doc.Fields, fieldCreatedAt),
		RequestedAt:    fieldTime(doc.Fields, fieldRequestedAt),
	}
}

func encodeGroup(g core.Group) docstore.Fields {
	members := g.MemberUserIDs
	if members == nil {
		members = []string{}
	}
	return docstore.Fields{
		fieldGroupName: g.Name,
		fieldOwnerID:   g.OwnerID,
		fieldMembers:   members,
		fieldCreatedAt: encodeTime(g.CreatedAt),
	}
}

func decodeGroup(doc docstore.Document) core.Group {
	return core.Group{
		ID:            doc.ID,
		Name:          fieldString(doc.Fields, fieldGroupName),
		OwnerID:       fieldString(doc.Fields, fieldOwnerID),
		MemberUserIDs: fieldStringSlice(doc.Fields, fieldMembers),
		CreatedAt:     fieldTime(doc.Fields, fieldCreatedAt),
	}
}

func encodeReceipt(r core.Receipt) docstore.Fields {
	items := make([]docstore.Fields, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, encodeItem(it))
	}
	f := docstore.Fields{
		fieldStoreName:       r.StoreName,
		fieldDate:            r.Date,
		fieldCurrencyCode:    r.CurrencyCode,
		fieldItems:           items,
		fieldOwnerUserID:     r.OwnerUserID,
		fieldUploadTimestamp: encodeTime(r.UploadedAt),
		fieldVerified:        r.VerifiedByUser,
	}
	if r.Total != nil {
		f[fieldTotalCents] = r.Total.Cents
	}
	if r.GroupID != "" {
		f[fieldGroupID] = r.GroupID
	}
	if !r.UpdatedAt.IsZero() {
		f[fieldUpdatedAt] = encodeTime(r.UpdatedAt)
	}
	if r.EditedBy != "" {
		f[fieldEditedBy] = r.EditedBy
	}
	return f
}

func decodeReceipt(doc docstore.Document) core.Receipt {
	r := core.Receipt{
		ID:             doc.ID,
		StoreName:      fieldString(doc.Fields, fieldStoreName),
		Date:           fieldString(doc.Fields, fieldDate),
		Total:          fieldMoney(doc.Fields, fieldTotalCents),
		CurrencyCode:   fieldString(doc.Fields, fieldCurrencyCode),
		OwnerUserID:    fieldString(doc.Fields, fieldOwnerUserID),
		GroupID:        fieldString(doc.Fields, fieldGroupID),
		UploadedAt:     fieldTime(doc.Fields, fieldUploadTimestamp),
		UpdatedAt:      fieldTime(doc.Fields, fieldUpdatedAt),
		VerifiedByUser: fieldBool(doc.Fields, fieldVerified),
		EditedBy:       fieldString(doc.Fields, fieldEditedBy),
	}
	rawItems, _ := doc.Fields[fieldItems].([]any)
	for _, raw := range rawItems {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		r.Items = append(r.Items, decodeItem(m))
	}
	return r
}

func encodeItem(it core.LineItem) docstore.Fields {
	f := docstore.Fields{
		fieldItemName:     it.Name,
		fieldItemCategory: it.Category,
		fieldItemQuantity: it.Quantity,
		fieldItemUnit:     it.Unit,
	}
	if it.Price != nil {
		f[fieldItemPrice] = it.Price.Cents
	}
	if it.PricePerUnit != nil {
		f[fieldItemPPU] = it.PricePerUnit.Cents
	}
	return f
}

func decodeItem(m map[string]any) core.LineItem {
	return core.LineItem{
		Name:         fieldString(m, fieldItemName),
		Price:        fieldMoney(m, fieldItemPrice),
		Category:     fieldString(m, fieldItemCategory),
		Quantity:     fieldFloat(m, fieldItemQuantity),
		PricePerUnit: fieldMoney(m, fieldItemPPU),
		Unit:         fieldString(m, fieldItemUnit),
	}
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Tolerant accessors: documents that round-tripped through JSON hold float64
// numbers and []any slices.

func fieldString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func fieldBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func fieldFloat(m map[string]any, key string) float64 {
	switch n := m[key].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func fieldMoney(m map[string]any, key string) *core.Money {
	if _, ok := m[key]; !ok {
		return nil
	}
	return &core.Money{Cents: int64(fieldFloat(m, key))}
}

func fieldTime(m map[string]any, key string) time.Time {
	s := fieldString(m, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fieldStringSlice(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
