// Package repo maps domain entities onto document-store collections. It owns
// the persistent field names and translates docstore errors into the domain
// sentinels callers match on.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/docstore"
)

type Repository struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Repository {
	return &Repository{ds: ds}
}

func (r *Repository) Close() error {
	return r.ds.Close()
}

// --- users ---

func (r *Repository) GetUser(ctx context.Context, userID string) (core.User, error) {
	doc, err := r.ds.Get(ctx, docstore.CollectionUsers, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return decodeUser(doc), nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	if err := r.ds.Set(ctx, docstore.CollectionUsers, u.TelegramUserID, encodeUser(u), false); err != nil {
		return fmt.Errorf("create user %s: %w", u.TelegramUserID, err)
	}
	return nil
}

func (r *Repository) SetUserStatus(ctx context.Context, userID string, status core.UserStatus) error {
	err := r.ds.Update(ctx, docstore.CollectionUsers, userID, docstore.Fields{
		fieldStatus: string(status),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set status for user %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) SetUserGroup(ctx context.Context, userID, groupID string) error {
	err := r.ds.Update(ctx, docstore.CollectionUsers, userID, docstore.Fields{
		fieldGroupID: groupID,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set group for user %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) ClearUserGroup(ctx context.Context, userID string) error {
	err := r.ds.Update(ctx, docstore.CollectionUsers, userID, docstore.Fields{
		fieldGroupID: docstore.FieldDelete,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("clear group for user %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	docs, err := r.ds.Query(ctx, docstore.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeUser(doc))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].TelegramUserID < users[j].TelegramUserID
	})
	return users, nil
}

// --- groups ---

func (r *Repository) GetGroup(ctx context.Context, groupID string) (core.Group, error) {
	doc, err := r.ds.Get(ctx, docstore.CollectionGroups, groupID)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.Group{}, core.ErrGroupNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("get group %s: %w", groupID, err)
	}
	return decodeGroup(doc), nil
}

func (r *Repository) CreateGroup(ctx context.Context, g core.Group) (string, error) {
	id, err := r.ds.AddAutoID(ctx, docstore.CollectionGroups, encodeGroup(g))
	if err != nil {
		return "", fmt.Errorf("create group %q: %w", g.Name, err)
	}
	return id, nil
}

func (r *Repository) DeleteGroup(ctx context.Context, groupID string) error {
	if err := r.ds.Delete(ctx, docstore.CollectionGroups, groupID); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}

func (r *Repository) AddGroupMember(ctx context.Context, groupID, userID string) error {
	err := r.ds.Update(ctx, docstore.CollectionGroups, groupID, docstore.Fields{
		fieldMembers: docstore.ArrayUnion(userID),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("add member %s to group %s: %w", userID, groupID, err)
	}
	return nil
}

func (r *Repository) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	err := r.ds.Update(ctx, docstore.CollectionGroups, groupID, docstore.Fields{
		fieldMembers: docstore.ArrayRemove(userID),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("remove member %s from group %s: %w", userID, groupID, err)
	}
	return nil
}

// --- receipts ---

func (r *Repository) GetReceipt(ctx context.Context, receiptID string) (core.Receipt, error) {
	doc, err := r.ds.Get(ctx, docstore.CollectionReceipts, receiptID)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.Receipt{}, core.ErrReceiptNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt %s: %w", receiptID, err)
	}
	return decodeReceipt(doc), nil
}

func (r *Repository) AddReceipt(ctx context.Context, receipt core.Receipt) (string, error) {
	id, err := r.ds.AddAutoID(ctx, docstore.CollectionReceipts, encodeReceipt(receipt))
	if err != nil {
		return "", fmt.Errorf("add receipt: %w", err)
	}
	return id, nil
}

func (r *Repository) DeleteReceipt(ctx context.Context, receiptID string) error {
	if err := r.ds.Delete(ctx, docstore.CollectionReceipts, receiptID); err != nil {
		return fmt.Errorf("delete receipt %s: %w", receiptID, err)
	}
	return nil
}

// ReplaceReceiptContent overwrites the user-editable portion of a receipt and
// marks it verified. Items are a full replacement, never a merge.
func (r *Repository) ReplaceReceiptContent(ctx context.Context, receiptID string, receipt core.Receipt, editedBy string) error {
	items := make([]docstore.Fields, 0, len(receipt.Items))
	for _, it := range receipt.Items {
		items = append(items, encodeItem(it))
	}
	updates := docstore.Fields{
		fieldStoreName:    receipt.StoreName,
		fieldDate:         receipt.Date,
		fieldCurrencyCode: receipt.CurrencyCode,
		fieldItems:        items,
		fieldVerified:     true,
		fieldEditedBy:     editedBy,
		fieldUpdatedAt:    docstore.ServerTimestamp,
	}
	if receipt.Total != nil {
		updates[fieldTotalCents] = receipt.Total.Cents
	} else {
		updates[fieldTotalCents] = docstore.FieldDelete
	}

	err := r.ds.Update(ctx, docstore.CollectionReceipts, receiptID, updates)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.ErrReceiptNotFound
	}
	if err != nil {
		return fmt.Errorf("replace receipt %s: %w", receiptID, err)
	}
	return nil
}

// ReceiptsByOwner returns the user's personal receipts, optionally limited to
// an inclusive date window. Empty start and end skip the date filter.
func (r *Repository) ReceiptsByOwner(ctx context.Context, ownerUserID, start, end string) ([]core.Receipt, error) {
	return r.queryReceipts(ctx, docstore.Eq(fieldOwnerUserID, ownerUserID), start, end)
}

// ReceiptsByGroup is ReceiptsByOwner for group-scoped receipts.
func (r *Repository) ReceiptsByGroup(ctx context.Context, groupID, start, end string) ([]core.Receipt, error) {
	return r.queryReceipts(ctx, docstore.Eq(fieldGroupID, groupID), start, end)
}

func (r *Repository) queryReceipts(ctx context.Context, scope docstore.Filter, start, end string) ([]core.Receipt, error) {
	filters := []docstore.Filter{scope}
	if start != "" {
		filters = append(filters, docstore.Gte(fieldDate, start))
	}
	if end != "" {
		filters = append(filters, docstore.Lte(fieldDate, end))
	}

	docs, err := r.ds.Query(ctx, docstore.CollectionReceipts, filters...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	receipts := make([]core.Receipt, 0, len(docs))
	for _, doc := range docs {
		receipts = append(receipts, decodeReceipt(doc))
	}
	return receipts, nil
}
