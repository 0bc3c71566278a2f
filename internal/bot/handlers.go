package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/editblock"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

func (b *Bot) handleGroupInfo(ctx context.Context, chatID int64, u core.User) error {
	g, err := b.scopes.GroupInfo(ctx, u)
	switch {
	case errors.Is(err, core.ErrNotInGroup):
		return b.tg.SendMessage(chatID, "You are not in a group. Create one with /creategroup <name>, or ask the administrator to add you to one.")
	case errors.Is(err, core.ErrStaleGroupRef):
		if cerr := b.scopes.ClearStaleGroup(ctx, u.TelegramUserID); cerr != nil {
			return b.replyError(ctx, chatID, "clear stale group", cerr)
		}
		return b.tg.SendMessage(chatID, "Your group no longer exists. The reference has been cleared; you are back on your personal scope.")
	case err != nil:
		return b.replyError(ctx, chatID, "group info", err)
	}
	return b.tg.SendMessage(chatID, groupInfoText(g, u.TelegramUserID))
}

func (b *Bot) handleCreateGroup(ctx context.Context, chatID int64, u core.User, name string) error {
	if name == "" {
		return b.tg.SendMessage(chatID, "Usage: /creategroup <group name>")
	}
	g, err := b.scopes.CreateGroup(ctx, u, name)
	switch {
	case errors.Is(err, core.ErrAlreadyInGroup):
		return b.tg.SendMessage(chatID, "You are already in a group. Leave your current group first via 'Group Options'.")
	case errors.Is(err, core.ErrEmptyGroupName):
		return b.tg.SendMessage(chatID, "Group name cannot be empty.")
	case err != nil:
		return b.replyError(ctx, chatID, "create group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf(
		"Group '%s' created with ID: `%s`.\nYou have been added as the first member.\nOthers can join with /joingroup %s", g.Name, g.ID, g.ID))
}

func (b *Bot) handleJoinGroup(ctx context.Context, chatID int64, u core.User, args []string) error {
	if len(args) == 0 {
		return b.tg.SendMessage(chatID, "Usage: /joingroup <group_id>")
	}
	groupID := args[0]
	g, err := b.scopes.JoinGroup(ctx, u, groupID)
	switch {
	case errors.Is(err, core.ErrGroupNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("Group ID `%s` not found.", groupID))
	case errors.Is(err, core.ErrAlreadyInGroup):
		return b.tg.SendMessage(chatID, "You are already in a group. Leave your current group first via 'Group Options'.")
	case err != nil:
		return b.replyError(ctx, chatID, "join group", err)
	}
	name := g.Name
	if name == "" {
		name = scope.UnnamedGroupLabel
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf("You have joined '%s'.", name))
}

func (b *Bot) handleLeaveGroup(ctx context.Context, chatID int64, u core.User) error {
	if b.scopes.IsAdmin(u.TelegramUserID) {
		return b.tg.SendMessage(chatID, "This action is for regular users. Admins manage groups with admin commands.")
	}

	name := "your group"
	if g, err := b.scopes.GroupInfo(ctx, u); err == nil && g.Name != "" {
		name = "'" + g.Name + "'"
	}
	err := b.scopes.LeaveGroup(ctx, u)
	switch {
	case errors.Is(err, core.ErrNotInGroup):
		return b.tg.SendMessage(chatID, "You are not currently in any group.")
	case err != nil:
		return b.replyError(ctx, chatID, "leave group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf("You have left %s.", name))
}

// handleListReceipts renders the recent receipts as buttons, either for
// viewing or for picking one to delete.
func (b *Bot) handleListReceipts(ctx context.Context, chatID int64, u core.User, forDelete bool) error {
	sc, err := b.resolveScope(ctx, u)
	if err != nil {
		return b.replyError(ctx, chatID, "resolve scope", err)
	}
	receipts, err := b.reports.Recent(ctx, sc, recentReceiptsLimit)
	if err != nil {
		return b.replyError(ctx, chatID, "list receipts", err)
	}

	label := contextLabel(sc)
	if len(receipts) == 0 {
		if forDelete {
			return b.tg.SendMessage(chatID, fmt.Sprintf("No recent receipts found %s to delete.", label))
		}
		return b.tg.SendMessage(chatID, fmt.Sprintf("No recent receipts found %s.", label))
	}

	prefix := cbViewReceiptPrefix
	header := fmt.Sprintf("📄 **Recent Receipts** %s (max %d):\nClick on a receipt to view details.", label, recentReceiptsLimit)
	if forDelete {
		prefix = cbDelConfirmPrefix
		header = fmt.Sprintf("🗑️ **Select Receipt to Delete** %s (max %d):\nClick on a receipt to request its deletion.", label, recentReceiptsLimit)
	}

	kb := make(telegram.Keyboard, 0, len(receipts))
	for _, r := range receipts {
		kb = append(kb, []telegram.Button{{
			Text: receiptButtonLabel(r),
			Data: prefix + r.ID,
		}})
	}
	return b.tg.SendKeyboard(chatID, header, kb)
}

func (b *Bot) handleViewReceipt(ctx context.Context, chatID int64, receiptID string) error {
	r, err := b.repo.GetReceipt(ctx, receiptID)
	if errors.Is(err, core.ErrReceiptNotFound) {
		return b.tg.SendMessage(chatID, fmt.Sprintf("Error: Receipt with Reference ID `%s` not found.", receiptID))
	}
	if err != nil {
		return b.replyError(ctx, chatID, "view receipt", err)
	}
	return b.tg.SendMessage(chatID, receiptDetailText(r))
}

func (b *Bot) handleDeleteConfirm(ctx context.Context, chatID int64, receiptID string) error {
	r, err := b.repo.GetReceipt(ctx, receiptID)
	if errors.Is(err, core.ErrReceiptNotFound) {
		return b.tg.SendMessage(chatID, fmt.Sprintf("Error: Receipt Ref: `%s` no longer exists.", receiptID))
	}
	if err != nil {
		return b.replyError(ctx, chatID, "delete confirm", err)
	}
	text := fmt.Sprintf("Delete receipt Ref: `%s`?\n%s", r.ID, receiptButtonLabel(r))
	return b.tg.SendKeyboard(chatID, text, deleteConfirmKeyboard(receiptID))
}

// Deleting is allowed to the uploader and the admin only; group membership is
// enough to edit a receipt but not to remove it.
func (b *Bot) handleDeleteDo(ctx context.Context, chatID int64, u core.User, receiptID string) error {
	r, err := b.repo.GetReceipt(ctx, receiptID)
	if errors.Is(err, core.ErrReceiptNotFound) {
		return b.tg.SendMessage(chatID, fmt.Sprintf("Error: Receipt Ref: `%s` no longer exists.", receiptID))
	}
	if err != nil {
		return b.replyError(ctx, chatID, "delete receipt", err)
	}

	if r.OwnerUserID != u.TelegramUserID && !b.scopes.IsAdmin(u.TelegramUserID) {
		return b.tg.SendMessage(chatID, fmt.Sprintf(
			"Error: You are not authorized to delete receipt Ref: `%s`. Only the uploader or admin can delete.", receiptID))
	}
	if err := b.repo.DeleteReceipt(ctx, receiptID); err != nil {
		return b.replyError(ctx, chatID, "delete receipt", err)
	}
	b.logger.InfoContext(ctx, "receipt deleted",
		log.FieldReceiptID, receiptID, log.FieldUserID, u.TelegramUserID)
	return b.tg.SendMessage(chatID, fmt.Sprintf("✅ Receipt Ref: `%s` has been deleted.", receiptID))
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64, u core.User, block string) error {
	if block == "" {
		return b.tg.SendMessage(chatID, "Usage: /edit followed by an edit block. View a receipt to see the exact format, starting with its `Ref:` line.")
	}

	upd, err := editblock.Parse(block)
	if err != nil {
		var perr *editblock.ParseError
		if errors.As(err, &perr) {
			return b.tg.SendMessage(chatID, fmt.Sprintf(
				"Error parsing your edit request (line %d): %s.\nPlease correct it and try /edit again.", perr.Line, perr.Reason))
		}
		return b.tg.SendMessage(chatID, "Error parsing your edit request. Please check the format and try again.")
	}

	current, err := b.repo.GetReceipt(ctx, upd.ReceiptID)
	if errors.Is(err, core.ErrReceiptNotFound) {
		return b.tg.SendMessage(chatID, fmt.Sprintf("Error: Receipt with Reference ID `%s` not found.", upd.ReceiptID))
	}
	if err != nil {
		return b.replyError(ctx, chatID, "edit receipt", err)
	}

	if !b.canEdit(u, current) {
		return b.tg.SendMessage(chatID, fmt.Sprintf("Error: You are not authorized to edit receipt `%s`.", upd.ReceiptID))
	}

	edited := upd.Apply(current)
	if err := b.repo.ReplaceReceiptContent(ctx, current.ID, edited, u.TelegramUserID); err != nil {
		return b.replyError(ctx, chatID, "edit receipt", err)
	}
	b.logger.InfoContext(ctx, "receipt edited",
		log.FieldReceiptID, current.ID, log.FieldUserID, u.TelegramUserID)
	return b.tg.SendMessage(chatID, fmt.Sprintf("✅ Receipt `%s` updated successfully!", current.ID))
}

// canEdit: the uploader, anyone in the receipt's group, or the admin.
func (b *Bot) canEdit(u core.User, r core.Receipt) bool {
	if b.scopes.IsAdmin(u.TelegramUserID) || r.OwnerUserID == u.TelegramUserID {
		return true
	}
	return r.GroupID != "" && u.GroupID == r.GroupID
}
