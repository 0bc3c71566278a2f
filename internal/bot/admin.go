package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/log"
)

func (b *Bot) dispatchAdmin(ctx context.Context, chatID int64, u core.User, cmd Command) error {
	if !b.scopes.IsAdmin(u.TelegramUserID) {
		return b.tg.SendMessage(chatID, "This command is restricted to the administrator.")
	}

	switch cmd.Action {
	case cbAdminMenu:
		return b.tg.SendKeyboard(chatID, "👑 Admin Panel", adminMenuKeyboard())

	case cbAdminListPending:
		return b.sendUserList(ctx, chatID, core.StatusPendingApproval)
	case cbAdminListApprove:
		return b.sendUserList(ctx, chatID, core.StatusApproved)
	case cbAdminListAll:
		return b.sendUserList(ctx, chatID, "")
	case "listusers":
		return b.handleListUsers(ctx, chatID, cmd.Args)

	case "approveuser":
		return b.handleSetStatus(ctx, chatID, cmd.Args, core.StatusApproved,
			"Usage: /approveuser <user_id>")
	case "banuser":
		return b.handleSetStatus(ctx, chatID, cmd.Args, core.StatusBanned,
			"Usage: /banuser <user_id>")
	case "setuserstatus":
		if len(cmd.Args) != 2 {
			return b.tg.SendMessage(chatID, "Usage: /setuserstatus <user_id> <pending_approval|approved|banned>")
		}
		return b.setStatusAndNotify(ctx, chatID, cmd.Args[0], core.UserStatus(cmd.Args[1]))

	case "admincreategroup":
		return b.handleAdminCreateGroup(ctx, chatID, u, cmd.Rest)
	case "addusertogroup":
		return b.handleAddUserToGroup(ctx, chatID, cmd.Args)
	case "removeuserfromgroup":
		return b.handleRemoveUserFromGroup(ctx, chatID, cmd.Args)
	case "deletegroup":
		return b.handleDeleteGroup(ctx, chatID, cmd.Args)

	case "admin_approve_prompt":
		return b.tg.SendMessage(chatID, "Type: `/approveuser USER_ID_TO_APPROVE`")
	case "admin_ban_prompt":
		return b.tg.SendMessage(chatID, "Type: `/banuser USER_ID_TO_BAN`")
	case "admin_creategroup_prompt":
		return b.tg.SendMessage(chatID, "Type: `/admincreategroup Group Name`")
	case "admin_addtogroup_prompt":
		return b.tg.SendMessage(chatID, "Type: `/addusertogroup USER_ID GROUP_ID`")
	case "admin_removefromgroup_prompt":
		return b.tg.SendMessage(chatID, "Type: `/removeuserfromgroup USER_ID`")
	case "admin_deletegroup_prompt":
		return b.tg.SendMessage(chatID, "Type: `/deletegroup GROUP_ID`")
	}
	return nil
}

func (b *Bot) handleListUsers(ctx context.Context, chatID int64, args []string) error {
	var status core.UserStatus
	if len(args) > 0 {
		switch args[0] {
		case "pending", "pending_approval":
			status = core.StatusPendingApproval
		case "approved":
			status = core.StatusApproved
		case "banned":
			status = core.StatusBanned
		case "all":
		default:
			return b.tg.SendMessage(chatID, "Usage: /listusers [pending|approved|banned|all]")
		}
	}
	return b.sendUserList(ctx, chatID, status)
}

// sendUserList lists users with the given status; empty status means all.
func (b *Bot) sendUserList(ctx context.Context, chatID int64, status core.UserStatus) error {
	users, err := b.scopes.ListUsers(ctx)
	if err != nil {
		return b.replyError(ctx, chatID, "list users", err)
	}
	label := "all"
	if status != "" {
		label = string(status)
		filtered := users[:0]
		for _, u := range users {
			if u.Status == status {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	return b.tg.SendMessage(chatID, userListText(users, label))
}

func (b *Bot) handleSetStatus(ctx context.Context, chatID int64, args []string, status core.UserStatus, usage string) error {
	if len(args) != 1 {
		return b.tg.SendMessage(chatID, usage)
	}
	return b.setStatusAndNotify(ctx, chatID, args[0], status)
}

func (b *Bot) setStatusAndNotify(ctx context.Context, chatID int64, userID string, status core.UserStatus) error {
	err := b.scopes.SetUserStatus(ctx, userID, status)
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("User ID `%s` not found.", userID))
	case errors.Is(err, core.ErrInvalidStatus):
		return b.tg.SendMessage(chatID, "Invalid status. Use 'approved', 'banned', or 'pending_approval'.")
	case err != nil:
		return b.replyError(ctx, chatID, "set user status", err)
	}

	b.notifyStatusChange(ctx, userID, status)
	return b.tg.SendMessage(chatID, fmt.Sprintf("User `%s` status set to '%s'.", userID, status))
}

// notifyStatusChange tells the affected user, best effort. Their chat id is
// their user id for direct chats.
func (b *Bot) notifyStatusChange(ctx context.Context, userID string, status core.UserStatus) {
	targetChat, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return
	}
	var text string
	switch status {
	case core.StatusApproved:
		text = "Your account has been approved! You can now use the bot. Send /menu or a receipt image."
	case core.StatusBanned:
		text = "Your account access has been restricted by the administrator."
	default:
		return
	}
	if err := b.tg.SendMessage(targetChat, text); err != nil {
		b.logger.WarnContext(ctx, "status notification failed",
			log.FieldUserID, userID, log.FieldError, err.Error())
	}
}

func (b *Bot) handleAdminCreateGroup(ctx context.Context, chatID int64, u core.User, name string) error {
	if name == "" {
		return b.tg.SendMessage(chatID, "Usage: /admincreategroup <group name>")
	}
	g, err := b.scopes.AdminCreateGroup(ctx, u.TelegramUserID, name)
	if err != nil {
		return b.replyError(ctx, chatID, "admin create group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf(
		"Group '%s' created with ID: `%s`.\nNo initial members were added. Use /addusertogroup to add them.", g.Name, g.ID))
}

func (b *Bot) handleAddUserToGroup(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 2 {
		return b.tg.SendMessage(chatID, "Usage: /addusertogroup <user_id> <group_id>")
	}
	userID, groupID := args[0], args[1]
	err := b.scopes.AdminAddUserToGroup(ctx, userID, groupID)
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("User ID `%s` not found.", userID))
	case errors.Is(err, core.ErrGroupNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("Group ID `%s` not found.", groupID))
	case err != nil:
		return b.replyError(ctx, chatID, "add user to group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf("User `%s` added to group `%s`.", userID, groupID))
}

func (b *Bot) handleRemoveUserFromGroup(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.tg.SendMessage(chatID, "Usage: /removeuserfromgroup <user_id>")
	}
	userID := args[0]
	err := b.scopes.AdminRemoveUserFromGroup(ctx, userID)
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("User ID `%s` not found.", userID))
	case errors.Is(err, core.ErrNotInGroup):
		return b.tg.SendMessage(chatID, fmt.Sprintf("User `%s` is not in any group.", userID))
	case err != nil:
		return b.replyError(ctx, chatID, "remove user from group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf("User `%s` removed from their group.", userID))
}

func (b *Bot) handleDeleteGroup(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.tg.SendMessage(chatID, "Usage: /deletegroup <group_id>")
	}
	groupID := args[0]
	err := b.scopes.AdminDeleteGroup(ctx, groupID)
	switch {
	case errors.Is(err, core.ErrGroupNotFound):
		return b.tg.SendMessage(chatID, fmt.Sprintf("Group ID `%s` not found.", groupID))
	case err != nil:
		return b.replyError(ctx, chatID, "delete group", err)
	}
	return b.tg.SendMessage(chatID, fmt.Sprintf(
		"Group `%s` and its members' associations have been deleted.", groupID))
}
