// Package bot turns normalized inbound events into actions: it classifies
// commands and button payloads, enforces the approval gate, routes to the
// scope/summary/receipt handlers, and renders the menu keyboards and replies.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/queue"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/summary"
	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

// Transport is the slice of the messaging client the dispatcher needs.
type Transport interface {
	SendMessage(chatID int64, text string) error
	SendKeyboard(chatID int64, text string, kb telegram.Keyboard) error
	AnswerCallback(callbackID string) error
}

// Publisher enqueues receipt-image jobs for the worker.
type Publisher interface {
	PublishReceiptJob(ctx context.Context, msg *queue.ReceiptJobMessage) error
}

const recentReceiptsLimit = 20

type Bot struct {
	scopes  *scope.Service
	reports *summary.Service
	repo    *repo.Repository
	jobs    Publisher
	tg      Transport
	logger  *log.Logger
	now     func() time.Time
}

func New(scopes *scope.Service, reports *summary.Service, r *repo.Repository, jobs Publisher, tg Transport) *Bot {
	return &Bot{
		scopes:  scopes,
		reports: reports,
		repo:    r,
		jobs:    jobs,
		tg:      tg,
		logger:  log.New(log.ComponentBot),
		now:     time.Now,
	}
}

// HandleEvent processes one inbound event end to end. Domain failures become
// user-visible replies; the returned error covers transport failures only.
func (b *Bot) HandleEvent(ctx context.Context, ev telegram.Event) error {
	if ev.Kind == telegram.EventCallback {
		// Every button press must be acknowledged or the client keeps
		// spinning, understood or not.
		if err := b.tg.AnswerCallback(ev.CallbackID); err != nil {
			b.logger.WarnContext(ctx, "callback ack failed",
				log.FieldUserID, ev.UserID, log.FieldError, err.Error())
		}
	}

	u, created, err := b.scopes.EnsureUser(ctx, ev.UserID)
	if err != nil {
		b.logger.ErrorContext(ctx, "ensure user failed",
			log.FieldUserID, ev.UserID, log.FieldError, err.Error())
		return b.tg.SendMessage(ev.ChatID, "Something went wrong. Please try again later.")
	}
	if created && u.Status == core.StatusPendingApproval {
		return b.tg.SendMessage(ev.ChatID,
			"Welcome! Your account (ID: `"+u.TelegramUserID+"`) is pending approval by the administrator. You'll be notified once approved.")
	}

	switch u.Status {
	case core.StatusBanned:
		return b.tg.SendMessage(ev.ChatID, "Your account access has been restricted by the administrator.")
	case core.StatusPendingApproval:
		return b.tg.SendMessage(ev.ChatID, "Your account is pending approval by the administrator. Please wait.")
	}

	if ev.Kind == telegram.EventImage {
		return b.enqueueImage(ctx, ev)
	}

	cmd, ok := Classify(ev)
	if !ok {
		return b.tg.SendKeyboard(ev.ChatID,
			"I didn't understand that. Send a receipt photo, or pick an option:",
			mainMenuKeyboard(b.scopes.IsAdmin(u.TelegramUserID)))
	}
	return b.dispatch(ctx, ev, u, cmd)
}

func (b *Bot) enqueueImage(ctx context.Context, ev telegram.Event) error {
	msg := queue.NewReceiptJobMessage(ev.UserID, ev.ChatID, ev.FileID, ev.MimeType)
	if err := b.jobs.PublishReceiptJob(ctx, msg); err != nil {
		b.logger.ErrorContext(ctx, "enqueue receipt job failed",
			log.FieldUserID, ev.UserID, log.FieldError, err.Error())
		return b.tg.SendMessage(ev.ChatID, "Sorry, I couldn't queue your receipt for processing. Please try again.")
	}
	b.logger.InfoContext(ctx, "receipt job enqueued",
		log.FieldUserID, ev.UserID, log.FieldJobID, msg.JobID)
	return b.tg.SendMessage(ev.ChatID, "Receipt received! Processing, this may take a moment...")
}

func (b *Bot) dispatch(ctx context.Context, ev telegram.Event, u core.User, cmd Command) error {
	chatID := ev.ChatID
	isAdmin := b.scopes.IsAdmin(u.TelegramUserID)

	switch action := cmd.Action; action {
	case "start", "menu", cbMainMenu:
		return b.tg.SendKeyboard(chatID, "What would you like to do?", mainMenuKeyboard(isAdmin))

	case cbSummaryMonth:
		return b.sendCurrentMonthReport(ctx, chatID, u, summary.ModeTotal)
	case cbSummaryCategory:
		return b.sendCurrentMonthReport(ctx, chatID, u, summary.ModeByCategory)
	case cbSummaryStore:
		return b.sendCurrentMonthReport(ctx, chatID, u, summary.ModeByStore)
	case cbSummaryAverage:
		return b.sendCurrentMonthReport(ctx, chatID, u, summary.ModeAverage)
	case cbSummaryRange:
		return b.tg.SendMessage(chatID, "To get a summary for a custom date range, type:\n`/daterange YYYY-MM-DD YYYY-MM-DD`")
	case "daterange":
		return b.handleDateRange(ctx, chatID, u, cmd.Args)

	case cbGroupMenu:
		return b.tg.SendKeyboard(chatID, "Group options:", groupMenuKeyboard(u.GroupID != "", isAdmin))
	case cbGroupInfo, "mygroup":
		return b.handleGroupInfo(ctx, chatID, u)
	case "creategroup", "create_group":
		return b.handleCreateGroup(ctx, chatID, u, cmd.Rest)
	case "joingroup", "join_group":
		return b.handleJoinGroup(ctx, chatID, u, cmd.Args)
	case cbGroupLeave, "leavegroup":
		return b.handleLeaveGroup(ctx, chatID, u)

	case cbListReceipts, "listreceipts":
		return b.handleListReceipts(ctx, chatID, u, false)
	case cbDeleteReceipts, "deletereceipts":
		return b.handleListReceipts(ctx, chatID, u, true)

	case "edit":
		return b.handleEdit(ctx, chatID, u, cmd.Rest)

	case cbAdminMenu, "listusers", "approveuser", "banuser", "setuserstatus",
		"admincreategroup", "addusertogroup", "removeuserfromgroup", "deletegroup",
		cbAdminListPending, cbAdminListApprove, cbAdminListAll,
		"admin_approve_prompt", "admin_ban_prompt", "admin_creategroup_prompt",
		"admin_addtogroup_prompt", "admin_removefromgroup_prompt", "admin_deletegroup_prompt":
		return b.dispatchAdmin(ctx, chatID, u, cmd)

	default:
		switch {
		case strings.HasPrefix(action, cbViewReceiptPrefix):
			return b.handleViewReceipt(ctx, chatID, strings.TrimPrefix(action, cbViewReceiptPrefix))
		case strings.HasPrefix(action, cbDelConfirmPrefix):
			return b.handleDeleteConfirm(ctx, chatID, strings.TrimPrefix(action, cbDelConfirmPrefix))
		case strings.HasPrefix(action, cbDelDoPrefix):
			return b.handleDeleteDo(ctx, chatID, u, strings.TrimPrefix(action, cbDelDoPrefix))
		case strings.HasPrefix(action, cbDelCancelPrefix):
			return b.tg.SendMessage(chatID, "Deletion cancelled.")
		}

		if ev.Kind == telegram.EventCallback {
			// Already acked above; an unknown payload gets no reply.
			b.logger.WarnContext(ctx, "unrecognized callback payload",
				log.FieldUserID, u.TelegramUserID, log.FieldAction, action)
			return nil
		}
		return b.tg.SendKeyboard(chatID,
			"Unknown command. Pick an option:", mainMenuKeyboard(isAdmin))
	}
}

// resolveScope resolves the user's scope and repairs a dangling group
// reference in place, falling back to the personal scope.
func (b *Bot) resolveScope(ctx context.Context, u core.User) (scope.Scope, error) {
	sc, err := b.scopes.Resolve(ctx, u)
	if errors.Is(err, core.ErrStaleGroupRef) {
		if cerr := b.scopes.ClearStaleGroup(ctx, u.TelegramUserID); cerr != nil {
			return scope.Scope{}, cerr
		}
		return scope.Personal(u.TelegramUserID), nil
	}
	return sc, err
}

func (b *Bot) sendCurrentMonthReport(ctx context.Context, chatID int64, u core.User, mode summary.Mode) error {
	start, end, _ := core.CurrentMonthWindow(b.now())
	return b.sendReport(ctx, chatID, u, mode, start, end)
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, u core.User, mode summary.Mode, start, end string) error {
	sc, err := b.resolveScope(ctx, u)
	if err != nil {
		return b.replyError(ctx, chatID, "resolve scope", err)
	}
	report, err := b.reports.Aggregate(ctx, sc, mode, start, end)
	if err != nil {
		return b.replyError(ctx, chatID, "aggregate", err)
	}
	return b.tg.SendMessage(chatID, reportText(report, contextLabel(sc)))
}

func (b *Bot) handleDateRange(ctx context.Context, chatID int64, u core.User, args []string) error {
	if len(args) != 2 {
		return b.tg.SendMessage(chatID, "Usage: /daterange YYYY-MM-DD YYYY-MM-DD")
	}
	for _, d := range args {
		if _, err := core.ParseDate(d); err != nil {
			return b.tg.SendMessage(chatID, "Error: Invalid date format. Please use YYYY-MM-DD for both start and end dates.")
		}
	}
	return b.sendReport(ctx, chatID, u, summary.ModeTotal, args[0], args[1])
}

// replyError logs the failure and sends a generic reply; internals never leak
// to the chat.
func (b *Bot) replyError(ctx context.Context, chatID int64, op string, err error) error {
	b.logger.ErrorContext(ctx, "handler failed",
		log.FieldAction, op, log.FieldChatID, chatID, log.FieldError, err.Error())
	return b.tg.SendMessage(chatID, "Something went wrong. Please try again later.")
}
