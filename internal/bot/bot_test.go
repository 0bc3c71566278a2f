package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/docstore/memory"
	"github.com/OgnevOA/spendy-pants/internal/queue"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/summary"
	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

const adminID = "99"

type sent struct {
	chatID   int64
	text     string
	keyboard telegram.Keyboard
}

type fakeTransport struct {
	sent []sent
	acks []string
}

func (f *fakeTransport) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeTransport) SendKeyboard(chatID int64, text string, kb telegram.Keyboard) error {
	f.sent = append(f.sent, sent{chatID: chatID, text: text, keyboard: kb})
	return nil
}

func (f *fakeTransport) AnswerCallback(callbackID string) error {
	f.acks = append(f.acks, callbackID)
	return nil
}

func (f *fakeTransport) last(t *testing.T) sent {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1]
}

type fakePublisher struct {
	jobs []*queue.ReceiptJobMessage
}

func (f *fakePublisher) PublishReceiptJob(_ context.Context, msg *queue.ReceiptJobMessage) error {
	f.jobs = append(f.jobs, msg)
	return nil
}

func newTestBot(t *testing.T) (*Bot, *fakeTransport, *fakePublisher, *repo.Repository) {
	t.Helper()
	r := repo.New(memory.New())
	tg := &fakeTransport{}
	pub := &fakePublisher{}
	b := New(scope.NewService(r, adminID), summary.NewService(r), r, pub, tg)
	b.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return b, tg, pub, r
}

func approveUser(t *testing.T, r *repo.Repository, userID string) {
	t.Helper()
	err := r.CreateUser(context.Background(), core.User{
		TelegramUserID: userID,
		Status:         core.StatusApproved,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func textEvent(userID string, chatID int64, text string) telegram.Event {
	return telegram.Event{Kind: telegram.EventText, UserID: userID, ChatID: chatID, Text: text}
}

func callbackEvent(userID string, chatID int64, data string) telegram.Event {
	return telegram.Event{Kind: telegram.EventCallback, UserID: userID, ChatID: chatID, CallbackID: "cb1", CallbackData: data}
}

func money(cents int64) *core.Money { return &core.Money{Cents: cents} }

func TestNewUserGetsPendingNotice(t *testing.T) {
	b, tg, _, _ := newTestBot(t)
	ctx := context.Background()

	if err := b.HandleEvent(ctx, textEvent("42", 42, "/menu")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "pending approval") {
		t.Errorf("first contact reply = %q, want pending notice", got)
	}

	// Repeat contact while still pending: notice again, no menu.
	if err := b.HandleEvent(ctx, textEvent("42", 42, "/menu")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	last := tg.last(t)
	if !strings.Contains(last.text, "pending approval") || last.keyboard != nil {
		t.Errorf("pending user got %+v, want plain pending notice", last)
	}
}

func TestBannedUserBlocked(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	err := r.CreateUser(ctx, core.User{TelegramUserID: "7", Status: core.StatusBanned})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := b.HandleEvent(ctx, textEvent("7", 7, "/menu")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "restricted") {
		t.Errorf("banned reply = %q", got)
	}
}

func TestAdminSelfApprovedAndSeesAdminRow(t *testing.T) {
	b, tg, _, _ := newTestBot(t)
	ctx := context.Background()

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/start")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	kb := tg.last(t).keyboard
	if kb == nil {
		t.Fatal("admin /start should render the main menu")
	}
	if kb[0][0].Data != cbAdminMenu {
		t.Errorf("first row = %+v, want admin panel on top", kb[0])
	}
}

func TestImageEventEnqueuesJob(t *testing.T) {
	b, tg, pub, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	ev := telegram.Event{Kind: telegram.EventImage, UserID: "42", ChatID: 42, FileID: "file-1", MimeType: "image/jpeg"}
	if err := b.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(pub.jobs) != 1 {
		t.Fatalf("published %d jobs, want 1", len(pub.jobs))
	}
	job := pub.jobs[0]
	if job.UserID != "42" || job.ChatID != 42 || job.FileID != "file-1" || job.MimeType != "image/jpeg" {
		t.Errorf("job = %+v", job)
	}
	if got := tg.last(t).text; !strings.Contains(got, "Processing") {
		t.Errorf("reply = %q, want processing notice", got)
	}
}

func TestUnrecognizedCallbackAckedSilently(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, "mystery_payload")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(tg.acks) != 1 {
		t.Fatalf("acks = %d, want 1", len(tg.acks))
	}
	if len(tg.sent) != 0 {
		t.Errorf("unexpected replies to unknown payload: %+v", tg.sent)
	}
}

func TestUnrecognizedTextGetsFallbackMenu(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	if err := b.HandleEvent(ctx, textEvent("42", 42, "what can you do")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	last := tg.last(t)
	if !strings.Contains(last.text, "didn't understand") || last.keyboard == nil {
		t.Errorf("fallback reply = %+v", last)
	}
}

func TestCurrentMonthSummary(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	seed := []core.Receipt{
		{OwnerUserID: "42", Date: "2024-03-01", Total: money(1000), CurrencyCode: "ILS", StoreName: "Shop A"},
		{OwnerUserID: "42", Date: "2024-03-15", Total: money(2549), CurrencyCode: "ILS", StoreName: "Shop B"},
		{OwnerUserID: "42", Date: "2024-02-29", Total: money(9999), CurrencyCode: "ILS", StoreName: "Old"},
	}
	for _, rec := range seed {
		if _, err := r.AddReceipt(ctx, rec); err != nil {
			t.Fatalf("seed receipt: %v", err)
		}
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbSummaryMonth)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	want := "Total spent (personal) (2 receipts): 35.49 ILS"
	if got := tg.last(t).text; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestDateRangeValidation(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	if err := b.HandleEvent(ctx, textEvent("42", 42, "/daterange 2024-01-01")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.HasPrefix(got, "Usage:") {
		t.Errorf("one arg reply = %q, want usage", got)
	}

	if err := b.HandleEvent(ctx, textEvent("42", 42, "/daterange 2024-13-01 2024-01-31")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "Invalid date format") {
		t.Errorf("bad date reply = %q", got)
	}

	if err := b.HandleEvent(ctx, textEvent("42", 42, "/daterange 2024-03-01 2024-03-31")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "No receipts found (personal) between 2024-03-01 and 2024-03-31") {
		t.Errorf("empty range reply = %q", got)
	}
}

func TestGroupCommandLifecycle(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")
	approveUser(t, r, "43")

	// Multi-word name comes through the raw remainder.
	if err := b.HandleEvent(ctx, textEvent("42", 42, "/creategroup My Family Group")); err != nil {
		t.Fatalf("create: %v", err)
	}
	reply := tg.last(t).text
	if !strings.Contains(reply, "Group 'My Family Group' created") {
		t.Fatalf("create reply = %q", reply)
	}
	u, err := r.GetUser(ctx, "42")
	if err != nil || u.GroupID == "" {
		t.Fatalf("creator not in group: %+v err=%v", u, err)
	}
	groupID := u.GroupID

	if err := b.HandleEvent(ctx, textEvent("43", 43, "/joingroup "+groupID)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "You have joined 'My Family Group'") {
		t.Errorf("join reply = %q", got)
	}

	// Summaries are now shared: a member sees group-tagged receipts.
	if _, err := r.AddReceipt(ctx, core.Receipt{
		OwnerUserID: "42", GroupID: groupID, Date: "2024-03-05",
		Total: money(500), CurrencyCode: "ILS",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := b.HandleEvent(ctx, callbackEvent("43", 43, cbSummaryMonth)); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "for group 'My Family Group' (1 receipts)") {
		t.Errorf("group summary = %q", got)
	}

	if err := b.HandleEvent(ctx, callbackEvent("43", 43, cbGroupLeave)); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "You have left 'My Family Group'") {
		t.Errorf("leave reply = %q", got)
	}
	u43, _ := r.GetUser(ctx, "43")
	if u43.GroupID != "" {
		t.Errorf("leaver still has group %q", u43.GroupID)
	}
	// The emptied-out group would still exist; 42 is still a member here.
	if _, err := r.GetGroup(ctx, groupID); err != nil {
		t.Errorf("group should survive a member leaving: %v", err)
	}
}

func TestStaleGroupReferenceRepairedOnSummary(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")
	if err := r.SetUserGroup(ctx, "42", "gone-group"); err != nil {
		t.Fatalf("set group: %v", err)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbSummaryMonth)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "(personal)") {
		t.Errorf("reply = %q, want personal fallback", got)
	}
	u, _ := r.GetUser(ctx, "42")
	if u.GroupID != "" {
		t.Errorf("dangling reference not cleared: %q", u.GroupID)
	}
}

func TestDeleteFlow(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")
	approveUser(t, r, "43")

	id, err := r.AddReceipt(ctx, core.Receipt{
		OwnerUserID: "42", Date: "2024-03-05", StoreName: "Shop",
		Total: money(1234), CurrencyCode: "ILS", UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbDeleteReceipts)); err != nil {
		t.Fatalf("list for delete: %v", err)
	}
	last := tg.last(t)
	if len(last.keyboard) != 1 || last.keyboard[0][0].Data != cbDelConfirmPrefix+id {
		t.Fatalf("delete list keyboard = %+v", last.keyboard)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbDelConfirmPrefix+id)); err != nil {
		t.Fatalf("confirm prompt: %v", err)
	}
	kb := tg.last(t).keyboard
	if len(kb) != 1 || kb[0][0].Data != cbDelDoPrefix+id || kb[0][1].Data != cbDelCancelPrefix+id {
		t.Fatalf("confirm keyboard = %+v", kb)
	}

	// Another non-admin user cannot delete, even from the same list.
	if err := b.HandleEvent(ctx, callbackEvent("43", 43, cbDelDoPrefix+id)); err != nil {
		t.Fatalf("unauthorized delete: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "not authorized to delete") {
		t.Errorf("unauthorized reply = %q", got)
	}
	if _, err := r.GetReceipt(ctx, id); err != nil {
		t.Fatalf("receipt should still exist: %v", err)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbDelCancelPrefix+id)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := tg.last(t).text; got != "Deletion cancelled." {
		t.Errorf("cancel reply = %q", got)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbDelDoPrefix+id)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "has been deleted") {
		t.Errorf("delete reply = %q", got)
	}
	if _, err := r.GetReceipt(ctx, id); err == nil {
		t.Error("receipt survived deletion")
	}
}

func TestViewReceiptDetail(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	id, err := r.AddReceipt(ctx, core.Receipt{
		OwnerUserID: "42", Date: "2024-03-05", StoreName: "Corner Shop",
		Total: money(1550), CurrencyCode: "ILS",
		Items: []core.LineItem{
			{Name: "Milk", Price: money(550), Category: "Dairy & Eggs", Quantity: 1, Unit: "unit"},
			{Name: "Bread", Price: money(1000), Category: "Bakery", Quantity: 2, Unit: "unit", PricePerUnit: money(500)},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbViewReceiptPrefix+id)); err != nil {
		t.Fatalf("view: %v", err)
	}
	got := tg.last(t).text
	for _, want := range []string{
		"Ref: `" + id + "`",
		"Store: Corner Shop",
		"Total: 15.50 ILS",
		"- Milk (Dairy & Eggs)",
		"Qty: 2 unit | Price: 10.00 ILS",
		"(PPU: 5.00 ILS/unit)",
		"Ref: " + id, // edit template carries the ref ready to copy
	} {
		if !strings.Contains(got, want) {
			t.Errorf("detail missing %q in:\n%s", want, got)
		}
	}

	if err := b.HandleEvent(ctx, callbackEvent("42", 42, cbViewReceiptPrefix+"nope")); err != nil {
		t.Fatalf("view missing: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "not found") {
		t.Errorf("missing receipt reply = %q", got)
	}
}

func TestEditCommand(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")
	approveUser(t, r, "55")

	id, err := r.AddReceipt(ctx, core.Receipt{
		OwnerUserID: "42", Date: "2024-03-05", StoreName: "Old Name",
		Total: money(1000), CurrencyCode: "ILS",
		Items: []core.LineItem{{Name: "Thing", Price: money(1000), Category: "Other", Quantity: 1, Unit: "unit"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	block := "/edit Ref: " + id + "\nStore: New Name\nTotal: 12.50\nApples; 12.50; Produce; 2; kg"
	if err := b.HandleEvent(ctx, textEvent("42", 42, block)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "updated successfully") {
		t.Fatalf("edit reply = %q", got)
	}

	got, err := r.GetReceipt(ctx, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.StoreName != "New Name" || got.Total == nil || got.Total.Cents != 1250 {
		t.Errorf("headers not applied: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Apples" || got.Items[0].Category != "Produce" {
		t.Errorf("items not replaced: %+v", got.Items)
	}
	if !got.VerifiedByUser || got.EditedBy != "42" {
		t.Errorf("edit provenance missing: verified=%v editedBy=%q", got.VerifiedByUser, got.EditedBy)
	}

	// A stranger (not uploader, not group member, not admin) is refused.
	stranger := "/edit Ref: " + id + "\nStore: Hijacked"
	if err := b.HandleEvent(ctx, textEvent("55", 55, stranger)); err != nil {
		t.Fatalf("stranger edit: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "not authorized to edit") {
		t.Errorf("stranger reply = %q", got)
	}

	// Parse failures report the offending line.
	bad := "/edit Ref: " + id + "\nStore: X\nNoSeparatorHere"
	if err := b.HandleEvent(ctx, textEvent("42", 42, bad)); err != nil {
		t.Fatalf("bad edit: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "line 3") {
		t.Errorf("parse error reply = %q", got)
	}
}

func TestAdminCommands(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	// Non-admin is refused before any routing.
	if err := b.HandleEvent(ctx, textEvent("42", 42, "/listusers")); err != nil {
		t.Fatalf("non-admin: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "restricted to the administrator") {
		t.Errorf("non-admin reply = %q", got)
	}

	// Pending user shows up in the admin's pending list.
	if err := r.CreateUser(ctx, core.User{TelegramUserID: "77", Status: core.StatusPendingApproval}); err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if err := b.HandleEvent(ctx, callbackEvent(adminID, 99, cbAdminListPending)); err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "`77`") || !strings.Contains(got, "pending_approval") {
		t.Errorf("pending list = %q", got)
	}

	// Approval flips status and notifies the user in their own chat.
	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/approveuser 77")); err != nil {
		t.Fatalf("approve: %v", err)
	}
	u, err := r.GetUser(ctx, "77")
	if err != nil || u.Status != core.StatusApproved {
		t.Fatalf("user after approve: %+v err=%v", u, err)
	}
	var notified, confirmed bool
	for _, m := range tg.sent {
		if m.chatID == 77 && strings.Contains(m.text, "approved") {
			notified = true
		}
		if m.chatID == 99 && strings.Contains(m.text, "status set to 'approved'") {
			confirmed = true
		}
	}
	if !notified || !confirmed {
		t.Errorf("approve messages: notified=%v confirmed=%v (%+v)", notified, confirmed, tg.sent)
	}

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/approveuser 12345")); err != nil {
		t.Fatalf("approve missing: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "not found") {
		t.Errorf("missing user reply = %q", got)
	}

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/setuserstatus 77 frozen")); err != nil {
		t.Fatalf("bad status: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "Invalid status") {
		t.Errorf("bad status reply = %q", got)
	}
}

func TestAdminGroupManagement(t *testing.T) {
	b, tg, _, r := newTestBot(t)
	ctx := context.Background()
	approveUser(t, r, "42")

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/admincreategroup Office Lunch")); err != nil {
		t.Fatalf("admin create: %v", err)
	}
	reply := tg.last(t).text
	if !strings.Contains(reply, "Group 'Office Lunch' created") {
		t.Fatalf("create reply = %q", reply)
	}
	// Admin creation does not move the admin into the group.
	adminUser, _ := r.GetUser(ctx, adminID)
	if adminUser.GroupID != "" {
		t.Errorf("admin should not join the group they provision, got %q", adminUser.GroupID)
	}

	start := strings.Index(reply, "`") + 1
	end := strings.Index(reply[start:], "`")
	groupID := reply[start : start+end]

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/addusertogroup 42 "+groupID)); err != nil {
		t.Fatalf("add to group: %v", err)
	}
	u, _ := r.GetUser(ctx, "42")
	if u.GroupID != groupID {
		t.Fatalf("user not moved into group: %+v", u)
	}

	if err := b.HandleEvent(ctx, textEvent(adminID, 99, "/deletegroup "+groupID)); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if got := tg.last(t).text; !strings.Contains(got, "have been deleted") {
		t.Errorf("delete reply = %q", got)
	}
	u, _ = r.GetUser(ctx, "42")
	if u.GroupID != "" {
		t.Errorf("member association not cleared: %q", u.GroupID)
	}
	if _, err := r.GetGroup(ctx, groupID); err == nil {
		t.Error("group document survived deletion")
	}
}
