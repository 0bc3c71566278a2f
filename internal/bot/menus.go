package bot

import (
	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

// Callback payloads for menu buttons. These are persisted inside messages
// already sent to users, so renaming one orphans old buttons.
const (
	cbMainMenu         = "main_menu"
	cbSummaryMonth     = "summary_current_month"
	cbSummaryRange     = "summary_date_range_prompt"
	cbSummaryCategory  = "summary_category_current_month"
	cbSummaryStore     = "summary_store_current_month"
	cbSummaryAverage   = "summary_avg_receipt_current_month"
	cbGroupMenu        = "group_menu_user"
	cbGroupInfo        = "mygroup_info_action"
	cbGroupLeave       = "leavegroup_action_user"
	cbListReceipts     = "list_receipts_action"
	cbDeleteReceipts   = "delete_receipts_action"
	cbAdminMenu        = "admin_menu"
	cbAdminListPending = "admin_list_pending"
	cbAdminListApprove = "admin_list_approved"
	cbAdminListAll     = "admin_list_all"

	cbViewReceiptPrefix = "view_receipt_"
	cbDelConfirmPrefix  = "del_confirm_req_"
	cbDelDoPrefix       = "del_do_"
	cbDelCancelPrefix   = "del_cancel_"
)

func mainMenuKeyboard(isAdmin bool) telegram.Keyboard {
	kb := telegram.Keyboard{
		{{Text: "📊 Current Month Summary", Data: cbSummaryMonth}},
		{{Text: "📅 Custom Date Range Sum", Data: cbSummaryRange}},
		{{Text: "🏷️ Categories (This Month)", Data: cbSummaryCategory}},
		{{Text: "🏪 Stores (This Month)", Data: cbSummaryStore}},
		{{Text: "🧾 Avg. Receipt (This Month)", Data: cbSummaryAverage}},
		{{Text: "👥 Group Options", Data: cbGroupMenu}},
		{{Text: "📄 List Recent Receipts", Data: cbListReceipts}},
		{{Text: "🗑️ Delete Recent Receipt", Data: cbDeleteReceipts}},
	}
	if isAdmin {
		admin := telegram.Keyboard{{{Text: "👑 Admin Panel", Data: cbAdminMenu}}}
		kb = append(admin, kb...)
	}
	return kb
}

// groupMenuKeyboard shows the leave button only to non-admin group members;
// the admin manages groups through admin commands instead.
func groupMenuKeyboard(inGroup, isAdmin bool) telegram.Keyboard {
	kb := telegram.Keyboard{
		{{Text: "ℹ️ My Group Info", Data: cbGroupInfo}},
	}
	if inGroup && !isAdmin {
		kb = append(kb, []telegram.Button{{Text: "🚪 Leave Current Group", Data: cbGroupLeave}})
	}
	kb = append(kb, []telegram.Button{{Text: "⬅️ Back to Main Menu", Data: cbMainMenu}})
	return kb
}

func adminMenuKeyboard() telegram.Keyboard {
	return telegram.Keyboard{
		{{Text: "List Pending Users", Data: cbAdminListPending}},
		{{Text: "List Approved Users", Data: cbAdminListApprove}},
		{{Text: "List All Users", Data: cbAdminListAll}},
		{{Text: "Approve User (Type: /approveuser <ID>)", Data: "admin_approve_prompt"}},
		{{Text: "Ban User (Type: /banuser <ID>)", Data: "admin_ban_prompt"}},
		{{Text: "Create Group (Type: /admincreategroup <Name>)", Data: "admin_creategroup_prompt"}},
		{{Text: "Add to Group (Type: /addusertogroup <User_ID> <Group_ID>)", Data: "admin_addtogroup_prompt"}},
		{{Text: "Remove from Group (Type: /removeuserfromgroup <User_ID>)", Data: "admin_removefromgroup_prompt"}},
		{{Text: "Delete Group (Type: /deletegroup <Group_ID>)", Data: "admin_deletegroup_prompt"}},
		{{Text: "⬅️ Back to Main Menu", Data: cbMainMenu}},
	}
}

func deleteConfirmKeyboard(receiptID string) telegram.Keyboard {
	return telegram.Keyboard{{
		{Text: "✅ Yes, Delete", Data: cbDelDoPrefix + receiptID},
		{Text: "❌ Cancel", Data: cbDelCancelPrefix + receiptID},
	}}
}
