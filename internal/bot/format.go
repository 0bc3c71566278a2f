package bot

import (
	"fmt"
	"strings"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/summary"
)

const separator = "------------------------------------\n"

// contextLabel renders a scope the way replies embed it mid-sentence:
// "Total spent for group 'Family' ..." vs "Total spent (personal) ...".
func contextLabel(sc scope.Scope) string {
	if sc.IsGroup() {
		return fmt.Sprintf("for group '%s'", sc.Label)
	}
	return scope.PersonalLabel
}

func reportText(r summary.Report, label string) string {
	if r.Count == 0 {
		rangeMsg := "for the period"
		if r.Start != "" && r.End != "" {
			rangeMsg = fmt.Sprintf("between %s and %s", r.Start, r.End)
		}
		return fmt.Sprintf("No receipts found %s %s.", label, rangeMsg)
	}

	total := r.Total.Format()
	switch r.Mode {
	case summary.ModeByCategory:
		var b strings.Builder
		fmt.Fprintf(&b, "Spending by category %s (Total: %s %s):\n", label, total, r.Currency)
		if len(r.Lines) == 0 {
			b.WriteString("No categorized items found.")
		}
		for _, line := range r.Lines {
			fmt.Fprintf(&b, "- %s: %s\n", line.Key, line.Amount.Format())
		}
		return b.String()
	case summary.ModeByStore:
		var b strings.Builder
		fmt.Fprintf(&b, "Spending by store %s (Total: %s %s):\n", label, total, r.Currency)
		if len(r.Lines) == 0 {
			b.WriteString("No store data found.")
		}
		for _, line := range r.Lines {
			fmt.Fprintf(&b, "- %s: %s\n", line.Key, line.Amount.Format())
		}
		return b.String()
	case summary.ModeAverage:
		return fmt.Sprintf("Average receipt value %s (%d receipts): %s %s",
			label, r.Count, r.Average.Format(), r.Currency)
	default:
		return fmt.Sprintf("Total spent %s (%d receipts): %s %s",
			label, r.Count, total, r.Currency)
	}
}

// receiptButtonLabel fits one receipt on an inline button. Telegram caps
// button text, so long store names are cut.
func receiptButtonLabel(r core.Receipt) string {
	date := r.Date
	if date == "" {
		date = "N/A"
	}
	store := r.StoreName
	if store == "" {
		store = summary.UnknownStore
	}
	if len(store) > 20 {
		store = store[:20]
	}
	label := fmt.Sprintf("%s | %s | %s %s", date, store, core.FormatOpt(r.Total), r.CurrencyCode)
	if len(label) > 60 {
		label = label[:57] + "..."
	}
	return label
}

// ProcessedReceiptText is the confirmation sent once an uploaded image has
// been extracted and stored. The worker binary sends it, so it is exported.
func ProcessedReceiptText(r core.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 **Receipt Processed** (Ref: `%s`)\n", r.ID)
	b.WriteString(separator)
	fmt.Fprintf(&b, "Store: %s\n", orNA(r.StoreName))
	fmt.Fprintf(&b, "Date: %s\n", orNA(r.Date))
	fmt.Fprintf(&b, "Total: %s %s\n", core.FormatOpt(r.Total), r.CurrencyCode)
	b.WriteString(separator)
	writeItems(&b, r.Items, r.CurrencyCode)
	b.WriteString(separator)
	b.WriteString(editInstructions(r.ID))
	return b.String()
}

func receiptDetailText(r core.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 **Receipt Details** (Ref: `%s`)\n", r.ID)
	b.WriteString(separator)
	fmt.Fprintf(&b, "Store: %s\n", orNA(r.StoreName))
	fmt.Fprintf(&b, "Date: %s\n", orNA(r.Date))
	fmt.Fprintf(&b, "Total: %s %s\n", core.FormatOpt(r.Total), r.CurrencyCode)
	fmt.Fprintf(&b, "Uploaded By: `%s`\n", r.OwnerUserID)
	if r.GroupID != "" {
		fmt.Fprintf(&b, "Group ID: `%s`\n", r.GroupID)
	}
	if r.VerifiedByUser {
		b.WriteString("Verified: Yes")
	} else {
		b.WriteString("Verified: No")
	}
	if r.EditedBy != "" {
		fmt.Fprintf(&b, " (Edited by: `%s`)", r.EditedBy)
	}
	b.WriteString("\n")
	b.WriteString(separator)
	writeItems(&b, r.Items, r.CurrencyCode)
	b.WriteString(separator)
	b.WriteString(editInstructions(r.ID))
	return b.String()
}

func writeItems(b *strings.Builder, items []core.LineItem, currency string) {
	b.WriteString("**Items:**\n")
	if len(items) == 0 {
		b.WriteString("- No items found.\n")
		return
	}
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = core.CategoryOther
		}
		unit := it.Unit
		if unit == "" {
			unit = core.DefaultUnit
		}
		fmt.Fprintf(b, "- %s (%s)\n  Qty: %g %s | Price: %s %s\n",
			it.Name, cat, it.Quantity, unit, core.FormatOpt(it.Price), currency)
		if it.PricePerUnit != nil {
			fmt.Fprintf(b, "  (PPU: %s %s/%s)\n", it.PricePerUnit.Format(), currency, unit)
		}
		b.WriteString("\n")
	}
}

// editInstructions shows the edit-block format with the receipt's own ref
// filled in, ready to copy.
func editInstructions(receiptID string) string {
	return fmt.Sprintf("To correct any details, send /edit followed by:\n"+
		"```\nRef: %s\nStore: <store name>\nDate: YYYY-MM-DD\nTotal: <amount>\n"+
		"<item name>; <price>; <category>; <quantity>; <unit>\n```\n"+
		"Headers and items you leave out keep their current values.", receiptID)
}

func groupInfoText(g core.Group, viewerID string) string {
	var b strings.Builder
	name := g.Name
	if name == "" {
		name = scope.UnnamedGroupLabel
	}
	fmt.Fprintf(&b, "Group: '%s' (ID: `%s`)\n", name, g.ID)
	fmt.Fprintf(&b, "Owner ID: `%s`%s\n", g.OwnerID, youSuffix(g.OwnerID == viewerID))
	fmt.Fprintf(&b, "Members (%d):\n", len(g.MemberUserIDs))
	for _, id := range g.MemberUserIDs {
		fmt.Fprintf(&b, "  - `%s`%s\n", id, youSuffix(id == viewerID))
	}
	return b.String()
}

func userListText(users []core.User, filterLabel string) string {
	if len(users) == 0 {
		return fmt.Sprintf("No users found with status '%s'.", filterLabel)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Users (Status: %s):\n", filterLabel)
	for _, u := range users {
		group := "None"
		if u.GroupID != "" {
			group = u.GroupID
		}
		fmt.Fprintf(&b, "- ID: `%s` (Status: %s, Group: `%s`)\n",
			u.TelegramUserID, u.Status, group)
	}
	return b.String()
}

func youSuffix(isYou bool) string {
	if isYou {
		return " (You)"
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
