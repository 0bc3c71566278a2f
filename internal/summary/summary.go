// Package summary aggregates stored receipts into spending reports for a
// resolved scope.
package summary

import (
	"context"
	"sort"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
)

type Mode string

const (
	ModeTotal      Mode = "total"
	ModeByCategory Mode = "by_category"
	ModeByStore    Mode = "by_store"
	ModeAverage    Mode = "avg_receipt"
)

// UnknownStore labels receipts whose store name came back empty.
const UnknownStore = "Unknown Store"

// Line is one row of a breakdown report, already in display order.
type Line struct {
	Key    string
	Amount core.Money
}

// Report is the result of one aggregation. Currency is the code of the first
// receipt seen in the window; mixed-currency sets are summed as if uniform.
type Report struct {
	Mode       Mode
	ScopeLabel string
	Start, End string
	Currency   string
	Count      int
	Total      core.Money
	Average    core.Money
	Lines      []Line
}

type Service struct {
	repo   *repo.Repository
	logger *log.Logger
}

func NewService(r *repo.Repository) *Service {
	return &Service{repo: r, logger: log.New(log.ComponentSummary)}
}

// Aggregate builds a report over the scope's receipts in the inclusive date
// window. A window with no receipts yields Count == 0 and an empty report,
// not an error.
func (s *Service) Aggregate(ctx context.Context, sc scope.Scope, mode Mode, start, end string) (Report, error) {
	receipts, err := s.fetch(ctx, sc, start, end)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Mode:       mode,
		ScopeLabel: sc.Label,
		Start:      start,
		End:        end,
		Count:      len(receipts),
	}
	for _, rec := range receipts {
		if r.Currency == "" && rec.CurrencyCode != "" {
			r.Currency = rec.CurrencyCode
		}
		r.Total = core.Add(&r.Total, rec.Total)
	}

	switch mode {
	case ModeByCategory:
		r.Lines = breakdown(receipts, func(rec core.Receipt, add func(string, *core.Money)) {
			for _, it := range rec.Items {
				add(it.Category, it.Price)
			}
		})
	case ModeByStore:
		r.Lines = breakdown(receipts, func(rec core.Receipt, add func(string, *core.Money)) {
			name := rec.StoreName
			if name == "" {
				name = UnknownStore
			}
			add(name, rec.Total)
		})
	case ModeAverage:
		if r.Count > 0 {
			r.Average = r.Total.DivRound(int64(r.Count))
		}
	}

	s.logger.DebugContext(ctx, "aggregated receipts",
		log.FieldScope, string(sc.Kind), "mode", string(mode),
		"count", r.Count, "start", start, "end", end)
	return r, nil
}

// Recent returns the scope's receipts newest-first, at most limit of them.
// The receipt date orders the list; upload time breaks ties, so an edited
// receipt moves to where its corrected date puts it.
func (s *Service) Recent(ctx context.Context, sc scope.Scope, limit int) ([]core.Receipt, error) {
	receipts, err := s.fetch(ctx, sc, "", "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		if receipts[i].Date != receipts[j].Date {
			return receipts[i].Date > receipts[j].Date
		}
		return receipts[i].UploadedAt.After(receipts[j].UploadedAt)
	})
	if limit > 0 && len(receipts) > limit {
		receipts = receipts[:limit]
	}
	return receipts, nil
}

func (s *Service) fetch(ctx context.Context, sc scope.Scope, start, end string) ([]core.Receipt, error) {
	if sc.IsGroup() {
		return s.repo.ReceiptsByGroup(ctx, sc.Key, start, end)
	}
	return s.repo.ReceiptsByOwner(ctx, sc.Key, start, end)
}

// breakdown groups amounts by key and orders lines by amount descending.
// Equal amounts keep the order keys were first encountered in.
func breakdown(receipts []core.Receipt, visit func(core.Receipt, func(string, *core.Money))) []Line {
	totals := make(map[string]*core.Money)
	var order []string
	add := func(key string, amount *core.Money) {
		if key == "" {
			key = core.CategoryOther
		}
		if _, ok := totals[key]; !ok {
			totals[key] = &core.Money{}
			order = append(order, key)
		}
		sum := core.Add(totals[key], amount)
		totals[key] = &sum
	}
	for _, rec := range receipts {
		visit(rec, add)
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		lines = append(lines, Line{Key: key, Amount: *totals[key]})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Amount.Cents > lines[j].Amount.Cents
	})
	return lines
}
