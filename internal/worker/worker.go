// Package worker consumes receipt-image jobs: download the file, run vision
// extraction, file the receipt under the uploader's current scope, confirm in
// chat, and append the ledger export row.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/OgnevOA/spendy-pants/internal/bot"
	"github.com/OgnevOA/spendy-pants/internal/cache"
	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/export"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/queue"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/vision"
)

// Downloader fetches the raw bytes of an uploaded file.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Notifier sends the outcome back to the uploader's chat.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Extractor turns an image into a structured receipt.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (core.Receipt, error)
}

const (
	extractionCacheSize = 128
	extractionCacheTTL  = 15 * time.Minute
)

type Worker struct {
	scopes      *scope.Service
	repo        *repo.Repository
	vision      Extractor
	files       Downloader
	tg          Notifier
	exporter    export.ReceiptAppender // nil disables the ledger export
	extractions *cache.LRU[core.Receipt]
	logger      *log.Logger
	now         func() time.Time
}

func New(scopes *scope.Service, r *repo.Repository, ext Extractor, files Downloader, tg Notifier, exporter export.ReceiptAppender) *Worker {
	return &Worker{
		scopes:      scopes,
		repo:        r,
		vision:      ext,
		files:       files,
		tg:          tg,
		exporter:    exporter,
		extractions: cache.NewLRU[core.Receipt](extractionCacheSize, extractionCacheTTL),
		logger:      log.New(log.ComponentWorker),
		now:         time.Now,
	}
}

// HandleJob processes one queued receipt image. A non-nil return requeues the
// job, so only failures worth retrying (storage writes) propagate; everything
// the user can fix by re-sending the photo is acked after an error reply.
func (w *Worker) HandleJob(ctx context.Context, msg *queue.ReceiptJobMessage) error {
	logger := w.logger.With(log.FieldJobID, msg.JobID, log.FieldUserID, msg.UserID)
	start := w.now()

	u, _, err := w.scopes.EnsureUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	if u.Status != core.StatusApproved {
		// Approval was revoked between enqueue and processing.
		logger.WarnContext(ctx, "dropping job for non-approved user", "status", string(u.Status))
		return nil
	}

	// Delivery is at-least-once; a redelivered job reuses the memoized
	// extraction for its file id instead of calling the model again.
	receipt, cached := w.extractions.Get(msg.FileID)
	if !cached {
		data, err := w.files.DownloadFile(ctx, msg.FileID)
		if err != nil {
			logger.ErrorContext(ctx, "file download failed", log.FieldError, err.Error())
			w.reply(ctx, msg.ChatID, "Sorry, I couldn't download your image. Please try sending it again.")
			return nil
		}

		receipt, err = w.vision.Extract(ctx, data, msg.MimeType)
		if err != nil {
			logger.ErrorContext(ctx, "extraction failed", log.FieldError, err.Error())
			w.reply(ctx, msg.ChatID, extractionFailureText(err))
			return nil
		}
		w.extractions.Set(msg.FileID, receipt)
	}

	sc, err := w.resolveScope(ctx, u)
	if err != nil {
		return err
	}

	receipt.OwnerUserID = msg.UserID
	receipt.UploadedAt = w.now().UTC()
	if sc.IsGroup() {
		receipt.GroupID = sc.Key
	}

	id, err := w.repo.AddReceipt(ctx, receipt)
	if err != nil {
		logger.ErrorContext(ctx, "store receipt failed", log.FieldError, err.Error())
		return err
	}
	receipt.ID = id
	logger.InfoContext(ctx, "receipt stored",
		log.FieldReceiptID, id, log.FieldScope, string(sc.Kind),
		log.FieldDuration, time.Since(start).Milliseconds())

	// The receipt is already stored; a failed confirmation must not requeue
	// the job or the user ends up with duplicates.
	w.reply(ctx, msg.ChatID, bot.ProcessedReceiptText(receipt))

	w.export(ctx, receipt, sc)
	return nil
}

func (w *Worker) resolveScope(ctx context.Context, u core.User) (scope.Scope, error) {
	sc, err := w.scopes.Resolve(ctx, u)
	if errors.Is(err, core.ErrStaleGroupRef) {
		if cerr := w.scopes.ClearStaleGroup(ctx, u.TelegramUserID); cerr != nil {
			return scope.Scope{}, cerr
		}
		return scope.Personal(u.TelegramUserID), nil
	}
	return sc, err
}

// export appends the ledger row, best effort. The receipt is already stored
// and confirmed; an export failure is logged and never fails the job.
func (w *Worker) export(ctx context.Context, receipt core.Receipt, sc scope.Scope) {
	if w.exporter == nil {
		return
	}
	rowRef, err := w.exporter.Append(ctx, receipt, sc.Label)
	if err != nil {
		w.logger.ErrorContext(ctx, "ledger export failed",
			log.FieldReceiptID, receipt.ID, log.FieldError, err.Error())
		return
	}
	w.logger.DebugContext(ctx, "ledger row appended",
		log.FieldReceiptID, receipt.ID, "row", rowRef)
}

func (w *Worker) reply(ctx context.Context, chatID int64, text string) {
	if err := w.tg.SendMessage(chatID, text); err != nil {
		w.logger.ErrorContext(ctx, "reply failed",
			log.FieldChatID, chatID, log.FieldError, err.Error())
	}
}

func extractionFailureText(err error) string {
	var xerr *vision.ExtractError
	if errors.As(err, &xerr) {
		switch xerr.Kind {
		case vision.KindNetwork:
			return "The receipt reader is temporarily unreachable. Please try again in a few minutes."
		case vision.KindBadJSON:
			return "I couldn't read structured data from this receipt. Please try a clearer, well-lit photo."
		}
	}
	return "I couldn't process this image as a receipt. Please try a clearer photo."
}
