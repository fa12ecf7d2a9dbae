package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// Packages reported to the remote log collector.
const (
	logPackageService    = "service"
	logPackageRepository = "repository"
)

type recordStore interface {
	LoadAll(ctx context.Context) []entity.URLRecord
	Update(ctx context.Context, fn func(records []entity.URLRecord) ([]entity.URLRecord, error)) error
}

type logSink interface {
	Log(level, pkg, message string)
}

type locator interface {
	Locate(ctx context.Context) string
}

type recorder interface {
	URLsShortened(n int)
	BatchRejected()
	Redirected(result string)
}

// Redirect results reported to the recorder.
const (
	RedirectFound    = "found"
	RedirectNotFound = "not_found"
	RedirectExpired  = "expired"
)

// StaticLocator reports the same location for every visitor.
type StaticLocator string

func (l StaticLocator) Locate(context.Context) string {
	return string(l)
}

type nopSink struct{}

func (nopSink) Log(string, string, string) {}

type nopRecorder struct{}

func (nopRecorder) URLsShortened(int) {}
func (nopRecorder) BatchRejected() {}
func (nopRecorder) Redirected(string) {}

type Option func(*URLUseCase)

func WithLogSink(sink logSink) Option {
	return func(uc *URLUseCase) {
		uc.sink = sink
	}
}

func WithLocator(l locator) Option {
	return func(uc *URLUseCase) {
		uc.locator = l
	}
}

func WithRecorder(r recorder) Option {
	return func(uc *URLUseCase) {
		uc.recorder = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithBlockExpired turns expiry into an access gate: expired records stop
// redirecting and no click is recorded for them.
func WithBlockExpired(block bool) Option {
	return func(uc *URLUseCase) {
		uc.blockExpired = block
	}
}

// WithDefaultSource sets the click source recorded when the caller has none.
func WithDefaultSource(source string) Option {
	return func(uc *URLUseCase) {
		if source != "" {
			uc.defaultSource = source
		}
	}
}

// URLUseCase runs the shortening, redirect and statistics flows against a record store.
type URLUseCase struct {
	store         recordStore
	shortener     *Shortener
	sink          logSink
	locator       locator
	recorder      recorder
	logger        *slog.Logger
	now           func() time.Time
	blockExpired  bool
	defaultSource string
}

func NewURLUseCase(store recordStore, shortener *Shortener, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		store:         store,
		shortener:     shortener,
		sink:          nopSink{},
		locator:       StaticLocator(entity.UnknownLocation),
		recorder:      nopRecorder{},
		logger:        slog.Default(),
		now:           time.Now,
		defaultSource: entity.DefaultClickSource,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) clock() time.Time {
	return uc.now().UTC().Truncate(time.Millisecond)
}

// Shorten submits the batch against the stored records and persists the
// result. It returns only the records created by this batch.
func (uc *URLUseCase) Shorten(ctx context.Context, requests []entity.ShortenRequest) ([]entity.URLRecord, error) {
	const op = "usecase.URLUseCase.Shorten"

	var created []entity.URLRecord

	err := uc.store.Update(ctx, func(existing []entity.URLRecord) ([]entity.URLRecord, error) {
		next, err := uc.shortener.Submit(requests, existing, uc.clock())
		if err != nil {
			return nil, err
		}

		created = entity.CloneRecords(next[len(existing):])
		return next, nil
	})
	if err != nil {
		var verrs entity.ValidationErrors
		if errors.As(err, &verrs) {
			uc.recorder.BatchRejected()
			uc.sink.Log("error", logPackageService, fmt.Sprintf("Form validation failed: %s", verrs.Error()))
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if errors.Is(err, entity.ErrEmptyBatch) || errors.Is(err, entity.ErrBatchTooLarge) {
			uc.recorder.BatchRejected()
			uc.sink.Log("warn", logPackageService, err.Error())
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		uc.sink.Log("error", logPackageRepository, fmt.Sprintf("Failed to store shortened URLs: %v", err))
		return nil, fmt.Errorf("%s: failed to shorten urls: %w", op, err)
	}

	uc.recorder.URLsShortened(len(created))
	uc.sink.Log("info", logPackageService, fmt.Sprintf("%d URL(s) shortened successfully", len(created)))

	return created, nil
}

// Redirect records a click on the record with shortCode and returns its
// destination. A failure to persist the click is logged and does not prevent
// the redirect. A failure to read the records is returned.
func (uc *URLUseCase) Redirect(ctx context.Context, shortCode, source string) (string, error) {
	const op = "usecase.URLUseCase.Redirect"

	if source == "" {
		source = uc.defaultSource
	}

	var destination string

	err := uc.store.Update(ctx, func(records []entity.URLRecord) ([]entity.URLRecord, error) {
		now := uc.clock()
		click := entity.ClickEvent{
			Timestamp: now,
			Source:    source,
			Location:  uc.locator.Locate(ctx),
		}

		switch o := Resolve(records, shortCode, click).(type) {
		case Found:
			if uc.blockExpired && entity.IsExpired(records[o.Index], now) {
				return nil, entity.ErrURLExpired
			}

			destination = o.Destination
			return o.Records, nil
		default:
			return nil, entity.ErrURLNotFound
		}
	})

	switch {
	case errors.Is(err, entity.ErrURLNotFound):
		uc.recorder.Redirected(RedirectNotFound)
		uc.sink.Log("warn", logPackageService, fmt.Sprintf("Short URL /%s not found", shortCode))
		return "", fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, entity.ErrURLExpired):
		uc.recorder.Redirected(RedirectExpired)
		uc.sink.Log("warn", logPackageService, fmt.Sprintf("Short URL /%s has expired", shortCode))
		return "", fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, entity.ErrSlotUnavailable):
		uc.sink.Log("error", logPackageRepository, fmt.Sprintf("Failed to read records for /%s: %v", shortCode, err))
		return "", fmt.Errorf("%s: %w", op, err)
	case err != nil:
		uc.logger.Warn("failed to persist click, redirecting anyway",
			slog.Group(op, slog.String("short_code", shortCode), slog.Any("err", err)))
		uc.sink.Log("error", logPackageRepository, fmt.Sprintf("Failed to store click for /%s: %v", shortCode, err))
	}

	uc.recorder.Redirected(RedirectFound)
	uc.sink.Log("info", logPackageService, fmt.Sprintf("Redirecting from /%s to %s", shortCode, destination))

	return destination, nil
}

// ListStats returns every record in insertion order with its current status.
func (uc *URLUseCase) ListStats(ctx context.Context) []entity.Report {
	records := uc.store.LoadAll(ctx)
	now := uc.clock()

	reports := make([]entity.Report, len(records))
	for i, r := range records {
		reports[i] = entity.NewReport(r, now)
	}

	return reports
}

// GetStats returns the first record with shortCode and its current status.
func (uc *URLUseCase) GetStats(ctx context.Context, shortCode string) (*entity.Report, error) {
	const op = "usecase.URLUseCase.GetStats"

	for _, r := range uc.store.LoadAll(ctx) {
		if r.ShortCode == shortCode {
			report := entity.NewReport(r, uc.clock())
			return &report, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
}
