package usecase

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/shortcode"
)

const (
	defaultValidityMinutes = 30
	defaultMaxBatchSize    = 5
	maxGenerateRetries     = 5

	// maxValidityMinutes is the longest validity a time.Duration can hold.
	maxValidityMinutes = math.MaxInt64 / int64(time.Minute)
)

// ErrMaxRetriesExceeded is returned when no unused short code could be generated.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

type codeGenerator interface {
	Generate() (string, error)
}

// IsAbsoluteURL reports whether raw parses as a URL with both a scheme and a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func newValidator() *validator.Validate {
	v := validator.New()

	if err := v.RegisterValidation("abs_url", func(fl validator.FieldLevel) bool {
		return IsAbsoluteURL(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return shortcode.ValidateFormat(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

type ShortenerOption func(*Shortener)

// WithDefaultValidity sets the validity used when a request carries none.
func WithDefaultValidity(minutes int) ShortenerOption {
	return func(s *Shortener) {
		if minutes > 0 {
			s.defaultValidity = minutes
		}
	}
}

func WithMaxBatchSize(n int) ShortenerOption {
	return func(s *Shortener) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithRejectBatchDuplicates makes a batch fail when two of its requests ask
// for the same preferred code. By default only pre-existing records are checked.
func WithRejectBatchDuplicates(reject bool) ShortenerOption {
	return func(s *Shortener) {
		s.rejectBatchDuplicates = reject
	}
}

// WithReservedCodes rejects preferred codes that collide with routes served
// next to the redirect.
func WithReservedCodes(codes ...string) ShortenerOption {
	return func(s *Shortener) {
		for _, c := range codes {
			s.reserved[c] = struct{}{}
		}
	}
}

// Shortener validates shortening batches and turns them into new records.
// It is pure apart from code generation: it never touches storage.
type Shortener struct {
	gen                   codeGenerator
	validate              *validator.Validate
	defaultValidity       int
	maxBatchSize          int
	rejectBatchDuplicates bool
	reserved              map[string]struct{}
}

func NewShortener(gen codeGenerator, opts ...ShortenerOption) *Shortener {
	s := &Shortener{
		gen:             gen,
		validate:        newValidator(),
		defaultValidity: defaultValidityMinutes,
		maxBatchSize:    defaultMaxBatchSize,
		reserved:        make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// held is a request that passed validation.
type held struct {
	longURL  string
	code     string
	validity time.Duration
}

// Submit validates every request of the batch against existing. When any
// request fails the whole batch is rejected with entity.ValidationErrors and
// nothing is created. Otherwise it returns existing followed by the new
// records in request order.
func (s *Shortener) Submit(requests []entity.ShortenRequest, existing []entity.URLRecord, now time.Time) ([]entity.URLRecord, error) {
	const op = "usecase.Shortener.Submit"

	if len(requests) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrEmptyBatch)
	}
	if len(requests) > s.maxBatchSize {
		return nil, fmt.Errorf("%s: %w: got %d, at most %d allowed",
			op, entity.ErrBatchTooLarge, len(requests), s.maxBatchSize)
	}

	taken := make(map[string]struct{}, len(existing)+len(requests))
	for _, r := range existing {
		taken[r.ShortCode] = struct{}{}
	}

	var errs entity.ValidationErrors
	accepted := make([]held, len(requests))
	requested := make(map[string]struct{}, len(requests))

	for i, req := range requests {
		h, verr := s.check(i, req, taken, requested)
		if verr != nil {
			errs = append(errs, *verr)
			continue
		}

		if h.code != "" {
			requested[h.code] = struct{}{}
		}
		accepted[i] = h
	}

	if len(errs) > 0 {
		return nil, errs
	}

	for code := range requested {
		taken[code] = struct{}{}
	}

	createdAt := now.UTC().Truncate(time.Millisecond)
	out := make([]entity.URLRecord, 0, len(existing)+len(requests))
	out = append(out, existing...)

	for _, h := range accepted {
		code := h.code
		if code == "" {
			generated, err := s.generate(taken)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			code = generated
			taken[code] = struct{}{}
		}

		out = append(out, entity.URLRecord{
			LongURL:   h.longURL,
			ShortCode: code,
			CreatedAt: createdAt,
			ExpiresAt: createdAt.Add(h.validity),
			Clicks:    0,
			ClickData: []entity.ClickEvent{},
		})
	}

	return out, nil
}

// check applies the per-request rules in order and stops at the first failure.
func (s *Shortener) check(i int, req entity.ShortenRequest, taken, requested map[string]struct{}) (held, *entity.ValidationError) {
	fail := func(field entity.Field, kind entity.Kind) (held, *entity.ValidationError) {
		return held{}, &entity.ValidationError{Index: i, Field: field, Kind: kind}
	}

	longURL := strings.TrimSpace(req.LongURL)
	if longURL == "" {
		return fail(entity.FieldLongURL, entity.KindRequiredMissing)
	}
	if err := s.validate.Var(longURL, "abs_url"); err != nil {
		return fail(entity.FieldLongURL, entity.KindInvalidURL)
	}

	minutes := s.defaultValidity
	if v := strings.TrimSpace(optional(req.ValidityMinutes)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || int64(n) > maxValidityMinutes {
			return fail(entity.FieldValidityMinutes, entity.KindInvalidValidity)
		}
		minutes = n
	}

	code := optional(req.PreferredCode)
	if code != "" {
		if err := s.validate.Var(code, "shortcode"); err != nil {
			return fail(entity.FieldPreferredCode, entity.KindInvalidShortCodeFormat)
		}
		if _, ok := taken[code]; ok {
			return fail(entity.FieldPreferredCode, entity.KindDuplicateShortCode)
		}
		if _, ok := s.reserved[code]; ok {
			return fail(entity.FieldPreferredCode, entity.KindDuplicateShortCode)
		}
		if _, ok := requested[code]; ok && s.rejectBatchDuplicates {
			return fail(entity.FieldPreferredCode, entity.KindDuplicateShortCode)
		}
	}

	return held{
		longURL:  longURL,
		code:     code,
		validity: time.Duration(minutes) * time.Minute,
	}, nil
}

func (s *Shortener) generate(taken map[string]struct{}) (string, error) {
	for i := 0; i < maxGenerateRetries; i++ {
		code, err := s.gen.Generate()
		if err != nil {
			return "", err
		}

		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}

	return "", ErrMaxRetriesExceeded
}

func optional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
