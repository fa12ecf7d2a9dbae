package usecase

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/shortcode"
)

type seqGenerator struct {
	codes []string
	calls int
	err   error
}

func (g *seqGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}

	code := g.codes[g.calls%len(g.codes)]
	g.calls++
	return code, nil
}

func ptr(s string) *string {
	return &s
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 123_456_789, time.UTC)

func existingRecord(code string) entity.URLRecord {
	createdAt := testNow.Add(-time.Hour).Truncate(time.Millisecond)

	return entity.URLRecord{
		LongURL:   "https://example.com/" + code,
		ShortCode: code,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(30 * time.Minute),
		ClickData: []entity.ClickEvent{},
	}
}

func TestShortener_Submit(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}})

		records, err := s.Submit([]entity.ShortenRequest{{LongURL: "  https://example.com/a  "}}, nil, testNow)

		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "https://example.com/a", r.LongURL)
		assert.Equal(t, "gen001", r.ShortCode)
		assert.Equal(t, testNow.Truncate(time.Millisecond), r.CreatedAt)
		assert.Equal(t, 30*time.Minute, r.ExpiresAt.Sub(r.CreatedAt))
		assert.Zero(t, r.Clicks)
		assert.NotNil(t, r.ClickData)
		assert.Empty(t, r.ClickData)
	})

	t.Run("explicit validity and preferred code", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"unused"}}
		s := NewShortener(gen)

		records, err := s.Submit([]entity.ShortenRequest{{
			LongURL:         "https://example.com/b",
			ValidityMinutes: ptr("1"),
			PreferredCode:   ptr("my-code_1"),
		}}, nil, testNow)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "my-code_1", records[0].ShortCode)
		assert.Equal(t, time.Minute, records[0].ExpiresAt.Sub(records[0].CreatedAt))
		assert.Zero(t, gen.calls)
	})

	t.Run("existing records are kept first", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001", "gen002"}})
		existing := []entity.URLRecord{existingRecord("abcd")}

		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com/1"},
			{LongURL: "https://example.com/2"},
		}, existing, testNow)

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, existing[0], records[0])
		assert.Equal(t, "https://example.com/1", records[1].LongURL)
		assert.Equal(t, "https://example.com/2", records[2].LongURL)
		assert.Equal(t, records[1].CreatedAt, records[2].CreatedAt)
	})

	t.Run("whitespace validity uses the default", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}}, WithDefaultValidity(45))

		records, err := s.Submit([]entity.ShortenRequest{{
			LongURL:         "https://example.com",
			ValidityMinutes: ptr("   "),
		}}, nil, testNow)

		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, records[0].ExpiresAt.Sub(records[0].CreatedAt))
	})

	t.Run("longest validity still expires after creation", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}})

		records, err := s.Submit([]entity.ShortenRequest{{
			LongURL:         "https://example.com",
			ValidityMinutes: ptr(strconv.FormatInt(maxValidityMinutes, 10)),
		}}, nil, testNow)

		require.NoError(t, err)
		assert.True(t, records[0].ExpiresAt.After(records[0].CreatedAt))
	})

	t.Run("empty batch", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}})

		records, err := s.Submit(nil, nil, testNow)

		assert.ErrorIs(t, err, entity.ErrEmptyBatch)
		assert.Nil(t, records)
	})

	t.Run("batch too large", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}}, WithMaxBatchSize(2))
		reqs := make([]entity.ShortenRequest, 3)

		records, err := s.Submit(reqs, nil, testNow)

		assert.ErrorIs(t, err, entity.ErrBatchTooLarge)
		assert.Nil(t, records)
	})

	t.Run("generator error", func(t *testing.T) {
		s := NewShortener(&seqGenerator{err: errors.New("entropy exhausted")})

		records, err := s.Submit([]entity.ShortenRequest{{LongURL: "https://example.com"}}, nil, testNow)

		assert.Error(t, err)
		assert.Nil(t, records)
	})

	t.Run("generated code collides with existing", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"abcd", "abcd", "fresh1"}}
		s := NewShortener(gen)

		records, err := s.Submit([]entity.ShortenRequest{{LongURL: "https://example.com"}},
			[]entity.URLRecord{existingRecord("abcd")}, testNow)

		require.NoError(t, err)
		assert.Equal(t, "fresh1", records[1].ShortCode)
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("generated code avoids codes requested in the batch", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"want", "gen002"}}
		s := NewShortener(gen)

		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com/1"},
			{LongURL: "https://example.com/2", PreferredCode: ptr("want")},
		}, nil, testNow)

		require.NoError(t, err)
		assert.Equal(t, "gen002", records[0].ShortCode)
		assert.Equal(t, "want", records[1].ShortCode)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"abcd"}}
		s := NewShortener(gen)

		records, err := s.Submit([]entity.ShortenRequest{{LongURL: "https://example.com"}},
			[]entity.URLRecord{existingRecord("abcd")}, testNow)

		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.Nil(t, records)
		assert.Equal(t, maxGenerateRetries, gen.calls)
	})

	t.Run("real generator", func(t *testing.T) {
		s := NewShortener(shortcode.NewGenerator(shortcode.DefaultLength))

		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com/1"},
			{LongURL: "https://example.com/2"},
		}, nil, testNow)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Len(t, records[0].ShortCode, shortcode.DefaultLength)
		assert.NotEqual(t, records[0].ShortCode, records[1].ShortCode)
	})
}

func TestShortener_Submit_Validation(t *testing.T) {
	existing := []entity.URLRecord{existingRecord("taken")}

	tests := []struct {
		name  string
		req   entity.ShortenRequest
		field entity.Field
		kind  entity.Kind
	}{
		{
			name:  "missing url",
			req:   entity.ShortenRequest{LongURL: ""},
			field: entity.FieldLongURL,
			kind:  entity.KindRequiredMissing,
		},
		{
			name:  "blank url",
			req:   entity.ShortenRequest{LongURL: "   "},
			field: entity.FieldLongURL,
			kind:  entity.KindRequiredMissing,
		},
		{
			name:  "relative url",
			req:   entity.ShortenRequest{LongURL: "example.com/path"},
			field: entity.FieldLongURL,
			kind:  entity.KindInvalidURL,
		},
		{
			name:  "unparsable url",
			req:   entity.ShortenRequest{LongURL: "http://[::1"},
			field: entity.FieldLongURL,
			kind:  entity.KindInvalidURL,
		},
		{
			name:  "zero validity",
			req:   entity.ShortenRequest{LongURL: "https://example.com", ValidityMinutes: ptr("0")},
			field: entity.FieldValidityMinutes,
			kind:  entity.KindInvalidValidity,
		},
		{
			name:  "negative validity",
			req:   entity.ShortenRequest{LongURL: "https://example.com", ValidityMinutes: ptr("-5")},
			field: entity.FieldValidityMinutes,
			kind:  entity.KindInvalidValidity,
		},
		{
			name:  "validity overflowing a duration",
			req:   entity.ShortenRequest{LongURL: "https://example.com", ValidityMinutes: ptr("200000000")},
			field: entity.FieldValidityMinutes,
			kind:  entity.KindInvalidValidity,
		},
		{
			name:  "non numeric validity",
			req:   entity.ShortenRequest{LongURL: "https://example.com", ValidityMinutes: ptr("ten")},
			field: entity.FieldValidityMinutes,
			kind:  entity.KindInvalidValidity,
		},
		{
			name:  "short code too short",
			req:   entity.ShortenRequest{LongURL: "https://example.com", PreferredCode: ptr("abc")},
			field: entity.FieldPreferredCode,
			kind:  entity.KindInvalidShortCodeFormat,
		},
		{
			name:  "short code with invalid characters",
			req:   entity.ShortenRequest{LongURL: "https://example.com", PreferredCode: ptr("ab cd")},
			field: entity.FieldPreferredCode,
			kind:  entity.KindInvalidShortCodeFormat,
		},
		{
			name:  "short code already exists",
			req:   entity.ShortenRequest{LongURL: "https://example.com", PreferredCode: ptr("taken")},
			field: entity.FieldPreferredCode,
			kind:  entity.KindDuplicateShortCode,
		},
		{
			name:  "first failing field wins",
			req:   entity.ShortenRequest{LongURL: "nope", ValidityMinutes: ptr("0"), PreferredCode: ptr("x")},
			field: entity.FieldLongURL,
			kind:  entity.KindInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShortener(&seqGenerator{codes: []string{"gen001"}})

			records, err := s.Submit([]entity.ShortenRequest{tt.req}, existing, testNow)

			var verrs entity.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Nil(t, records)
			assert.Equal(t, entity.ValidationErrors{{Index: 0, Field: tt.field, Kind: tt.kind}}, verrs)
		})
	}

	t.Run("batch is rejected as a whole", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"gen001"}}
		s := NewShortener(gen)

		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com/1"},
			{LongURL: "not a url"},
			{LongURL: "https://example.com/3", ValidityMinutes: ptr("abc")},
		}, nil, testNow)

		var verrs entity.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Nil(t, records)
		assert.Zero(t, gen.calls)
		assert.Equal(t, entity.ValidationErrors{
			{Index: 1, Field: entity.FieldLongURL, Kind: entity.KindInvalidURL},
			{Index: 2, Field: entity.FieldValidityMinutes, Kind: entity.KindInvalidValidity},
		}, verrs)
		assert.True(t, strings.HasPrefix(err.Error(), "validation failed: "))
	})
}

func TestShortener_Submit_BatchDuplicates(t *testing.T) {
	reqs := []entity.ShortenRequest{
		{LongURL: "https://example.com/1", PreferredCode: ptr("same")},
		{LongURL: "https://example.com/2", PreferredCode: ptr("same")},
	}

	t.Run("allowed by default", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}})

		records, err := s.Submit(reqs, nil, testNow)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "same", records[0].ShortCode)
		assert.Equal(t, "same", records[1].ShortCode)
	})

	t.Run("rejected when configured", func(t *testing.T) {
		s := NewShortener(&seqGenerator{codes: []string{"gen001"}}, WithRejectBatchDuplicates(true))

		records, err := s.Submit(reqs, nil, testNow)

		var verrs entity.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Nil(t, records)
		assert.Equal(t, entity.ValidationErrors{
			{Index: 1, Field: entity.FieldPreferredCode, Kind: entity.KindDuplicateShortCode},
		}, verrs)
	})
}

func TestShortener_Submit_ReservedCodes(t *testing.T) {
	s := NewShortener(&seqGenerator{codes: []string{"gen001"}}, WithReservedCodes("metrics", "swagger"))

	t.Run("reserved code is rejected", func(t *testing.T) {
		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com/1"},
			{LongURL: "https://example.com/2", PreferredCode: ptr("metrics")},
		}, nil, testNow)

		var verrs entity.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Nil(t, records)
		assert.Equal(t, entity.ValidationErrors{
			{Index: 1, Field: entity.FieldPreferredCode, Kind: entity.KindDuplicateShortCode},
		}, verrs)
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		records, err := s.Submit([]entity.ShortenRequest{
			{LongURL: "https://example.com", PreferredCode: ptr("Metrics")},
		}, nil, testNow)

		require.NoError(t, err)
		assert.Equal(t, "Metrics", records[0].ShortCode)
	})
}

func TestIsAbsoluteURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "https://example.com", want: true},
		{raw: "http://localhost:8080/path?q=1", want: true},
		{raw: "ftp://files.example.com/a.txt", want: true},
		{raw: "https://例え.jp/パス", want: true},
		{raw: "example.com", want: false},
		{raw: "/relative/path", want: false},
		{raw: "mailto:user@example.com", want: false},
		{raw: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAbsoluteURL(tt.raw))
		})
	}
}
