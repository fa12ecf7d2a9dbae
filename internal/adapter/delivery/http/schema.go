package http

import (
	"encoding/json"
	"time"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const (
	statusError   = "error"
	statusActive  = "active"
	statusExpired = "expired"
)

// flexString accepts either a JSON string or a JSON number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*f = flexString(s)
	return nil
}

// shortenItem represents one URL of a shortening batch.
type shortenItem struct {
	LongURL         string      `json:"long_url"`
	ValidityMinutes *flexString `json:"validity_minutes"`
	PreferredCode   *string     `json:"preferred_code"`
}

// shortenRequest represents the structure for a request to shorten a batch of URLs.
type shortenRequest struct {
	URLs []shortenItem `json:"urls" validate:"required"`
}

func (req *shortenRequest) toEntity() []entity.ShortenRequest {
	out := make([]entity.ShortenRequest, len(req.URLs))
	for i, item := range req.URLs {
		out[i] = entity.ShortenRequest{
			LongURL:       item.LongURL,
			PreferredCode: item.PreferredCode,
		}
		if item.ValidityMinutes != nil {
			v := string(*item.ValidityMinutes)
			out[i].ValidityMinutes = &v
		}
	}

	return out
}

// urlResponse represents a shortened URL.
type urlResponse struct {
	LongURL   string    `json:"long_url"`
	ShortCode string    `json:"short_code"`
	ShortURL  string    `json:"short_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toURLResponse(baseURL string, r entity.URLRecord) urlResponse {
	return urlResponse{
		LongURL:   r.LongURL,
		ShortCode: r.ShortCode,
		ShortURL:  baseURL + "/" + r.ShortCode,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

type shortenResponse struct {
	URLs []urlResponse `json:"urls"`
}

func toShortenResponse(baseURL string, records []entity.URLRecord) shortenResponse {
	urls := make([]urlResponse, len(records))
	for i, r := range records {
		urls[i] = toURLResponse(baseURL, r)
	}

	return shortenResponse{URLs: urls}
}

type clickResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
}

// urlStatsResponse represents a shortened URL with its click statistics.
type urlStatsResponse struct {
	urlResponse
	Status    string          `json:"status"`
	Clicks    int64           `json:"clicks"`
	ClickData []clickResponse `json:"click_data"`
}

func toURLStatsResponse(baseURL string, report entity.Report) urlStatsResponse {
	status := statusActive
	if report.Expired {
		status = statusExpired
	}

	clicks := make([]clickResponse, len(report.ClickData))
	for i, c := range report.ClickData {
		clicks[i] = clickResponse{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Location:  c.Location,
		}
	}

	return urlStatsResponse{
		urlResponse: toURLResponse(baseURL, report.URLRecord),
		Status:      status,
		Clicks:      report.Clicks,
		ClickData:   clicks,
	}
}

type statsResponse struct {
	URLs []urlStatsResponse `json:"urls"`
}

func toStatsResponse(baseURL string, reports []entity.Report) statsResponse {
	urls := make([]urlStatsResponse, len(reports))
	for i, r := range reports {
		urls[i] = toURLStatsResponse(baseURL, r)
	}

	return statsResponse{URLs: urls}
}

// validationError represents the rejection of one URL of a batch.
type validationError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	emptyBatchResponse = errorResponse{
		Status:  statusError,
		Message: "at least one url is required",
	}

	batchTooLargeResponse = errorResponse{
		Status:  statusError,
		Message: "too many urls in one request",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

var fieldNames = map[entity.Field]string{
	entity.FieldLongURL:         "long_url",
	entity.FieldValidityMinutes: "validity_minutes",
	entity.FieldPreferredCode:   "preferred_code",
}

// validationErrorResponse constructs an errorResponse listing every rejected URL.
func validationErrorResponse(errs entity.ValidationErrors) errorResponse {
	out := make([]validationError, len(errs))
	for i, e := range errs {
		out[i] = validationError{
			Index:   e.Index,
			Field:   fieldNames[e.Field],
			Kind:    string(e.Kind),
			Message: e.Kind.Message(),
		}
	}

	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  out,
	}
}

const notFoundPage = `<!DOCTYPE html>
<html><head><title>Not Found</title></head>
<body><h1>Short URL not found</h1><p>The short link you followed does not exist.</p></body></html>
`

const expiredPage = `<!DOCTYPE html>
<html><head><title>Gone</title></head>
<body><h1>Short URL has expired</h1><p>The short link you followed is no longer active.</p></body></html>
`
