package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	Shorten(ctx context.Context, requests []entity.ShortenRequest) ([]entity.URLRecord, error)
	Redirect(ctx context.Context, shortCode, source string) (string, error)
	ListStats(ctx context.Context) []entity.Report
	GetStats(ctx context.Context, shortCode string) (*entity.Report, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	baseURL  string
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, baseURL string) *urlHandler {
	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  baseURL,
	}
}

func (h *urlHandler) shortenURLs(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, emptyBatchResponse)
		return
	}

	records, err := h.useCase.Shorten(r.Context(), req.toEntity())
	if err != nil {
		var verrs entity.ValidationErrors

		switch {
		case errors.As(err, &verrs):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, validationErrorResponse(verrs))
		case errors.Is(err, entity.ErrEmptyBatch):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyBatchResponse)
		case errors.Is(err, entity.ErrBatchTooLarge):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, batchTooLargeResponse)
		default:
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toShortenResponse(h.baseURL, records))
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	report, err := h.useCase.GetStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(h.baseURL, *report))
}

func (h *urlHandler) listStats(w http.ResponseWriter, r *http.Request) {
	reports := h.useCase.ListStats(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toStatsResponse(h.baseURL, reports))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	dest, err := h.useCase.Redirect(r.Context(), shortCode, referrerHost(r))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrURLNotFound):
			render.Status(r, http.StatusNotFound)
			render.HTML(w, r, notFoundPage)
		case errors.Is(err, entity.ErrURLExpired):
			render.Status(r, http.StatusGone)
			render.HTML(w, r, expiredPage)
		default:
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	http.Redirect(w, r, dest, http.StatusFound)
}

// referrerHost returns the host of the Referer header, or an empty string
// when the request carries no usable referrer.
func referrerHost(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
