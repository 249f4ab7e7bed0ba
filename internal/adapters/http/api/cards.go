package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	service "github.com/dzhang123/DynaCard/internal/app"
	"github.com/dzhang123/DynaCard/internal/adapters/repository"
	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"github.com/dzhang123/DynaCard/internal/domain/model"
)

const (
	maxBodyBytes        = 8 << 20
	defaultHistoryLimit = 20
)

// cardRequest mirrors the OpenAPI schema shared by POST /classify and POST /cards.
type cardRequest struct {
	ID                  string        `json:"id"`
	WellID              string        `json:"well_id"`
	Timestamp           string        `json:"timestamp"`
	DeviceSerial        string        `json:"device_serial"`
	SensorSerial        string        `json:"sensor_serial"`
	MinAcceptableWeight *float64      `json:"min_acceptable_weight"`
	Samples             model.Samples `json:"samples"`
}

func (c *cardRequest) validate() error {
	switch {
	case len(c.Samples) == 0:
		return errors.New("missing samples")
	case c.MinAcceptableWeight != nil && *c.MinAcceptableWeight < 0:
		return errors.New("min_acceptable_weight must not be negative")
	}
	return nil
}

func (c *cardRequest) job() model.Job {
	return model.Job{
		ID: strings.TrimSpace(c.ID),
		Header: model.Header{
			WellID:       c.WellID,
			Timestamp:    c.Timestamp,
			DeviceSerial: c.DeviceSerial,
			SensorSerial: c.SensorSerial,
		},
		Samples:             c.Samples,
		MinAcceptableWeight: c.MinAcceptableWeight,
	}
}

// classifyResponse is the report plus optional diagnostics.
type classifyResponse struct {
	model.Report
	ID         string           `json:"id"`
	PeakLoad   *float64         `json:"peak_load,omitempty"`
	Edges      []edge.Summary   `json:"edges,omitempty"`
	Properties *card.Properties `json:"properties,omitempty"`
}

type historyResponse struct {
	WellID  string         `json:"well_id"`
	Results []model.Result `json:"results"`
}

// CardsHandler handles classification and result requests.
type CardsHandler struct {
	deps Dependencies
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(deps Dependencies) *CardsHandler {
	return &CardsHandler{deps: deps}
}

func decodeCard(w http.ResponseWriter, r *http.Request, op string) (cardRequest, bool) {
	var req cardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}

// HandleClassify handles POST /classify requests.
func (h *CardsHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	req, ok := decodeCard(w, r, op)
	if !ok {
		return
	}

	result, err := h.deps.Classify(r.Context(), req.job())
	if err != nil {
		status := http.StatusUnprocessableEntity
		if result.ErrorCode == model.CodeInternal {
			status = http.StatusInternalServerError
		}
		writeError(w, r, status, model.ErrorCode(err), err)
		return
	}

	resp := classifyResponse{Report: result.Report(), ID: result.ID}
	if detail, _ := strconv.ParseBool(r.URL.Query().Get("detail")); detail {
		peak := result.PeakLoad
		resp.PeakLoad = &peak
		resp.Edges = result.Edges
		resp.Properties = result.Properties
	}
	writeResponse(w, r, http.StatusOK, resp)
}

// HandleSubmit handles POST /cards requests.
func (h *CardsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_card"
	req, ok := decodeCard(w, r, op)
	if !ok {
		return
	}
	if strings.TrimSpace(req.WellID) == "" {
		writeError(w, r, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("missing well_id")))
		return
	}

	ack, err := h.deps.Submit(r.Context(), req.job())
	switch {
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, r, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, err))
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal", err)
	case ack.Duplicate:
		writeResponse(w, r, http.StatusOK, ack)
	default:
		writeResponse(w, r, http.StatusAccepted, ack)
	}
}

// HandleGet handles GET /cards/{id} requests.
func (h *CardsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_card"
	id := mux.Vars(r)["id"]

	result, err := h.deps.Result(r.Context(), id)
	if err != nil {
		h.writeReadError(w, r, op, err)
		return
	}
	writeResponse(w, r, http.StatusOK, result)
}

// HandleHistory handles GET /wells/{well_id}/cards requests.
func (h *CardsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.well_history"
	wellID := mux.Vars(r)["well_id"]

	limit := min(defaultHistoryLimit, h.deps.MaxHistoryLimit())
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.deps.MaxHistoryLimit() {
			writeError(w, r, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest,
				fmt.Errorf("limit must be an integer in [1, %d]", h.deps.MaxHistoryLimit())))
			return
		}
		limit = n
	}

	results, err := h.deps.History(r.Context(), wellID, limit)
	if err != nil {
		h.writeReadError(w, r, op, err)
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	writeResponse(w, r, http.StatusOK, historyResponse{WellID: wellID, Results: results})
}

func (h *CardsHandler) writeReadError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidLimit), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, r, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, r, http.StatusInternalServerError, "internal", err)
	}
}
