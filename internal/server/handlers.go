package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hurou927/text2sql/internal/cache"
	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/converter"
	"github.com/hurou927/text2sql/internal/schema"
)

// MaxBatch bounds the questions accepted by one batch request.
const MaxBatch = 100

// ConvertRequest is the body of POST /api/v1/convert.
type ConvertRequest struct {
	Question string `json:"question" binding:"required"`
}

// BatchRequest is the body of POST /api/v1/convert/batch.
type BatchRequest struct {
	Questions []string `json:"questions" binding:"required"`
}

// ConvertResponse is the data of a successful conversion.
type ConvertResponse struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Source   string `json:"source"`
	Valid    bool   `json:"valid"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Question string `json:"question"`
	SQL      string `json:"sql,omitempty"`
	Source   string `json:"source,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// SchemaResponse describes the loaded catalog.
type SchemaResponse struct {
	Database string          `json:"database"`
	Tables   []*schema.Table `json:"tables"`
	Summary  string          `json:"summary"`
}

// StatsResponse reports counters of the converter currently served. A reload
// starts them over.
type StatsResponse struct {
	Conversions converter.Stats `json:"conversions"`
	Cache       *cache.Stats    `json:"cache,omitempty"`
}

type handler struct {
	src *Holder
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) schema(c *gin.Context) {
	cat := h.src.Load().Catalog()
	success(c, http.StatusOK, SchemaResponse{
		Database: cat.DatabaseName(),
		Tables:   cat.Tables(),
		Summary:  cat.Describe(),
	}, "")
}

func (h *handler) stats(c *gin.Context) {
	conv := h.src.Load()
	resp := StatsResponse{Conversions: conv.Stats()}
	if cs, ok := conv.CacheStats(); ok {
		resp.Cache = &cs
	}
	success(c, http.StatusOK, resp, "")
}

func (h *handler) convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body: question is required")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		fail(c, http.StatusBadRequest, nil, "Question is required: cannot be empty")
		return
	}

	res, err := h.src.Load().Convert(c.Request.Context(), req.Question)
	if err != nil {
		_ = c.Error(err)
		fail(c, statusFor(err), err, "Failed to convert question")
		return
	}
	success(c, http.StatusOK, ConvertResponse{
		Question: req.Question,
		SQL:      res.SQL,
		Source:   res.Source.String(),
		Valid:    res.Valid,
	}, "Question converted successfully")
}

// explain returns the rule engine's reading of a question, without SQL.
func (h *handler) explain(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body: question is required")
		return
	}

	in, err := h.src.Load().Rules().Intent(req.Question)
	if err != nil {
		_ = c.Error(err)
		fail(c, statusFor(err), err, "Failed to read question")
		return
	}
	success(c, http.StatusOK, in, "")
}

func (h *handler) batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body: questions is required")
		return
	}
	if len(req.Questions) == 0 || len(req.Questions) > MaxBatch {
		fail(c, http.StatusBadRequest, nil, "Questions must hold between 1 and 100 entries")
		return
	}

	results := h.src.Load().BatchConvert(c.Request.Context(), req.Questions)
	items := make([]BatchItem, len(results))
	failed := 0
	for i, r := range results {
		items[i] = BatchItem{Question: r.Question}
		if r.Err != nil {
			failed++
			items[i].Error = r.Err.Error()
			continue
		}
		items[i].SQL = r.Result.SQL
		items[i].Source = r.Result.Source.String()
		items[i].Valid = r.Result.Valid
	}

	if failed == len(items) {
		fail(c, http.StatusUnprocessableEntity, errors.New("no question could be converted"), "Failed to convert questions")
		return
	}
	success(c, http.StatusOK, items, "Questions converted")
}

// statusFor maps a conversion error to an HTTP status. Anything the caller
// can fix by rephrasing is 422.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrSchema):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
