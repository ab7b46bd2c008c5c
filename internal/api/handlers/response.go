package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Data         interface{} `json:"data"`
	TotalRecords int         `json:"total_records"`
	Status       string      `json:"status"`
}

// respondData writes the success envelope. total_records is the length of
// data when it is a slice and 1 otherwise.
func respondData(c *gin.Context, data interface{}) {
	total := 1
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice {
		total = v.Len()
		if v.IsNil() {
			data = []struct{}{}
		}
	}
	c.JSON(http.StatusOK, envelope{Data: data, TotalRecords: total, Status: "success"})
}

// respondError maps err to a status code and writes the error envelope with
// an empty dataset.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	var fetchErr *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &fetchErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"data":    []struct{}{},
		"status":  "error",
		"error":   message,
		"details": err.Error(),
	})
}

// queryInt reads an optional integer query parameter, 0 when absent.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidParameter, name, raw)
	}
	return v, nil
}
