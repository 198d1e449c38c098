package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// PaginationError describes a rejected page or limit query value
type PaginationError struct {
	Param  string
	Value  string
	Reason string
}

func (e *PaginationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "must be a positive integer"
	}
	return fmt.Sprintf("%s %s, got %q", e.Param, reason, e.Value)
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// Missing values take the defaults, malformed or non-positive values are rejected
// and limits above the maximum are clamped. A page whose offset does not fit in
// an int is rejected.
func GetPaginationParams(c *gin.Context) (PaginationParams, error) {
	page, err := parsePositive(c, "page", constants.DefaultPage)
	if err != nil {
		return PaginationParams{}, err
	}
	limit, err := parsePositive(c, "limit", constants.DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}

	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	if !OffsetFits(page, limit) {
		return PaginationParams{}, &PaginationError{
			Param:  "page",
			Value:  strconv.Itoa(page),
			Reason: "is too large",
		}
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}, nil
}

// OffsetFits reports whether (page-1)*limit can be computed without overflow.
func OffsetFits(page, limit int) bool {
	if page <= 1 || limit <= 0 {
		return true
	}
	return page-1 <= math.MaxInt/limit
}

func parsePositive(c *gin.Context, param string, defaultValue int) (int, error) {
	raw, ok := c.GetQuery(param)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return 0, &PaginationError{Param: param, Value: raw}
	}
	return value, nil
}
