package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryBool reads a boolean query parameter. Missing or unparsable values read as false.
func queryBool(c *gin.Context, name string) bool {
	raw := c.Query(name)
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
