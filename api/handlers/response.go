package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/logger"
)

type response struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

func writeResponse(c *gin.Context, data interface{}, statusCode int, errors []string) {

	if statusCode == http.StatusNoContent {
		c.JSON(statusCode, nil)
		return

	}

	response := response{
		Data:   data,
		Errors: errors,
	}

	c.JSON(statusCode, response)
}

// writeHTML renders a full page before writing it, so a failed render still
// produces a clean error response.
func writeHTML(c *gin.Context, logger logger.Logger, statusCode int, render func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		logger.Error("could not render page", "path", c.Request.URL.Path, "err", err.Error())
		c.Abort()
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}

	c.Data(statusCode, "text/html; charset=utf-8", buf.Bytes())
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
