package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	fieldsKey    = "request_fields"
	maxBodyBytes = 1 << 20
)

// bodyFields parses a form or JSON request body once and caches the flat field map
// on the context. Nested JSON values are ignored.
func bodyFields(c *gin.Context) map[string]string {
	if v, ok := c.Get(fieldsKey); ok {
		return v.(map[string]string)
	}

	fields := make(map[string]string)
	c.Set(fieldsKey, fields)

	if c.Request.Body == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
		return fields
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mediaType {
	case "application/json":
		var raw map[string]any
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && err != io.EOF {
			return fields
		}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case json.Number:
				fields[k] = val.String()
			case bool:
				fields[k] = fmt.Sprint(val)
			}
		}
	case "multipart/form-data":
		if err := c.Request.ParseMultipartForm(maxBodyBytes); err != nil {
			return fields
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			return fields
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
	}

	return fields
}

// presentedKey returns the API key from the X-API-Key header, the api_key query
// parameter or the api_key body field, in that order
func presentedKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	if key := strings.TrimSpace(c.Query("api_key")); key != "" {
		return key
	}
	return strings.TrimSpace(bodyFields(c)["api_key"])
}
