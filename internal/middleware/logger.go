package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// sensitiveFields contains patterns for fields that should be redacted
var sensitiveFields = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"credential",
	"access_token",
}

// sensitiveHeaderPatterns contains regex patterns for sensitive headers
var sensitiveHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)authorization`),
	regexp.MustCompile(`(?i)api[-_]?key`),
	regexp.MustCompile(`(?i)token`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)cookie`),
}

// LogEntry represents a structured request log entry
type LogEntry struct {
	Timestamp   string              `json:"timestamp"`
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	StatusCode  int                 `json:"status_code"`
	Latency     string              `json:"latency"`
	ClientIP    string              `json:"client_ip"`
	Headers     map[string]string   `json:"headers"`
	QueryParams map[string][]string `json:"query_params,omitempty"`
	RequestBody interface{}         `json:"request_body,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// RequestLogger creates a middleware that logs all API requests as JSON lines
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Multipart uploads are logged by metadata only, not body contents
		var requestBody []byte
		contentType := c.ContentType()
		if c.Request.Body != nil && strings.HasPrefix(contentType, "application/json") {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		latency := time.Since(startTime)

		entry := LogEntry{
			Timestamp:   time.Now().Format(time.RFC3339),
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			StatusCode:  c.Writer.Status(),
			Latency:     latency.String(),
			ClientIP:    c.ClientIP(),
			Headers:     redactHeaders(c.Request.Header),
			QueryParams: c.Request.URL.Query(),
		}

		if len(requestBody) > 0 {
			entry.RequestBody = parseAndRedactBody(requestBody)
		}

		if len(c.Errors) > 0 {
			entry.Error = c.Errors.String()
		}

		printJSONLog(entry)
	}
}

// redactHeaders redacts sensitive headers
func redactHeaders(headers map[string][]string) map[string]string {
	redacted := make(map[string]string)
	for key, values := range headers {
		if isSensitiveHeader(key) {
			redacted[key] = "[REDACTED]"
		} else {
			redacted[key] = strings.Join(values, ", ")
		}
	}
	return redacted
}

// isSensitiveHeader checks if a header name is sensitive
func isSensitiveHeader(headerName string) bool {
	for _, pattern := range sensitiveHeaderPatterns {
		if pattern.MatchString(headerName) {
			return true
		}
	}
	return false
}

// parseAndRedactBody parses JSON body and redacts sensitive fields
func parseAndRedactBody(body []byte) interface{} {
	var jsonBody interface{}
	if err := json.Unmarshal(body, &jsonBody); err != nil {
		bodyStr := string(body)
		if len(bodyStr) > 1000 {
			bodyStr = bodyStr[:1000] + "... (truncated)"
		}
		return bodyStr
	}

	redactSensitiveFields(jsonBody)
	return jsonBody
}

// redactSensitiveFields recursively redacts sensitive fields in JSON data
func redactSensitiveFields(data interface{}) {
	switch v := data.(type) {
	case map[string]interface{}:
		for key, value := range v {
			if isSensitiveField(key) {
				v[key] = "[REDACTED]"
			} else {
				redactSensitiveFields(value)
			}
		}
	case []interface{}:
		for _, item := range v {
			redactSensitiveFields(item)
		}
	}
}

// isSensitiveField checks if a field name is sensitive
func isSensitiveField(fieldName string) bool {
	lowerField := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(lowerField, sensitive) {
			return true
		}
	}
	return false
}

// printJSONLog outputs the log entry as JSON
func printJSONLog(entry LogEntry) {
	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fmt.Printf(`{"error": "failed to marshal log entry: %v"}%s`, err, "\n")
		return
	}
	fmt.Println(string(jsonBytes))
}
