package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta collects per-request metadata that handlers attach to the
// envelope's meta field, and stamps the processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		c.Set(responseMetaKey, meta)
		c.Next()
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetMeta records a metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns the metadata stored on the context, with the elapsed
// time filled in when the handler has not set it.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
