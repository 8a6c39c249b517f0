package middleware

import "github.com/gin-gonic/gin"

// workerIDKey is the key used to store the authenticated worker's ID in the
// request context.
const workerIDKey = contextKey("workerID")

// GetWorkerIDFromContext retrieves the authenticated worker ID from the Gin
// context. It returns the worker ID and a boolean indicating if it was found.
func GetWorkerIDFromContext(c *gin.Context) (string, bool) {
	workerIDVal := c.Request.Context().Value(workerIDKey)
	if workerIDVal == nil {
		return "", false
	}

	workerID, ok := workerIDVal.(string)
	if !ok {
		return "", false
	}

	return workerID, true
}
