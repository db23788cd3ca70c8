package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// uncompressedPaths are served as is: the Prometheus handler negotiates its
// own encoding and the Swagger UI assets are already minified.
var uncompressedPaths = []string{"/metrics", "/swagger/"}

// Compression gzips responses for clients that accept it.
func Compression() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(uncompressedPaths))
}
