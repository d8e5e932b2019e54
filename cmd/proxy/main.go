package main

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// A thin forwarding proxy for deployments where the frontend host
// cannot reach the API origin directly. It relays /api/* verbatim and
// answers CORS preflights itself.
func main() {
	_ = godotenv.Load()

	upstream := os.Getenv("API_UPSTREAM")
	if upstream == "" {
		upstream = "http://localhost:8080"
	}
	upstream = strings.TrimRight(upstream, "/")

	addr := os.Getenv("PROXY_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client := &http.Client{Timeout: 30 * time.Second}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Any("/api/*path", func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		target := upstream + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Proxy error", "details": err.Error()})
			return
		}
		for k, vals := range c.Request.Header {
			// the upstream sees the proxy as the client
			if k == "Host" || k == "User-Agent" {
				continue
			}
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Error("Upstream request failed", zap.String("target", target), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Proxy error", "details": err.Error()})
			return
		}
		defer resp.Body.Close()

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Status(resp.StatusCode)
		c.Writer.Header().Set("Content-Type", contentType)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			logger.Warn("Response relay interrupted", zap.Error(err))
		}
	})

	logger.Info("Proxy listening", zap.String("addr", addr), zap.String("upstream", upstream))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Proxy failed", zap.Error(err))
	}
}
