package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/echoroom/api/internal/handler"
	"github.com/echoroom/api/internal/middleware"
	"github.com/echoroom/api/internal/service"
)

const testUserID = "e2e-user"

// testApp holds all components needed for testing
type testApp struct {
	app      *fiber.App
	waveform *service.WaveformService
}

// setupApp creates a Fiber app wired like main.go but without external
// storage or core clients. Requires a local redis; skips otherwise.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis DB 15 to avoid collision with a dev instance
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	waveformService := service.NewWaveformService(redisClient, asynqClient)
	waveformHandler := handler.NewWaveformHandler(waveformService, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", middleware.GatewayAuthMiddleware())
	wf := api.Group("/waveform")
	wf.Post("/generate", rateLimiter.WaveformLimit(1000), waveformHandler.Generate)
	wf.Get("/status/:jobId", waveformHandler.Status)
	wf.Get("/result/:jobId", waveformHandler.Result)

	return &testApp{app: app, waveform: waveformService}
}

func doRequest(app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return app.Test(req, 5000)
}

// doAuthRequest sends a request with the gateway identity headers set
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"X-User-Id":    testUserID,
		"X-User-Email": "e2e@echoroom.test",
	})
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse body %q: %v", body, err)
	}
	return result
}
