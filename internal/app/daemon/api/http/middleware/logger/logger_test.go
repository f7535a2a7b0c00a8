package logger

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestLogger_Middleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, api := humatest.New(t)
	api.UseMiddleware(New(log).Middleware())

	huma.Register(api, huma.Operation{
		OperationID: "teapot",
		Method:      http.MethodPost,
		Path:        "/teapot",
	}, func(context.Context, *struct {
		Body struct {
			Password string `json:"password"`
		}
	}) (*struct{}, error) {
		return nil, huma.Error401Unauthorized("wrong password")
	})

	resp := api.Post("/teapot", map[string]any{"password": "hunter2"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"path":"/teapot"`)
	assert.Contains(t, out, `"status":401`)
	assert.NotContains(t, out, "hunter2")
}
