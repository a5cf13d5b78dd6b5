package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/labhub/internal/domain/recipe"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter[T any]() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBindError(t *testing.T, w *httptest.ResponseRecorder) bindErrorResponse {
	t.Helper()

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[user.CreateUserRequest]()

	resp := decodeBindError(t, postBind(r, `{"email":"not-an-email","password":"pw"}`))

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"email":    "email",
		"password": "min",
		"name":     "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[recipe.CreateRecipeRequest]()

	resp := decodeBindError(t, postBind(r, `{"title":"Soup","timeMinutes":"ten","price":"5.00"}`))

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "timeMinutes" {
		t.Fatalf("expected detail field to be timeMinutes, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_RejectsUnknownFields(t *testing.T) {
	r := bindRouter[user.CreateUserRequest]()

	body := `{"email":"a@example.com","password":"secret1","name":"A","is_superuser":true}`
	resp := decodeBindError(t, postBind(r, body))

	if resp.Error.Details.JSON != "unknown_field" {
		t.Fatalf("expected unknown_field, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "is_superuser" {
		t.Fatalf("expected field is_superuser, got %q", resp.Error.Details.Field)
	}
	if resp.Error.Details.Fields[0].Rule != "unknown" {
		t.Fatalf("expected rule unknown, got %q", resp.Error.Details.Fields[0].Rule)
	}
}

func TestBindJSON_SyntaxAndEmptyBody(t *testing.T) {
	r := bindRouter[user.TokenRequest]()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty_body"},
		{"truncated", `{"email":`, "invalid_json_syntax"},
		{"trailing value", `{"email":"a","password":"b"} {}`, "invalid_json_syntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeBindError(t, postBind(r, tt.body))
			if resp.Error.Details.JSON != tt.want {
				t.Fatalf("got %q, want %q", resp.Error.Details.JSON, tt.want)
			}
		})
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 16)

		var req user.TokenRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	body := `{"email":"` + strings.Repeat("a", 64) + `","password":"x"}`
	w := postBind(r, body)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
