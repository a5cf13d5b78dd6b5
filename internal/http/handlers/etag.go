package handlers

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/geocoder89/labhub/internal/domain/recipe"
	"github.com/gin-gonic/gin"
)

// recipeETag is a strong validator over the recipe exactly as it is served, so
// a price or title edit by the owner always changes it.
func recipeETag(rc recipe.Recipe) string {
	b, err := json.Marshal(rc)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(b)
	return `"` + base64.RawURLEncoding.EncodeToString(sum[:18]) + `"`
}

// respondRecipe writes rc with its ETag. A GET whose If-None-Match already
// names the current version gets an empty 304.
func respondRecipe(ctx *gin.Context, status int, rc recipe.Recipe) {
	etag := recipeETag(rc)
	if etag == "" {
		ctx.JSON(status, rc)
		return
	}

	ctx.Header("ETag", etag)

	if ctx.Request.Method == http.MethodGet && etagListed(ctx.GetHeader("If-None-Match"), etag, true) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, rc)
}

// ifMatchFails reports whether a PATCH was made against a stale copy. It
// writes the 412 itself.
func ifMatchFails(ctx *gin.Context, current recipe.Recipe) bool {
	header := strings.TrimSpace(ctx.GetHeader("If-Match"))
	if header == "" || etagListed(header, recipeETag(current), false) {
		return false
	}

	RespondError(ctx, http.StatusPreconditionFailed, "precondition_failed", "Recipe was changed since it was read", gin.H{
		"etag": recipeETag(current),
	})
	return true
}

// etagListed checks a comma separated If-(None-)Match value. Weak
// comparison (If-None-Match) ignores the W/ prefix; strong comparison
// (If-Match) never matches a weak tag.
func etagListed(header, etag string, weak bool) bool {
	header = strings.TrimSpace(header)
	if header == "" || etag == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if after, isWeak := strings.CutPrefix(candidate, "W/"); isWeak {
			if !weak {
				continue
			}
			candidate = after
		}
		if candidate == etag {
			return true
		}
	}

	return false
}
