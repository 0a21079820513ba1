package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/util"
)

// decodeJSON reads the request body into dst. Only JSON bodies are accepted.
func decodeJSON(c *gin.Context, dst any) error {
	raw := c.GetHeader("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil || !isJSON(mediaType) {
		return apperrors.UnsupportedMediaType(raw)
	}
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return apperrors.Validation("Request body must not be empty")
	}
	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

func isJSON(mediaType string) bool {
	return mediaType == gin.MIMEJSON || strings.HasSuffix(mediaType, "+json")
}

func decodeError(err error) *apperrors.AppError {
	var (
		tooLarge  *http.MaxBytesError
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &tooLarge):
		return apperrors.New(apperrors.ErrCodePayloadTooLarge,
			fmt.Sprintf("The request body exceeds the maximum allowed size of %s.", util.FormatSize(tooLarge.Limit)),
			http.StatusRequestEntityTooLarge).
			WithDetail("max_bytes", tooLarge.Limit)
	case errors.Is(err, io.EOF):
		return apperrors.Validation("Request body must not be empty")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.InvalidField(field, "must be "+describeType(typeErr.Type))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.Validation("Request body is not valid JSON")
	default:
		return apperrors.Validation("Request body could not be decoded")
	}
}

func describeType(t reflect.Type) string {
	if t == nil {
		return "of a different type"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "an object"
	}
	return "of type " + t.String()
}
