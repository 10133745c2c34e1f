package shared

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startPayload struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

func TestDecodeJSON(t *testing.T) {
	t.Run("well-formed body", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/jobs/nz",
			strings.NewReader(`{"label": "New Zealand", "kind": "insights"}`),
		)

		var payload startPayload
		require.NoError(t, DecodeJSON(req, &payload))
		assert.Equal(t, "New Zealand", payload.Label)
		assert.Equal(t, "insights", payload.Kind)
	})

	t.Run("trailing comma", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/jobs/nz",
			strings.NewReader(`{"label": "New Zealand",}`),
		)

		var payload startPayload
		err := DecodeJSON(req, &payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid character")
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs/nz", strings.NewReader(""))

		var payload startPayload
		assert.ErrorIs(t, DecodeJSON(req, &payload), io.EOF)
	})

	t.Run("body read failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs/nz", failingReader{})

		var payload startPayload
		assert.ErrorIs(t, DecodeJSON(req, &payload), io.ErrUnexpectedEOF)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

// selfValidating exercises the Validatable fast path.
type selfValidating struct {
	SubjectID string
}

var errBlankSubject = errors.New("subject id must not be blank")

func (s *selfValidating) Validate() error {
	if strings.TrimSpace(s.SubjectID) == "" {
		return errBlankSubject
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Run("type with its own Validate", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&selfValidating{SubjectID: "nz"}))
		assert.ErrorIs(t, ValidateRequest(&selfValidating{SubjectID: "   "}), errBlankSubject)
	})

	t.Run("struct tags", func(t *testing.T) {
		type tagged struct {
			Label string `validate:"required"`
		}

		assert.NoError(t, ValidateRequest(&tagged{Label: "Sweden"}))
		assert.Error(t, ValidateRequest(&tagged{}))
	})
}
