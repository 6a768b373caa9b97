package scim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/scimgate/internal/codec"
	"github.com/isometry/scimgate/internal/filter"
	"github.com/isometry/scimgate/internal/index"
	"github.com/isometry/scimgate/internal/model"
	"github.com/isometry/scimgate/internal/provisioning"
)

const extensionURN = "urn:okta:onprem_app:1.0:user:custom"

// nullGateway satisfies the directory dependency without a live server.
type nullGateway struct{}

func (nullGateway) CreateEntry(context.Context, model.Kind, string, model.Attributes) error {
	return nil
}

func (nullGateway) ReplaceEntry(context.Context, model.Kind, string, string, model.Attributes) error {
	return nil
}

func (nullGateway) DeleteEntry(context.Context, model.Kind, string) error { return nil }

func (nullGateway) SearchEntries(context.Context, model.Kind) ([]model.Attributes, error) {
	return nil, nil
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	c := codec.New(codec.Config{
		UserClasses:  []string{"OpenLDAPperson", "shadowAccount"},
		GroupClasses: []string{"posixGroup"},
		GroupGID:     "5000",
	}, nil)
	ix, err := index.New(c, nil)
	require.NoError(t, err)
	svc := provisioning.NewService(ix, c, nullGateway{}, filter.NewEngine(extensionURN, nil),
		provisioning.NewSequenceIDs(), nil)
	return NewHandler(svc, nil).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUserEndpoints(t *testing.T) {
	h := testHandler(t)

	createBody := `{
		"schemas": ["urn:scim:schemas:core:1.0", "` + extensionURN + `"],
		"userName": "alice",
		"name": {"formatted": "Alice Example", "givenName": "Alice", "familyName": "Example"},
		"active": true,
		"password": "hunter2",
		"emails": [{"value": "a@x.com", "type": "work", "primary": true}],
		"` + extensionURN + `": {"departmentName": "Engineering"}
	}`

	rec := do(t, h, http.MethodPost, "/Users", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, created, "id")
	assert.NotContains(t, created, "password", "password is write-only")
	assert.Contains(t, created, extensionURN, "extension bag round-trips")

	var id string
	require.NoError(t, json.Unmarshal(created["id"], &id))
	assert.Equal(t, "100", id)

	t.Run("get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/Users/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got userResource
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "alice", got.UserName)
		assert.Empty(t, got.Password)
	})

	t.Run("get unknown id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/Users/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var errResp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Len(t, errResp.Errors, 1)
		assert.Equal(t, "404", errResp.Errors[0].Code)
	})

	t.Run("update deactivates", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/Users/"+id,
			`{"userName": "alice", "name": {}, "active": false}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var got userResource
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.Active)
	})

	t.Run("list with filter", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, `/Users?filter=userName+eq+%22alice%22&startIndex=1&count=10`, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 1, list.TotalResults)
		assert.Equal(t, 1, list.StartIndex)
	})

	t.Run("list with bad filter", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, `/Users?filter=userName+gt+%22a%22`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/Users", `{"userName":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGroupEndpoints(t *testing.T) {
	h := testHandler(t)

	rec := do(t, h, http.MethodPost, "/Groups",
		`{"displayName": "Engineering", "members": [{"value": "100", "display": "Alice Example"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created groupResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "1000", created.ID)

	t.Run("duplicate display name conflicts", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/Groups", `{"displayName": "engineering"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/Groups/"+created.ID, `{"displayName": "Platform"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var got groupResource
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Platform", got.DisplayName)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/Groups", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 1, list.TotalResults)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/Groups/"+created.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodGet, "/Groups/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
