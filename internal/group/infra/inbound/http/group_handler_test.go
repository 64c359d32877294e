package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vskolike/groupdir/internal/group/application"
	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	"github.com/vskolike/groupdir/pkg/metrics"
	"github.com/vskolike/groupdir/tests/mocks"
)

type listResponse struct {
	Data  []GroupResponse `json:"data"`
	Total int64           `json:"total"`
	Start int             `json:"start"`
	Sort  string          `json:"sort"`
	Order string          `json:"order"`
	Size  int             `json:"size"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *mocks.InMemoryGroupRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := mocks.NewInMemoryGroupRepo()
	repo.Seed(
		&groupDomain.Group{ID: "admin", Name: "Admin", Type: "security-role"},
		&groupDomain.Group{ID: "sales", Name: "sales", Type: "assignment"},
		&groupDomain.Group{ID: "sales-eu", Name: "sales", Type: "assignment"},
		&groupDomain.Group{ID: "sales-us", Name: "sales", Type: "assignment"},
		&groupDomain.Group{ID: "salary", Name: "salary", Type: "assignment"},
		&groupDomain.Group{ID: "wholesale", Name: "wholesale", Type: "assignment"},
	)

	service := application.NewGroupService(repo, mocks.NewDummyCache(), zap.NewNop())
	handler := NewGroupHandler(service, metrics.New("test"), 10)

	r := gin.New()
	RegisterGroupRoutes(r, handler)
	return r, repo
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListGroups_ByName(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups?name=sales", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 0, resp.Start)
	assert.Equal(t, 3, resp.Size)
	assert.Equal(t, "id", resp.Sort)
	assert.Equal(t, "asc", resp.Order)
	assert.Equal(t, "/identity/groups/sales", resp.Data[0].URL)
}

func TestListGroups_NameLikeSortedDesc(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups?nameLike=sal%25&sort=name&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	ids := make([]string, 0, len(resp.Data))
	for _, g := range resp.Data {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"sales-us", "sales-eu", "sales", "salary"}, ids)
	assert.Equal(t, "name", resp.Sort)
	assert.Equal(t, "desc", resp.Order)
}

func TestListGroups_OffsetBeyondTotal(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups?start=50&size=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, 50, resp.Start)
	assert.Equal(t, 0, resp.Size)
}

func TestListGroups_UnknownKeysIgnored(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups?color=blue", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(6), resp.Total)
}

func TestListGroups_InvalidInputIs400(t *testing.T) {
	r, repo := setupRouter(t)

	for _, target := range []string{
		"/identity/groups?sort=createdAt",
		"/identity/groups?sort=",
		"/identity/groups?sort=&order=desc",
		"/identity/groups?order=sideways",
		"/identity/groups?size=0",
		"/identity/groups?start=-1",
		"/identity/groups?size=abc",
	} {
		rec := do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Error.Message, target)
	}
	assert.Zero(t, repo.CallCount())
}

func TestListGroups_EmptySortIsNotDefaultOrder(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups?sort=", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error.Message, "unknown sort field")

	// sin parámetro sí se usa el orden por defecto
	rec = do(r, http.MethodGet, "/identity/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "id", page.Sort)
}

func TestListGroups_StoreFailureIs500(t *testing.T) {
	r, repo := setupRouter(t)
	repo.ListErr = errors.New("connection reset")

	rec := do(r, http.MethodGet, "/identity/groups", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestCreateGroup_Created(t *testing.T) {
	r, repo := setupRouter(t)

	rec := do(r, http.MethodPost, "/identity/groups", `{"id":"ops","name":"Ops","type":"assignment"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp GroupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, GroupResponse{ID: "ops", Name: "Ops", Type: "assignment", URL: "/identity/groups/ops"}, resp)
	assert.Len(t, repo.Outbox, 1)
}

func TestCreateGroup_DuplicateIs409(t *testing.T) {
	r, repo := setupRouter(t)

	rec := do(r, http.MethodPost, "/identity/groups", `{"id":"admin","name":"Other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, repo.Groups, 6)
	assert.Equal(t, "Admin", repo.Groups["admin"].Name)
}

func TestCreateGroup_NullIDIs400WithoutStoreCall(t *testing.T) {
	r, repo := setupRouter(t)

	for _, body := range []string{`{"id":null,"name":"x"}`, `{"name":"x"}`} {
		rec := do(r, http.MethodPost, "/identity/groups", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Zero(t, repo.CallCount())
}

func TestCreateGroup_MalformedBodyIs400(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/identity/groups", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroup(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/identity/groups/admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp GroupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Admin", resp.Name)

	rec = do(r, http.MethodGet, "/identity/groups/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembers_AddFilterRemove(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/identity/groups/sales/members", `{"userId":"kermit"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodGet, "/identity/groups?member=kermit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "sales", resp.Data[0].ID)

	rec = do(r, http.MethodDelete, "/identity/groups/sales/members/kermit", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/identity/groups?member=kermit", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestMembers_UnknownGroupIs404(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/identity/groups/ghost/members", `{"userId":"kermit"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodPost, "/identity/groups/sales/members", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
