package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vskolike/groupdir/internal/group/application"
	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	"github.com/vskolike/groupdir/pkg/metrics"
	"github.com/vskolike/groupdir/pkg/utils"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

const groupsPath = "/identity/groups"

// GroupHandler encapsula los endpoints HTTP relacionados con Group
type GroupHandler struct {
	service         *application.GroupService
	metrics         *metrics.Metrics
	defaultPageSize int
}

// NewGroupHandler crea un nuevo GroupHandler. m puede ser nil.
func NewGroupHandler(service *application.GroupService, m *metrics.Metrics, defaultPageSize int) *GroupHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = sharedQuery.DefaultPageSize
	}
	return &GroupHandler{service: service, metrics: m, defaultPageSize: defaultPageSize}
}

// GroupResponse es la representación pública de un grupo.
type GroupResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

func toGroupResponse(g *groupDomain.Group) GroupResponse {
	return GroupResponse{
		ID:   g.ID,
		Name: g.Name,
		Type: g.Type,
		URL:  groupsPath + "/" + url.PathEscape(g.ID),
	}
}

// ---------------- Handlers ----------------

// ListGroups endpoint GET /identity/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	query := c.Request.URL.Query()

	start, err := intParam(query, "start", 0)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	size, err := intParam(query, "size", h.defaultPageSize)
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	// Solo cuenta el primer valor de cada clave; las desconocidas se ignoran después.
	filters := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	page, err := h.service.ListGroups(c.Request.Context(), filters,
		sharedQuery.PageRequest{Start: start, Size: size},
		sortSpec(query),
	)
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	data := make([]GroupResponse, 0, len(page.Data))
	for _, g := range page.Data {
		data = append(data, toGroupResponse(g))
	}

	h.metrics.Observe("list", metrics.OutcomeOK)
	h.metrics.ObservePageSize(page.Size)
	c.JSON(http.StatusOK, sharedQuery.Page[GroupResponse]{
		Data:  data,
		Total: page.Total,
		Start: page.Start,
		Sort:  page.Sort,
		Order: page.Order,
		Size:  page.Size,
	})
}

// CreateGroup endpoint POST /identity/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
		Type string  `json:"type"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "create", fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	var id string
	if req.ID != nil {
		id = *req.ID
	}

	group, err := h.service.CreateGroup(c.Request.Context(), id, req.Name, req.Type)
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	h.metrics.Observe("create", metrics.OutcomeOK)
	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// GetGroup endpoint GET /identity/groups/:groupId
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.service.GetGroup(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}

	h.metrics.Observe("get", metrics.OutcomeOK)
	c.JSON(http.StatusOK, toGroupResponse(group))
}

// AddMember endpoint POST /identity/groups/:groupId/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "add_member", fmt.Errorf("%w: %s", sharedDomain.ErrInvalidInput, err.Error()))
		return
	}

	groupID := c.Param("groupId")
	if err := h.service.AddMember(c.Request.Context(), groupID, req.UserID); err != nil {
		h.fail(c, "add_member", err)
		return
	}

	h.metrics.Observe("add_member", metrics.OutcomeOK)
	c.JSON(http.StatusCreated, gin.H{"userId": req.UserID, "groupId": groupID})
}

// RemoveMember endpoint DELETE /identity/groups/:groupId/members/:userId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.service.RemoveMember(c.Request.Context(), c.Param("groupId"), c.Param("userId")); err != nil {
		h.fail(c, "remove_member", err)
		return
	}

	h.metrics.Observe("remove_member", metrics.OutcomeOK)
	c.Status(http.StatusNoContent)
}

// ---------------- Helpers ----------------

// fail traduce la taxonomía de errores a estado HTTP. Los fallos del store no
// exponen el error interno.
func (h *GroupHandler) fail(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, sharedDomain.ErrInvalidInput):
		h.metrics.Observe(operation, metrics.OutcomeInvalid)
		utils.SendBadRequest(c, err.Error())
	case errors.Is(err, groupDomain.ErrGroupNotFound):
		h.metrics.Observe(operation, metrics.OutcomeNotFound)
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, groupDomain.ErrDuplicateIdentity):
		h.metrics.Observe(operation, metrics.OutcomeConflict)
		utils.SendConflict(c, err.Error())
	default:
		h.metrics.Observe(operation, metrics.OutcomeStoreFailed)
		utils.SendInternalServerError(c, "internal error")
	}
}

// sortSpec distingue "sort" ausente de "sort=" vacío: lo segundo no cae al
// orden por defecto.
func sortSpec(query url.Values) sharedQuery.SortSpec {
	_, set := query["sort"]
	return sharedQuery.SortSpec{
		Key:   query.Get("sort"),
		Set:   set,
		Order: sharedQuery.Direction(query.Get("order")),
	}
}

func intParam(query url.Values, key string, def int) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", sharedQuery.ErrInvalidPage, key)
	}
	return v, nil
}
