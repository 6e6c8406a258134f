package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/utils"
)

// SubRecordHandler serves CRUD endpoints for one per-member record kind under
// /v1/members/:member_id/<kind>.
type SubRecordHandler[T any, P interface {
	*T
	models.SubRecord
}] struct {
	kind    string
	service *service.SubRecordService[T, P]
}

// NewSubRecordHandler constructs a SubRecordHandler. kind is the URL segment
// and is used in response messages.
func NewSubRecordHandler[T any, P interface {
	*T
	models.SubRecord
}](kind string, svc *service.SubRecordService[T, P]) *SubRecordHandler[T, P] {
	return &SubRecordHandler[T, P]{kind: kind, service: svc}
}

// Kind returns the URL segment of the record kind.
func (h *SubRecordHandler[T, P]) Kind() string {
	return h.kind
}

// List handles GET /v1/members/:member_id/<kind>
func (h *SubRecordHandler[T, P]) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve "+h.kind)
		return
	}
	utils.Success(c, 200, "Records retrieved", records)
}

// Get handles GET /v1/members/:member_id/<kind>/:record_id
func (h *SubRecordHandler[T, P]) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("member_id"), c.Param("record_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve "+h.kind)
		return
	}
	utils.Success(c, 200, "Record retrieved", rec)
}

// Create handles POST /v1/members/:member_id/<kind>
func (h *SubRecordHandler[T, P]) Create(c *gin.Context) {
	rec := new(T)
	if err := c.ShouldBindJSON(rec); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), c.Param("member_id"), rec); err != nil {
		respondError(c, err, "Failed to create "+h.kind)
		return
	}
	utils.Success(c, 201, "Record created successfully", rec)
}

// Update handles PUT /v1/members/:member_id/<kind>/:record_id. Fields absent
// from the body keep their stored values.
func (h *SubRecordHandler[T, P]) Update(c *gin.Context) {
	ctx := c.Request.Context()
	memberID, recordID := c.Param("member_id"), c.Param("record_id")

	rec, err := h.service.Get(ctx, memberID, recordID)
	if err != nil {
		respondError(c, err, "Failed to retrieve "+h.kind)
		return
	}
	if err := c.ShouldBindJSON(rec); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if err := h.service.Update(ctx, memberID, recordID, rec); err != nil {
		respondError(c, err, "Failed to update "+h.kind)
		return
	}
	utils.Success(c, 200, "Record updated successfully", rec)
}

// Delete handles DELETE /v1/members/:member_id/<kind>/:record_id
func (h *SubRecordHandler[T, P]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("member_id"), c.Param("record_id")); err != nil {
		respondError(c, err, "Failed to delete "+h.kind)
		return
	}
	utils.Success(c, 200, "Record deleted successfully", nil)
}

// Register mounts the handler's routes on members, a group rooted at
// /members/:member_id.
func (h *SubRecordHandler[T, P]) Register(members gin.IRoutes) {
	base := "/" + h.kind
	members.GET(base, h.List)
	members.POST(base, h.Create)
	members.GET(base+"/:record_id", h.Get)
	members.PUT(base+"/:record_id", h.Update)
	members.DELETE(base+"/:record_id", h.Delete)
}
