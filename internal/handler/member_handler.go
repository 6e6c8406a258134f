package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/utils"
)

// MemberHandler handles member directory endpoints.
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// ListMembers handles GET /v1/members
func (h *MemberHandler) ListMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := &models.MemberFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	members, total, err := h.memberService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve members")
		return
	}

	utils.SuccessWithPagination(c, 200, "Members retrieved", members, filter.Page, filter.Limit, total)
}

// GetMember handles GET /v1/members/:member_id
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.memberService.Get(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve member")
		return
	}
	utils.Success(c, 200, "Member retrieved", member)
}

// CreateMember handles POST /v1/members
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var member models.Member
	if err := c.ShouldBindJSON(&member); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if err := h.memberService.Create(c.Request.Context(), &member); err != nil {
		respondError(c, err, "Failed to create member")
		return
	}
	utils.Success(c, 201, "Member created successfully", member)
}

// UpdateMember handles PUT /v1/members/:member_id. Fields absent from the
// body keep their stored values.
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	ctx := c.Request.Context()
	memberID := c.Param("member_id")

	member, err := h.memberService.Get(ctx, memberID)
	if err != nil {
		respondError(c, err, "Failed to retrieve member")
		return
	}
	if err := c.ShouldBindJSON(member); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if err := h.memberService.Update(ctx, memberID, member); err != nil {
		respondError(c, err, "Failed to update member")
		return
	}
	utils.Success(c, 200, "Member updated successfully", member)
}

// DeleteMember handles DELETE /v1/members/:member_id
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	if err := h.memberService.Delete(c.Request.Context(), c.Param("member_id")); err != nil {
		respondError(c, err, "Failed to delete member")
		return
	}
	utils.Success(c, 200, "Member deleted successfully", nil)
}

// UploadPhoto handles POST /v1/members/:member_id/photo with a multipart
// "photo" field. The content type is sniffed from the file itself.
func (h *MemberHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxPhotoSize+1<<20)

	fh, err := c.FormFile("photo")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "photo file is required")
		return
	}
	if fh.Size > service.MaxPhotoSize {
		utils.Error(c, 400, "FILE_TOO_LARGE", "Photo must be at most 5 MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Unable to read photo")
		return
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		utils.Error(c, 400, "INVALID_REQUEST", "Unable to read photo")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	url, err := h.memberService.UploadPhoto(c.Request.Context(), c.Param("member_id"), contentType,
		io.MultiReader(bytes.NewReader(head), f), fh.Size)
	if err != nil {
		respondError(c, err, "Failed to upload photo")
		return
	}
	utils.Success(c, 200, "Photo uploaded", gin.H{"profile_photo_url": url})
}
