package handler

import (
	"net/http"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	imageLogic *logic.ImageLogic
}

func NewImageHandler(imageLogic *logic.ImageLogic) *ImageHandler {
	return &ImageHandler{imageLogic: imageLogic}
}

// UploadImage 上传 bannerImage 字段中的图片
func (h *ImageHandler) UploadImage(c *gin.Context) {
	if !isMultipart(c) {
		Fail(c, apperr.ErrNoFile)
		return
	}
	upload, err := formUpload(c, "bannerImage")
	if err != nil {
		Fail(c, err)
		return
	}
	if upload == nil {
		Fail(c, apperr.ErrNoFile)
		return
	}
	defer closeUpload(upload)

	url, err := h.imageLogic.Upload(c.Request.Context(), *upload)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded successfully", "imageUrl": url})
}
