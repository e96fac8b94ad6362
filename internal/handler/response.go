package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/gin-gonic/gin"
)

// Fail 将业务错误转换为 JSON 响应，非 release 模式下附带原始错误
func Fail(c *gin.Context, err error) {
	e := apperr.From(err)
	body := gin.H{"message": e.Message, "code": e.Code}
	if e.Err != nil && gin.Mode() != gin.ReleaseMode {
		body["error"] = e.Err.Error()
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}

// Message 只包含提示信息的成功响应
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// bindJSON 解析请求体，失败时以 message 作为 400 提示
func bindJSON(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Fail(c, bindError(err, message))
		return false
	}
	return true
}

func bindError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.ErrFileTooLarge
	}
	return apperr.Validation(message).Wrap(err)
}

// formUpload 读取 multipart 文件字段，字段不存在时返回 nil
func formUpload(c *gin.Context, field string) (*logic.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	} else if err != nil {
		return nil, bindError(err, "Invalid multipart form")
	}
	f, err := header.Open()
	if err != nil {
		return nil, apperr.Upstream("Failed to read uploaded file", err)
	}
	return &logic.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, nil
}

func closeUpload(u *logic.Upload) {
	if u == nil {
		return
	}
	if closer, ok := u.Body.(io.Closer); ok {
		closer.Close()
	}
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}
