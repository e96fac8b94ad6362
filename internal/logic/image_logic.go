package logic

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/google/uuid"
)

// MaxImageSize 单张图片上限 5MB
const MaxImageSize int64 = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload 待上传的图片
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageLogic 活动封面图片上传
type ImageLogic struct {
	store     ObjectStore
	keyPrefix string
}

// NewImageLogic store 为 nil 时上传返回上游错误
func NewImageLogic(store ObjectStore, keyPrefix string) *ImageLogic {
	return &ImageLogic{store: store, keyPrefix: keyPrefix}
}

// Validate 本地校验类型与大小，不访问存储
func (l *ImageLogic) Validate(u Upload) error {
	if u.Body == nil {
		return apperr.ErrNoFile
	}
	if !allowedImageTypes[mediaType(u.ContentType)] {
		return apperr.ErrInvalidFileType
	}
	if u.Size > MaxImageSize {
		return apperr.ErrFileTooLarge
	}
	return nil
}

// Upload 校验通过后写入对象存储，返回公开地址
func (l *ImageLogic) Upload(ctx context.Context, u Upload) (string, error) {
	if err := l.Validate(u); err != nil {
		return "", err
	}
	if l.store == nil {
		return "", apperr.Upstream("Image storage is not configured", nil)
	}

	key := ObjectKey(l.keyPrefix, u.Filename)
	url, err := l.store.Put(ctx, key, mediaType(u.ContentType), u.Body, u.Size)
	if err != nil {
		return "", upstream("Failed to upload image", err)
	}
	logger.Info("Image uploaded: %s", key)
	return url, nil
}

// ObjectKey 生成唯一对象键，保留原文件扩展名
func ObjectKey(prefix, filename string) string {
	return prefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
