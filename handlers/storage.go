package handlers

import (
	"net/http"

	"camionback/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorageHandler accepts multipart uploads (receipts, truck and cargo photos).
type StorageHandler struct {
	StorageSvc storage.StorageService
}

// allowedFolders defines permitted destination folders.
var allowedFolders = map[string]bool{
	"receipts": true,
	"trucks":   true,
	"cargo":    true,
	"stories":  true,
}

func (h *StorageHandler) Upload(c *gin.Context) {
	folder := c.DefaultPostForm("folder", "cargo")
	if !allowedFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder; allowed values are receipts, trucks, cargo and stories"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file not provided"})
		return
	}
	if fileHeader.Size > storage.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	url, err := h.StorageSvc.Upload(c.Request.Context(), f, fileHeader.Filename, folder)
	if err != nil {
		getLogger(c).Error("upload failed", zap.String("folder", folder), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
