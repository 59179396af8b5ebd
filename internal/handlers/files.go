package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
)

type FileHandler struct {
	log   *logger.Logger
	store storage.ObjectStore
}

func NewFileHandler(log *logger.Logger, store storage.ObjectStore) *FileHandler {
	return &FileHandler{log: log, store: store}
}

// Upload stores a multipart file under the given key; with no key the batch
// dataset location is used, which is how new datasets get published.
func (fh *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	key := c.PostForm("key")
	if key == "" {
		key = services.DefaultBatchObjectKey
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := fh.store.Put(c.Request.Context(), key, data, contentType); err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	fh.log.Info("Object uploaded", "key", key, "size", len(data))
	RespondOK(c, gin.H{"key": key, "size": len(data)})
}

func (fh *FileHandler) List(c *gin.Context) {
	prefix := c.Query("prefix")
	objects, err := fh.store.List(c.Request.Context(), prefix)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, gin.H{"prefix": prefix, "objects": objects, "count": len(objects)})
}

func (fh *FileHandler) Download(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("key is required"))
		return
	}

	info, err := fh.store.Stat(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			RespondError(c, http.StatusNotFound, "object_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}

	data, err := fh.store.Get(c.Request.Context(), key)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
