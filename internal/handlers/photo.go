package handlers

import (
	"net/http"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PhotoHandler struct {
	photos *services.PhotoService
}

func NewPhotoHandler(photos *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

func (h *PhotoHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	photos, err := h.photos.ListPhotos(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("A file upload is required."))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	defer file.Close()

	photo, err := h.photos.UploadPhoto(
		c.Request.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid photo id."))
		return
	}

	if err := h.photos.DeletePhoto(c.Request.Context(), userID, photoID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
