package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/api/http/middleware"
	"github.com/EternisAI/sketch-provisioner/internal/archives"
	"github.com/EternisAI/sketch-provisioner/internal/provisioning"
	"github.com/gin-gonic/gin"
)

type Provisioner interface {
	Provision(ctx context.Context, req provisioning.Request) (*provisioning.AssembledArchive, error)
	ListSketches() ([]string, error)
}

type ArchivePublisher interface {
	Publish(ctx context.Context, localPath, key, fileName string) (string, error)
}

type SketchHandler struct {
	provisioner Provisioner
	publisher   ArchivePublisher
}

// NewSketchHandler creates the handler; publisher may be nil, in which
// case generated links carry no download URL.
func NewSketchHandler(provisioner Provisioner, publisher ArchivePublisher) *SketchHandler {
	return &SketchHandler{
		provisioner: provisioner,
		publisher:   publisher,
	}
}

func (h *SketchHandler) ListSketches(c *gin.Context) {
	sketches, err := h.provisioner.ListSketches()
	if err != nil {
		writeError(c, err)
		return
	}
	if sketches == nil {
		sketches = []string{}
	}
	c.JSON(http.StatusOK, dto.ListSketchesResponse{Sketches: sketches})
}

func (h *SketchHandler) Download(c *gin.Context) {
	archive, err := h.provision(c)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("X-Device-ID", archive.DeviceID)
	c.FileAttachment(archive.Path, archive.FileName)
}

func (h *SketchHandler) GenerateLink(c *gin.Context) {
	archive, err := h.provision(c)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.GenerateLinkResponse{
		DeviceID: archive.DeviceID,
		FileName: archive.FileName,
	}
	if h.publisher != nil {
		url, err := h.publisher.Publish(c.Request.Context(), archive.Path, archive.DeviceID+"/"+archive.FileName, archive.FileName)
		switch {
		case err == nil:
			resp.DownloadURL = url
		case errors.Is(err, archives.ErrPublishDisabled):
		default:
			// the device exists now; hand out its ID even without a link
			slog.Error("Failed to publish archive", "device_id", archive.DeviceID, "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SketchHandler) provision(c *gin.Context) (*provisioning.AssembledArchive, error) {
	return h.provisioner.Provision(c.Request.Context(), provisioning.Request{
		Owner:         c.GetString(middleware.KeyUsername),
		DeviceName:    c.Query("name"),
		SketchVariant: c.Param("variant"),
	})
}
