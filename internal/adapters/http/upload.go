package http

import (
	"bufio"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/app"
	"github.com/ekaraca/watchtogether/internal/storage"
)

// allowedTypes is sniffed from content, not trusted from the client.
var allowedTypes = []string{
	"video/mp4",
	"video/x-msvideo",
	"video/x-matroska",
	"video/webm",
}

const copyBufSize = 512 * 1024

type UploadHandler struct {
	Orch           *app.Orchestrator
	Store          *storage.Store
	MaxUploadBytes int64
}

// HandleUpload streams a multipart video to disk under single-flight
// admission. The disk work runs on this goroutine; every state change
// goes through the orchestrator so other participants never stall.
func (h *UploadHandler) HandleUpload(c *gin.Context) {
	expected := c.Request.ContentLength
	if expected <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "content length required"})
		return
	}

	existingTotal, err := h.Store.TotalSize()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("quota scan")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "storage scan failed"})
		return
	}

	part, err := videoPart(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please provide a valid video file"})
		return
	}
	defer part.Close()

	br := bufio.NewReaderSize(part, 4096)
	head, _ := br.Peek(3072)
	mt := mimetype.Detect(head)
	if !isAllowed(mt) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported video format, expected mp4, avi, mkv or webm"})
		return
	}

	target, err := h.Orch.AdmitUpload(expected, existingTotal, part.FileName())
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUploadConflict):
			c.JSON(http.StatusConflict, gin.H{"message": "another upload is already in progress"})
		case errors.Is(err, app.ErrQuotaExceeded), errors.Is(err, app.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "upload admission failed"})
		}
		return
	}

	f, err := h.Store.Create(target)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("target", target).Msg("create upload target")
		h.Orch.FinishUpload("", false)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not store video"})
		return
	}

	written, copyErr := h.copyWithProgress(f, br)
	closeErr := f.Close()

	if copyErr != nil || closeErr != nil {
		// Failed or aborted transfers never leave a partial file behind,
		// and upload-end still goes out so no client stays stuck.
		if err := h.Store.Delete(target); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("module", "adapters.http").Str("target", target).Msg("remove partial upload")
		}
		h.Orch.FinishUpload("", false)
		if errors.Is(copyErr, errTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file size limit exceeded"})
			return
		}
		log.Error().Err(copyErr).Str("module", "adapters.http").Str("target", target).Int64("written", written).Msg("upload failed")
		c.JSON(http.StatusBadRequest, gin.H{"message": "upload failed"})
		return
	}

	h.Orch.FinishUpload(target, true)
	c.JSON(http.StatusOK, gin.H{"message": "upload complete", "filename": target})
}

var errTooLarge = errors.New("file size limit exceeded")

func (h *UploadHandler) copyWithProgress(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if h.MaxUploadBytes > 0 && written > h.MaxUploadBytes {
				return written, errTooLarge
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			h.Orch.UploadProgress(written)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func videoPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "video" {
			return part, nil
		}
		_ = part.Close()
	}
}

func isAllowed(mt *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// HandleDelete removes a stored asset and announces it to the session.
// The file an in-flight upload is writing to cannot be deleted; the
// transfer would otherwise finish into an unlinked file.
func (h *UploadHandler) HandleDelete(c *gin.Context) {
	name := c.Param("filename")
	if target, ok := h.Orch.UploadTarget(); ok && target == name {
		c.JSON(http.StatusConflict, gin.H{"message": "file is currently being uploaded"})
		return
	}
	if err := h.Store.Delete(name); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
		case errors.Is(err, storage.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid filename"})
		default:
			log.Error().Err(err).Str("module", "adapters.http").Str("filename", name).Msg("delete asset")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete file"})
		}
		return
	}
	h.Orch.AnnounceAssetDeleted(name)
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

// HandleList reports the stored assets as JSON records.
func (h *UploadHandler) HandleList(c *gin.Context) {
	records, err := h.Store.List()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list assets")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not list assets"})
		return
	}
	c.JSON(http.StatusOK, records)
}
