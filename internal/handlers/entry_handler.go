package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"daybook/internal/models"
	"daybook/internal/services"
)

const (
	maxImagesPerEntry = 10
	maxImageSize      = 5 << 20 // 5MB
)

type EntryHandler struct {
	service services.EntryService
}

func NewEntryHandler(service services.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

// @Summary      List journal entries
// @Description  Returns the caller's entries, newest first, with images
// @Tags         Entries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Entry
// @Failure      401  {object}  map[string]string
// @Router       /entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entries, err := h.service.List(userID)
	if err != nil {
		log.Printf("[entries][list] userID=%d failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// imagePosition mirrors the client's placement payload, one element per
// uploaded file in upload order.
type imagePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// @Summary      Create a journal entry
// @Description  Multipart form: title, name, text, fontFamily, fontSize, fontWeight, fontStyle, color, date, positions (JSON), images[] (max 10, 5MB each)
// @Tags         Entries
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  models.Entry
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}

	entry := &models.Entry{
		Title:      c.PostForm("title"),
		Name:       c.PostForm("name"),
		Text:       c.PostForm("text"),
		FontFamily: c.PostForm("fontFamily"),
		FontSize:   c.PostForm("fontSize"),
		FontWeight: c.PostForm("fontWeight"),
		FontStyle:  c.PostForm("fontStyle"),
		Color:      c.PostForm("color"),
	}
	if strings.TrimSpace(entry.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if d := c.PostForm("date"); d != "" {
		parsed, err := parseDate(d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		entry.Date = parsed
	}

	files := form.File["images"]
	if len(files) > maxImagesPerEntry {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d images per entry", maxImagesPerEntry)})
		return
	}

	var positions []imagePosition
	if p := c.PostForm("positions"); p != "" {
		if err := json.Unmarshal([]byte(p), &positions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid positions payload"})
			return
		}
	}

	uploads := make([]services.EntryUpload, 0, len(files))
	for i, fh := range files {
		if fh.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image %q exceeds 5MB", fh.Filename)})
			return
		}
		if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file %q is not an image", fh.Filename)})
			return
		}
		up := services.EntryUpload{File: fh}
		if i < len(positions) {
			up.X = positions[i].X
			up.Y = positions[i].Y
			up.Width = positions[i].Width
			up.Height = positions[i].Height
		}
		uploads = append(uploads, up)
	}

	created, err := h.service.Create(userID, entry, uploads)
	if err != nil {
		log.Printf("[entries][create] userID=%d failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create entry"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Delete a journal entry
// @Description  Deletes only when the entry belongs to the caller; otherwise 404
// @Tags         Entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Entry ID"
// @Success      200  {object}  map[string]int
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /entries/{id} [delete]
func (h *EntryHandler) Delete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(userID, id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		log.Printf("[entries][delete] userID=%d entryID=%d failed: %v", userID, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedID": id})
}

// @Summary      Export an entry as PDF
// @Tags         Entries
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  int  true  "Entry ID"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /entries/{id}/pdf [get]
func (h *EntryHandler) ExportPDF(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	data, filename, err := h.service.ExportPDF(userID, id)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		log.Printf("[entries][pdf] userID=%d entryID=%d failed: %v", userID, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export entry"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
