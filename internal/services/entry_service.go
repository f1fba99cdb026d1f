package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"daybook/internal/models"
	"daybook/internal/pdf"
	"daybook/internal/repositories"
)

// ErrEntryNotFound covers both "no such entry" and "owned by someone else";
// callers must not be able to tell the difference.
var ErrEntryNotFound = errors.New("entry not found")

const publicUploadPrefix = "/uploads/"

// EntryUpload is one incoming image file plus its placement on the page.
type EntryUpload struct {
	File   *multipart.FileHeader
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type EntryService interface {
	List(userID int) ([]*models.Entry, error)
	Create(userID int, entry *models.Entry, uploads []EntryUpload) (*models.Entry, error)
	Delete(userID int, entryID int64) error
	ExportPDF(userID int, entryID int64) ([]byte, string, error)
}

type entryService struct {
	repo      repositories.EntryRepository
	uploadDir string
	pdfGen    pdf.Generator
}

func NewEntryService(repo repositories.EntryRepository, uploadDir string, pdfGen pdf.Generator) EntryService {
	return &entryService{
		repo:      repo,
		uploadDir: filepath.Clean(uploadDir),
		pdfGen:    pdfGen,
	}
}

func (s *entryService) List(userID int) ([]*models.Entry, error) {
	return s.repo.ListByUser(userID)
}

// Create stores the uploaded files first, then writes the entry and its
// image rows in one transaction. If the transaction fails the saved files
// are removed again, so neither an orphaned entry nor orphaned files remain.
func (s *entryService) Create(userID int, entry *models.Entry, uploads []EntryUpload) (*models.Entry, error) {
	entry.UserID = userID
	entry.ApplyStyleDefaults(time.Now())

	var saved []string
	cleanup := func() {
		for _, p := range saved {
			if err := os.Remove(p); err != nil {
				log.Printf("[entries][create] cleanup failed for %s: %v", p, err)
			}
		}
	}

	entry.Images = entry.Images[:0]
	for i, up := range uploads {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(up.File.Filename))
		dst := filepath.Join(s.uploadDir, name)
		if err := saveUploadedFile(up.File, dst); err != nil {
			cleanup()
			return nil, fmt.Errorf("save image %d: %w", i, err)
		}
		saved = append(saved, dst)
		entry.Images = append(entry.Images, models.EntryImage{
			URL:    publicUploadPrefix + name,
			X:      up.X,
			Y:      up.Y,
			Width:  up.Width,
			Height: up.Height,
		})
	}

	if err := s.repo.Create(entry); err != nil {
		cleanup()
		return nil, err
	}

	log.Printf("[entries][create] userID=%d entryID=%d images=%d", userID, entry.ID, len(entry.Images))
	return entry, nil
}

// Delete removes the entry only when it belongs to userID; anything else is
// reported as ErrEntryNotFound. Stored files are unlinked best-effort after
// the rows are gone.
func (s *entryService) Delete(userID int, entryID int64) error {
	urls, found, err := s.repo.Delete(userID, entryID)
	if err != nil {
		return err
	}
	if !found {
		return ErrEntryNotFound
	}

	for _, u := range urls {
		name := strings.TrimPrefix(u, publicUploadPrefix)
		if name == "" || name == u {
			continue
		}
		p := filepath.Join(s.uploadDir, filepath.Base(name))
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("[entries][delete] file remove failed for %s: %v", p, err)
		}
	}

	log.Printf("[entries][delete] userID=%d entryID=%d", userID, entryID)
	return nil
}

func (s *entryService) ExportPDF(userID int, entryID int64) ([]byte, string, error) {
	entry, err := s.repo.GetByID(userID, entryID)
	if err != nil {
		return nil, "", err
	}
	if entry == nil {
		return nil, "", ErrEntryNotFound
	}

	data, err := s.pdfGen.GenerateEntry(pdf.EntryData{
		Title:      entry.Title,
		Author:     entry.Name,
		Body:       entry.Text,
		FontFamily: entry.FontFamily,
		FontStyle:  entry.FontStyle,
		FontWeight: entry.FontWeight,
		Date:       entry.Date,
	})
	if err != nil {
		return nil, "", fmt.Errorf("entry pdf: %w", err)
	}
	filename := fmt.Sprintf("entry_%d.pdf", entry.ID)
	return data, filename, nil
}

func saveUploadedFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
