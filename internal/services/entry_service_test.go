package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"daybook/internal/models"
	"daybook/internal/pdf"
)

type fakeEntryRepo struct {
	entries   map[int64]*models.Entry
	nextID    int64
	createErr error

	deleteURLs  []string
	deleteFound bool
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int64]*models.Entry)}
}

func (f *fakeEntryRepo) ListByUser(userID int) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) Create(entry *models.Entry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	entry.ID = f.nextID
	for i := range entry.Images {
		entry.Images[i].EntryID = entry.ID
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEntryRepo) GetByID(userID int, entryID int64) (*models.Entry, error) {
	e, ok := f.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return e, nil
}

func (f *fakeEntryRepo) Delete(userID int, entryID int64) ([]string, bool, error) {
	return f.deleteURLs, f.deleteFound, nil
}

type fakePDFGen struct{}

func (fakePDFGen) GenerateEntry(pdf.EntryData) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// makeFileHeader builds a real multipart.FileHeader the way gin would hand
// it to the handler.
func makeFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("images", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["images"]
	require.Len(t, files, 1)
	return files[0]
}

func TestEntryCreate_SavesFilesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	repo := newFakeEntryRepo()
	svc := NewEntryService(repo, dir, fakePDFGen{})

	uploads := []EntryUpload{
		{File: makeFileHeader(t, "one.png", "png-bytes"), X: 10, Y: 20, Width: 100, Height: 80},
		{File: makeFileHeader(t, "two.jpg", "jpg-bytes"), X: 30, Y: 40, Width: 50, Height: 60},
	}

	created, err := svc.Create(1, &models.Entry{Title: "First day"}, uploads)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// style defaults are server-filled
	require.Equal(t, models.DefaultFontFamily, created.FontFamily)
	require.Equal(t, models.DefaultColor, created.Color)
	require.False(t, created.Date.IsZero())

	require.Len(t, created.Images, 2)
	require.Equal(t, 10.0, created.Images[0].X)
	require.Equal(t, 60.0, created.Images[1].Height)
	for _, img := range created.Images {
		require.Equal(t, created.ID, img.EntryID)
		require.True(t, strings.HasPrefix(img.URL, "/uploads/"))
		onDisk := filepath.Join(dir, strings.TrimPrefix(img.URL, "/uploads/"))
		_, err := os.Stat(onDisk)
		require.NoError(t, err, "uploaded file must exist on disk")
	}
}

func TestEntryCreate_RepoFailureCleansFiles(t *testing.T) {
	dir := t.TempDir()
	repo := newFakeEntryRepo()
	repo.createErr = errors.New("db down")
	svc := NewEntryService(repo, dir, fakePDFGen{})

	uploads := []EntryUpload{{File: makeFileHeader(t, "one.png", "png-bytes")}}
	_, err := svc.Create(1, &models.Entry{Title: "First day"}, uploads)
	require.Error(t, err)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, left, "saved files must be removed when the transaction fails")
}

func TestEntryDelete_NotFound(t *testing.T) {
	repo := newFakeEntryRepo()
	repo.deleteFound = false
	svc := NewEntryService(repo, t.TempDir(), fakePDFGen{})

	err := svc.Delete(1, 99)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestEntryDelete_RemovesStoredFiles(t *testing.T) {
	dir := t.TempDir()
	name := "abc123.png"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644))

	repo := newFakeEntryRepo()
	repo.deleteFound = true
	repo.deleteURLs = []string{"/uploads/" + name}
	svc := NewEntryService(repo, dir, fakePDFGen{})

	require.NoError(t, svc.Delete(1, 10))

	_, err := os.Stat(filepath.Join(dir, name))
	require.True(t, os.IsNotExist(err), "stored file must be unlinked after delete")
}

func TestEntryExportPDF(t *testing.T) {
	repo := newFakeEntryRepo()
	svc := NewEntryService(repo, t.TempDir(), fakePDFGen{})

	entry := &models.Entry{UserID: 1, Title: "First day"}
	require.NoError(t, repo.Create(entry))

	data, filename, err := svc.ExportPDF(1, entry.ID)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	require.Contains(t, filename, ".pdf")

	// someone else's token must not reach the entry
	_, _, err = svc.ExportPDF(2, entry.ID)
	require.ErrorIs(t, err, ErrEntryNotFound)
}
