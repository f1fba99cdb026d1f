package repositories

import (
	"database/sql"
	"fmt"

	"daybook/internal/models"
)

type EntryRepository interface {
	ListByUser(userID int) ([]*models.Entry, error)
	Create(entry *models.Entry) error
	GetByID(userID int, entryID int64) (*models.Entry, error)
	Delete(userID int, entryID int64) (imageURLs []string, found bool, err error)
}

type entryRepository struct {
	DB *sql.DB
}

func NewEntryRepository(db *sql.DB) EntryRepository {
	return &entryRepository{DB: db}
}

const entryColumns = `
	id, user_id, title, author_name, body_text,
	font_family, font_size, font_weight, font_style, color,
	display_date, created_at
`

func scanEntry(row interface{ Scan(...interface{}) error }) (*models.Entry, error) {
	e := &models.Entry{Images: []models.EntryImage{}}
	err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Name, &e.Text,
		&e.FontFamily, &e.FontSize, &e.FontWeight, &e.FontStyle, &e.Color,
		&e.Date, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByUser returns the user's entries newest first, with images attached
// in insertion order. Ownership scoping happens here: nothing outside the
// WHERE user_id filter is ever loaded.
func (r *entryRepository) ListByUser(userID int) ([]*models.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("entry list: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	byID := make(map[int64]*models.Entry)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("entry list scan: %w", err)
		}
		entries = append(entries, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entry list rows: %w", err)
	}
	if len(entries) == 0 {
		return []*models.Entry{}, nil
	}

	const iq = `
		SELECT i.id, i.entry_id, i.url, i.x, i.y, i.width, i.height
		FROM entry_images i
		JOIN entries e ON e.id = i.entry_id
		WHERE e.user_id = $1
		ORDER BY i.entry_id, i.id
	`
	irows, err := r.DB.Query(iq, userID)
	if err != nil {
		return nil, fmt.Errorf("entry images list: %w", err)
	}
	defer irows.Close()
	for irows.Next() {
		var img models.EntryImage
		if err := irows.Scan(&img.ID, &img.EntryID, &img.URL, &img.X, &img.Y, &img.Width, &img.Height); err != nil {
			return nil, fmt.Errorf("entry images scan: %w", err)
		}
		if e, ok := byID[img.EntryID]; ok {
			e.Images = append(e.Images, img)
		}
	}
	if err := irows.Err(); err != nil {
		return nil, fmt.Errorf("entry images rows: %w", err)
	}
	return entries, nil
}

// Create persists the entry and all its image rows in one transaction: if
// any image insert fails nothing is committed, so no orphaned entry can be
// left behind.
func (r *entryRepository) Create(entry *models.Entry) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("entry create begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO entries (
			user_id, title, author_name, body_text,
			font_family, font_size, font_weight, font_style, color,
			display_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`
	err = tx.QueryRow(q,
		entry.UserID, entry.Title, entry.Name, entry.Text,
		entry.FontFamily, entry.FontSize, entry.FontWeight, entry.FontStyle, entry.Color,
		entry.Date,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("entry insert: %w", err)
	}

	const iq = `
		INSERT INTO entry_images (entry_id, url, x, y, width, height)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`
	for i := range entry.Images {
		img := &entry.Images[i]
		img.EntryID = entry.ID
		if err := tx.QueryRow(iq, entry.ID, img.URL, img.X, img.Y, img.Width, img.Height).Scan(&img.ID); err != nil {
			return fmt.Errorf("entry image insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("entry create commit: %w", err)
	}
	return nil
}

func (r *entryRepository) GetByID(userID int, entryID int64) (*models.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND user_id = $2`
	e, err := scanEntry(r.DB.QueryRow(q, entryID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("entry get: %w", err)
	}

	const iq = `
		SELECT id, entry_id, url, x, y, width, height
		FROM entry_images
		WHERE entry_id = $1
		ORDER BY id
	`
	rows, err := r.DB.Query(iq, entryID)
	if err != nil {
		return nil, fmt.Errorf("entry get images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img models.EntryImage
		if err := rows.Scan(&img.ID, &img.EntryID, &img.URL, &img.X, &img.Y, &img.Width, &img.Height); err != nil {
			return nil, fmt.Errorf("entry get images scan: %w", err)
		}
		e.Images = append(e.Images, img)
	}
	return e, rows.Err()
}

// Delete removes the entry and its image rows only when it belongs to
// userID. found=false when no such owned entry exists; callers report that
// as not-found instead of pretending success. Returns the stored image URLs
// so the caller can unlink the files after commit.
func (r *entryRepository) Delete(userID int, entryID int64) ([]string, bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("entry delete begin: %w", err)
	}
	defer tx.Rollback()

	var urls []string
	rows, err := tx.Query(`
		SELECT i.url
		FROM entry_images i
		JOIN entries e ON e.id = i.entry_id
		WHERE i.entry_id = $1 AND e.user_id = $2
		ORDER BY i.id
	`, entryID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("entry delete urls: %w", err)
	}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("entry delete urls scan: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, false, fmt.Errorf("entry delete urls rows: %w", err)
	}
	rows.Close()

	if _, err := tx.Exec(`
		DELETE FROM entry_images
		WHERE entry_id = $1
		  AND entry_id IN (SELECT id FROM entries WHERE id = $1 AND user_id = $2)
	`, entryID, userID); err != nil {
		return nil, false, fmt.Errorf("entry delete images: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("entry delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("entry delete rows: %w", err)
	}
	if n == 0 {
		// absent or owned by someone else; indistinguishable on purpose
		return nil, false, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("entry delete commit: %w", err)
	}
	return urls, true, nil
}
