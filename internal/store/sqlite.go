package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no cgo needed

	"SellerWatch/internal/models"
)

var (
	// ErrSellerExists is returned when adding a (handle, kind) pair
	// that is already tracked.
	ErrSellerExists = errors.New("seller is already tracked for this kind")
	// ErrSellerNotFound is returned for lookups and removals of an
	// untracked (handle, kind) pair.
	ErrSellerNotFound = errors.New("seller is not tracked for this kind")
)

// SellerRepository wraps the sellers database. Every write is a
// single statement, which sqlite applies atomically, so a reader never
// observes a half-written record and a failed write leaves the
// previous durable state intact.
type SellerRepository struct {
	DB *sql.DB
}

// InitDB opens (or creates) the sellers database.
func InitDB(filepath string) *SellerRepository {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	if err = db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}

	createSellersTableSQL := `
	CREATE TABLE IF NOT EXISTS sellers (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"store_name" TEXT,
		"handle" TEXT NOT NULL,
		"kind" TEXT NOT NULL,
		"known_item_ids" TEXT DEFAULT '[]',
		"last_checked_at" DATETIME,
		"added_at" DATETIME,
		UNIQUE(handle, kind)
	);`

	if _, err = db.Exec(createSellersTableSQL); err != nil {
		log.Fatalf("Error creating sellers table: %v", err)
	}

	log.Println("Sellers database initialized successfully.")
	return &SellerRepository{DB: db}
}

// Close closes the database connection.
func (repo *SellerRepository) Close() {
	repo.DB.Close()
}

// Add inserts a new tracked seller. The (handle, kind) pair must be
// unique across the collection.
func (repo *SellerRepository) Add(seller models.TrackedSeller) error {
	query := `INSERT INTO sellers (store_name, handle, kind, known_item_ids, last_checked_at, added_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	known := seller.KnownItemIDs
	if known == nil {
		known = models.IDSet{}
	}
	_, err := repo.DB.Exec(query,
		seller.StoreName, seller.Handle, string(seller.Kind), known, seller.LastCheckedAt, seller.AddedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSellerExists
		}
		return fmt.Errorf("failed to insert seller %s: %w", seller.Handle, err)
	}
	return nil
}

// Remove deletes a tracked seller, reporting ErrSellerNotFound when
// no matching record exists.
func (repo *SellerRepository) Remove(handle string, kind models.MonitorKind) error {
	res, err := repo.DB.Exec(`DELETE FROM sellers WHERE handle = ? AND kind = ?`, handle, string(kind))
	if err != nil {
		return fmt.Errorf("failed to remove seller %s: %w", handle, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSellerNotFound
	}
	return nil
}

// Get returns one tracked seller by its identity pair.
func (repo *SellerRepository) Get(handle string, kind models.MonitorKind) (models.TrackedSeller, error) {
	row := repo.DB.QueryRow(`
		SELECT store_name, handle, kind, known_item_ids, last_checked_at, added_at
		FROM sellers WHERE handle = ? AND kind = ?`, handle, string(kind))

	seller, err := scanSeller(row)
	if errors.Is(err, sql.ErrNoRows) {
		return seller, ErrSellerNotFound
	}
	return seller, err
}

// GetAll loads the whole tracked-seller collection.
func (repo *SellerRepository) GetAll() ([]models.TrackedSeller, error) {
	return repo.query(`
		SELECT store_name, handle, kind, known_item_ids, last_checked_at, added_at
		FROM sellers ORDER BY added_at`)
}

// GetByKind loads the tracked sellers for one monitor kind.
func (repo *SellerRepository) GetByKind(kind models.MonitorKind) ([]models.TrackedSeller, error) {
	return repo.query(`
		SELECT store_name, handle, kind, known_item_ids, last_checked_at, added_at
		FROM sellers WHERE kind = ? ORDER BY added_at`, string(kind))
}

// Save writes a seller's crawl state (known ids and last-checked
// timestamp) back to the store. Last writer wins.
func (repo *SellerRepository) Save(seller models.TrackedSeller) error {
	res, err := repo.DB.Exec(`
		UPDATE sellers SET known_item_ids = ?, last_checked_at = ?
		WHERE handle = ? AND kind = ?`,
		seller.KnownItemIDs, seller.LastCheckedAt, seller.Handle, string(seller.Kind))
	if err != nil {
		return fmt.Errorf("failed to save seller %s: %w", seller.Handle, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSellerNotFound
	}
	return nil
}

func (repo *SellerRepository) query(q string, args ...interface{}) ([]models.TrackedSeller, error) {
	rows, err := repo.DB.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []models.TrackedSeller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			log.Printf("Error scanning seller row: %v", err)
			continue
		}
		sellers = append(sellers, seller)
	}
	return sellers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSeller(row rowScanner) (models.TrackedSeller, error) {
	var (
		seller      models.TrackedSeller
		kind        string
		lastChecked sql.NullTime
		addedAt     time.Time
	)
	err := row.Scan(&seller.StoreName, &seller.Handle, &kind, &seller.KnownItemIDs, &lastChecked, &addedAt)
	if err != nil {
		return seller, err
	}
	seller.Kind = models.MonitorKind(kind)
	seller.AddedAt = addedAt
	if lastChecked.Valid {
		t := lastChecked.Time
		seller.LastCheckedAt = &t
	}
	return seller, nil
}
