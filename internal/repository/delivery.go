package repository

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DeliveryRecord represents a processed webhook delivery in the database
type DeliveryRecord struct {
	ID         int64     `json:"id"`
	MessageID  string    `json:"message_id"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"received_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeliveryRepository tracks processed message IDs so that provider redeliveries
// of the same event are acknowledged without re-triggering automation
type DeliveryRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(dbPath string, ttl time.Duration) (*DeliveryRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			sender TEXT NOT NULL,
			received_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_message_id ON deliveries(message_id);
		CREATE INDEX IF NOT EXISTS idx_expires_at ON deliveries(expires_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DeliveryRepository{db: db, ttl: ttl}, nil
}

// Close closes database connection
func (r *DeliveryRepository) Close() error {
	return r.db.Close()
}

// MarkSeen records a message ID and reports whether it was already recorded
// and not yet expired. An expired record is replaced and reported unseen.
func (r *DeliveryRepository) MarkSeen(messageID, sender string) (bool, error) {
	existing, err := r.getByMessageID(messageID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, nil
	}

	now := time.Now()
	_, err = r.db.Exec(`
		INSERT INTO deliveries (message_id, sender, received_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			sender = excluded.sender,
			received_at = excluded.received_at,
			expires_at = excluded.expires_at
	`, messageID, sender, now, now.Add(r.ttl))
	if err != nil {
		return false, err
	}
	return false, nil
}

// getByMessageID gets a delivery record by message ID (only non-expired)
func (r *DeliveryRepository) getByMessageID(messageID string) (*DeliveryRecord, error) {
	var record DeliveryRecord
	err := r.db.QueryRow(`
		SELECT id, message_id, sender, received_at, expires_at, created_at
		FROM deliveries
		WHERE message_id = ? AND expires_at > ?
		LIMIT 1
	`, messageID, time.Now()).Scan(
		&record.ID,
		&record.MessageID,
		&record.Sender,
		&record.ReceivedAt,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CleanupExpired removes expired delivery records
func (r *DeliveryRepository) CleanupExpired() (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM deliveries WHERE expires_at <= ?
	`, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns total active (non-expired) delivery records
func (r *DeliveryRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM deliveries WHERE expires_at > ?
	`, time.Now()).Scan(&count)
	return count, err
}
