package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/Analyst/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_subscribers (
			user_id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// Subscribe registers a chat for signal broadcasts. Subscribing twice just
// refreshes the chat id.
func (db *DB) Subscribe(userID, chatID int64) error {
	_, err := db.Exec(`
		INSERT INTO signal_subscribers (user_id, chat_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET chat_id = EXCLUDED.chat_id
	`, userID, chatID, time.Now())
	return err
}

// Unsubscribe removes a chat from signal broadcasts.
func (db *DB) Unsubscribe(userID int64) error {
	_, err := db.Exec(`DELETE FROM signal_subscribers WHERE user_id = $1`, userID)
	return err
}

// ListSubscribers returns every registered subscriber.
func (db *DB) ListSubscribers() ([]models.SignalSubscriber, error) {
	rows, err := db.Query(`SELECT user_id, chat_id FROM signal_subscribers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.SignalSubscriber
	for rows.Next() {
		var sub models.SignalSubscriber
		if err := rows.Scan(&sub.UserID, &sub.ChatID); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
