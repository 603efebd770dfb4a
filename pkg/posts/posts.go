// Package posts stores the protected resources: posts whose content is
// withheld until the payment gate grants a session. The gate treats
// this store as read-only; writes happen only through the authoring
// API.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports that no post exists with the given id.
var ErrNotFound = errors.New("posts: not found")

// Post is a single piece of content. PaymentAmount is the
// human-entered decimal price ("0.10"); the conversion to asset base
// units happens once, at requirement derivation.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	WalletAddress   string    `json:"walletAddress,omitempty"`
	Signature       string    `json:"signature,omitempty"`
	Message         string    `json:"message,omitempty"`
	PaymentAmount   string    `json:"paymentAmount,omitempty"`
	PaymentCurrency string    `json:"paymentCurrency,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Protected reports whether the post requires payment. Posts without
// an amount or a receiving wallet are public.
func (p *Post) Protected() bool {
	return p != nil && p.PaymentAmount != "" && p.WalletAddress != ""
}

// Store is the post lookup collaborator used by the gate and the API.
type Store interface {
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	CreatePost(ctx context.Context, post *Post) error
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	wallet_address TEXT NOT NULL DEFAULT '',
	signature TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	payment_amount TEXT NOT NULL DEFAULT '',
	payment_currency TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
`

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an existing database handle. The caller owns the
// handle's lifecycle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Open opens (and migrates) a SQLite database at path.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open posts db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate posts db: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

const postColumns = `id, title, content, wallet_address, signature, message, payment_amount, payment_currency, created_at`

// GetPost implements Store.
func (s *SQLStore) GetPost(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return post, nil
}

// ListPosts implements Store, newest first.
func (s *SQLStore) ListPosts(ctx context.Context) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var result []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return result, nil
}

// CreatePost implements Store.
func (s *SQLStore) CreatePost(ctx context.Context, post *Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Content, post.WalletAddress,
		post.Signature, post.Message, post.PaymentAmount,
		post.PaymentCurrency, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post %s: %w", post.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Content,
		&post.WalletAddress, &post.Signature, &post.Message,
		&post.PaymentAmount, &post.PaymentCurrency, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

var _ Store = (*SQLStore)(nil)
