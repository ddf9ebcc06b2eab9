package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/tooljet-embed/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// Entry は1回のトークン発行リクエストの監査レコード。
type Entry struct {
	// ID はレコードの一意識別子（UUID）。Record時に空なら採番される。
	ID string `json:"id"`
	// RequestID はX-Request-IDの値。
	RequestID string `json:"request_id"`
	// Email はリクエストされたメールアドレス。
	Email string `json:"email"`
	// AppID はリクエストされたToolJetアプリのID。
	AppID string `json:"app_id"`
	// Outcome は処理結果（issued, denied など）。
	Outcome string `json:"outcome"`
	// StatusCode は呼び出し元に返したHTTPステータス。
	StatusCode int `json:"status_code"`
	// CreatedAt はレコードの作成日時（UTC）。
	CreatedAt time.Time `json:"created_at"`
}

// Recorder は監査レコードの保存と参照を行う。
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Nop は何も保存しないRecorder。
type Nop struct{}

// Record は何もしない。
func (Nop) Record(context.Context, Entry) error { return nil }

// List は常に空の一覧を返す。
func (Nop) List(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

// Close は何もしない。
func (Nop) Close() error { return nil }

// SQLiteStore はSQLiteに監査レコードを保存するRecorder。
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open はdsnのSQLiteデータベースを開き、スキーマを適用する。
// dsnにはファイルパスまたは ":memory:" を指定する。
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// SQLiteは書き込みが直列化されるため接続を1本に絞る
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("PRAGMAの設定に失敗: %w", err)
		}
	}
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Record は監査レコードを1件保存する。
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issuances (id, request_id, email, app_id, outcome, status_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.Email, e.AppID, e.Outcome, e.StatusCode, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("監査レコードの保存に失敗: %w", err)
	}
	return nil
}

// List は新しい順に最大limit件の監査レコードを返す。
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, email, app_id, outcome, status_code, created_at
		 FROM issuances ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("監査レコードの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Email, &e.AppID, &e.Outcome, &e.StatusCode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("監査レコードの読み取りに失敗: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ Recorder = Nop{}
	_ Recorder = (*SQLiteStore)(nil)
)
