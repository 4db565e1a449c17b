package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, freet_id, author_id, parent_id, content, is_private, created_at, modified_at`

// PostgresCommentStore persists comments in Postgres. Rows are ordered by
// the seq column, which records insertion order.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

func (s *PostgresCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ModifiedAt.IsZero() {
		c.ModifiedAt = c.CreatedAt
	}
	const q = `INSERT INTO comments (` + commentColumns + `)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	           RETURNING ` + commentColumns
	row := s.pool.QueryRow(ctx, q, c.ID, c.PostID, c.AuthorID, c.ParentID,
		c.Content, c.IsPrivate, c.CreatedAt, c.ModifiedAt)
	out, err := scanComment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Comment{}, ErrDuplicate
		}
		return Comment{}, err
	}
	return out, nil
}

func (s *PostgresCommentStore) GetByID(ctx context.Context, id string) (Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) ListByParentPost(ctx context.Context, postID string, parentID *string, v Visibility) ([]Comment, error) {
	where := []string{"freet_id = $1"}
	args := []any{postID}
	if parentID == nil {
		where = append(where, "parent_id IS NULL")
	} else {
		args = append(args, *parentID)
		where = append(where, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	where, args = visibilityClause(where, args, v)
	return s.query(ctx, where, args)
}

func (s *PostgresCommentStore) ListByParentComment(ctx context.Context, commentID string, v Visibility) ([]Comment, error) {
	where, args := visibilityClause([]string{"parent_id = $1"}, []any{commentID}, v)
	return s.query(ctx, where, args)
}

func (s *PostgresCommentStore) ListByPost(ctx context.Context, postID string) ([]Comment, error) {
	return s.query(ctx, []string{"freet_id = $1"}, []any{postID})
}

func visibilityClause(where []string, args []any, v Visibility) ([]string, []any) {
	if v == VisibilityAny {
		return where, args
	}
	args = append(args, v == VisibilityPrivate)
	return append(where, fmt.Sprintf("is_private = $%d", len(args))), args
}

func (s *PostgresCommentStore) query(ctx context.Context, where []string, args []any) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY seq ASC`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) UpdateContent(ctx context.Context, id, content string, modifiedAt time.Time) (Comment, error) {
	const q = `UPDATE comments SET content = $2, modified_at = $3
	           WHERE id = $1
	           RETURNING ` + commentColumns
	c, err := scanComment(s.pool.QueryRow(ctx, q, id, content, modifiedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID,
		&c.Content, &c.IsPrivate, &c.CreatedAt, &c.ModifiedAt)
	if err != nil {
		return Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.ModifiedAt = c.ModifiedAt.UTC()
	return c, nil
}
