package sqlstore

import (
	"context"
	"strings"

	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
)

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const userColumns = "id, username, fullname, profile_pic, password, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Fullname, &u.ProfilePic, &u.Password, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	query := s.rebind("INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Fullname, user.ProfilePic, user.Password, user.CreatedAt.UTC())
	return translate(err)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE username = ?")
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	return user, translate(err)
}

func (s *SQLStore) GetUserByID(ctx context.Context, id objectid.ID) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	return user, translate(err)
}

func (s *SQLStore) GetUsersByIDs(ctx context.Context, ids []objectid.ID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id IN (" + placeholders(len(ids)) + ")")
	return s.queryUsers(ctx, query, args...)
}

func (s *SQLStore) SearchUsers(ctx context.Context, queryStr string) ([]models.User, error) {
	query := s.rebind("SELECT " + userColumns + ` FROM users WHERE username LIKE ? ESCAPE '\' ORDER BY username LIMIT 10`)
	return s.queryUsers(ctx, query, likeEscaper.Replace(queryStr)+"%")
}

func (s *SQLStore) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
