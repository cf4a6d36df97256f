package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

func (s *Store) GetUser(find *model.FindUser) (*model.User, error) {
	if find.ID != nil {
		if cache, ok := s.UserCache.Load(*find.ID); ok {
			return cache.(*model.User), nil
		}
	}

	list, err := s.ListUsers(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	user := list[0]
	s.UserCache.Store(user.ID, user)
	return user, nil
}

func (s *Store) ListUsers(find *model.FindUser) ([]*model.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = ?"), append(args, *v)
	}
	if v := find.Role; v != nil {
		where, args = append(where, "role = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "email = ?"), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "row_status = ?"), append(args, *v)
	}

	orderBy := []string{"created_ts DESC"}
	if find.Random {
		orderBy = append([]string{"RANDOM()"}, orderBy...)
	}

	// password_hash comes back here, strip it before responding to clients.
	query := `
		SELECT
			id,
			username,
			role,
			email,
			nickname,
			password_hash,
			avatar_url,
			row_status,
			created_ts,
			updated_ts,
			last_login_ts
		FROM user
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.appDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Role,
			&user.Email,
			&user.Nickname,
			&user.PasswordHash,
			&user.AvatarURL,
			&user.RowStatus,
			&user.CreatedTs,
			&user.UpdatedTs,
			&user.LastLoginTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &user)
	}
	return list, rows.Err()
}

func (s *Store) CreateUser(create *model.User) (*model.User, error) {
	stmt := `
		INSERT INTO user (
			username,
			role,
			email,
			nickname,
			password_hash,
			avatar_url
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, username, role, email, nickname, password_hash, avatar_url, row_status, created_ts, updated_ts, last_login_ts`
	args := []any{
		create.Username,
		create.Role,
		create.Email,
		create.Nickname,
		create.PasswordHash,
		create.AvatarURL,
	}

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var user model.User
	if err := tx.QueryRow(stmt, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.RowStatus,
		&user.CreatedTs,
		&user.UpdatedTs,
		&user.LastLoginTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.UserCache.Store(user.ID, &user)
	return &user, nil
}

func (s *Store) TouchUserLastLogin(userID int32) error {
	stmt := `UPDATE user SET last_login_ts = ? WHERE id = ?`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	if _, err := s.appDb.Exec(stmt, time.Now().Unix(), userID); err != nil {
		return err
	}
	s.UserCache.Delete(userID)
	return nil
}
