package store

import (
	"github.com/yomuhub/yomu/model"
)

func (s *Store) AddJob(job model.Job) (*model.Job, error) {
	stmt := `
		INSERT INTO job (user_id, path, type, status, detail)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, user_id, path, type, status, detail, created_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var j model.Job
	if err := tx.QueryRow(stmt, job.UserID, job.Path, job.Type, job.Status, job.Detail).Scan(
		&j.ID, &j.UserID, &j.Path, &j.Type, &j.Status, &j.Detail, &j.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &j, nil
}

func (s *Store) SetJobStatus(jobID int64, status, detail string) error {
	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()

	_, err := s.appDb.Exec(`UPDATE job SET status = ?, detail = ? WHERE id = ?`, status, detail, jobID)
	return err
}

func (s *Store) ListJobs(userID int32, limit int) ([]*model.Job, error) {
	query := `
		SELECT id, user_id, path, type, status, detail, created_ts
		FROM job
		WHERE user_id = ?
		ORDER BY created_ts DESC
		LIMIT ?`

	rows, err := s.appDb.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Job, 0)
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(&j.ID, &j.UserID, &j.Path, &j.Type, &j.Status, &j.Detail, &j.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}
