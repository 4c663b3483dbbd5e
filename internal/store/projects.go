package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Project struct {
	ID      int64
	Name    string
	Created time.Time
}

// CreateProject ensures a project exists, seeding its configuration table
// with the given values on first creation. Calling it again for an existing
// project returns the existing id and leaves its configuration alone.
func (s *Store) CreateProject(name string, config map[string]string) (int64, error) {
	if id, err := s.ProjectID(name); err == nil {
		return id, nil
	} else if err != sql.ErrNoRows {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO Project (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("inserting project %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting project %q: %w", name, err)
	}

	for cfg, value := range config {
		_, err := tx.Exec("INSERT INTO Config (project, name, value) VALUES (?, ?, ?)", id, cfg, value)
		if err != nil {
			return 0, fmt.Errorf("seeding config %s for %q: %w", cfg, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// ProjectID looks up a project by name. Returns sql.ErrNoRows if the
// project doesn't exist.
func (s *Store) ProjectID(name string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM Project WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("looking up project %q: %w", name, err)
	}
	return id, nil
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query("SELECT id, name, created FROM Project ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Created); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
