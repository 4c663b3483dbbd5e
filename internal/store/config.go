package store

import "fmt"

// GetConfig returns a project's named configuration values.
func (s *Store) GetConfig(project int64) (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM Config WHERE project = ?", project)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, rows.Err()
}

func (s *Store) SetConfig(project int64, name, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO Config (project, name, value) VALUES (?, ?, ?)",
		project, name, value)
	if err != nil {
		return fmt.Errorf("setting config %s: %w", name, err)
	}
	return nil
}
