package store

import (
	"gopkg.in/yaml.v3"
)

// SeenUserYAML is one exported audit row.
type SeenUserYAML struct {
	Username   string `yaml:"username"`
	FirstSeen  string `yaml:"first_seen"`
	LastSeen   string `yaml:"last_seen"`
	LoginCount int    `yaml:"login_count"`
}

// SeenExport is the top-level YAML document for the audit export.
type SeenExport struct {
	Users []SeenUserYAML `yaml:"users"`
}

// ExportSeenYAML exports the username audit as YAML.
func (s *Store) ExportSeenYAML() ([]byte, error) {
	users, err := s.ListSeen()
	if err != nil {
		return nil, err
	}

	export := SeenExport{}
	for _, u := range users {
		export.Users = append(export.Users, SeenUserYAML{
			Username:   u.Username,
			FirstSeen:  u.FirstSeen.Format("2006-01-02T15:04:05Z"),
			LastSeen:   u.LastSeen.Format("2006-01-02T15:04:05Z"),
			LoginCount: u.LoginCount,
		})
	}
	return yaml.Marshal(&export)
}
