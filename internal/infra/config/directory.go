// internal/infra/config/directory.go
package config

import (
	"fmt"
	"os"

	"sheet_reminder_bot/internal/domain/identity"

	yaml "go.yaml.in/yaml/v3"
)

// directoryFile is the on-disk shape of the identity directory:
//
//	users:
//	  CF: U01ABCDEF
//	broadcast_only:
//	  MS: U04MSMSMS
//	ignored: [AH, CC]
type directoryFile struct {
	Users         map[string]string `yaml:"users"`
	BroadcastOnly map[string]string `yaml:"broadcast_only"`
	Ignored       []string          `yaml:"ignored"`
}

// LoadDirectory reads the identity directory from a YAML file. extraIgnored is
// merged into the file's ignored list.
func LoadDirectory(path string, extraIgnored []string) (*identity.Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	return ParseDirectory(data, extraIgnored)
}

func ParseDirectory(data []byte, extraIgnored []string) (*identity.Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if len(f.Users) == 0 && len(f.BroadcastOnly) == 0 {
		return nil, fmt.Errorf("directory has no users")
	}
	ignored := append(append([]string{}, f.Ignored...), extraIgnored...)
	return identity.NewDirectory(f.Users, f.BroadcastOnly, ignored), nil
}
