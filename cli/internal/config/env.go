package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// SaveEnvValue sets key in the credential file at path (EnvFilePath when
// empty), keeping the other entries.
func SaveEnvValue(path, key, value string) error {
	if path == "" {
		var err error
		path, err = EnvFilePath()
		if err != nil {
			return err
		}
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		values = map[string]string{}
	} else if err != nil {
		return err
	}
	values[key] = value
	return godotenv.Write(values, path)
}
