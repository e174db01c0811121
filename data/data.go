package data

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Save to disk
func Save(key, val string) error {
	dir := os.ExpandEnv("$HOME/.trusti")
	path := filepath.Join(dir, "data")
	file := filepath.Join(path, key)
	os.MkdirAll(filepath.Dir(file), 0700)
	os.WriteFile(file, []byte(val), 0644)
	return nil
}

// Load file from disk
func Load(key string) ([]byte, error) {
	dir := os.ExpandEnv("$HOME/.trusti")
	path := filepath.Join(dir, "data")
	file := filepath.Join(path, key)
	return os.ReadFile(file)
}

func SaveJSON(key string, val interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	dir := os.ExpandEnv("$HOME/.trusti")
	path := filepath.Join(dir, "data")
	file := filepath.Join(path, key)
	os.MkdirAll(filepath.Dir(file), 0700)
	os.WriteFile(file, b, 0644)

	return nil
}

func LoadJSON(key string, val interface{}) error {
	b, err := Load(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, val)
}
