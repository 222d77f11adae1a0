package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Name     string `yaml:"name"`
		Password string `yaml:"password"`
		Admin    bool   `yaml:"admin"`
	} `yaml:"users"`
}

// SeedFromFile applies a YAML users file at startup. This is the only way an
// account gets the admin flag: no endpoint ever sets it. Existing emails are
// left untouched, so the seed is safe to re-apply on every boot.
func SeedFromFile(ctx context.Context, store Store, hasher *Hasher, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, entry := range sf.Users {
		if strings.TrimSpace(entry.Email) == "" || entry.Password == "" {
			continue
		}
		if _, err := store.FindByEmail(ctx, entry.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		hash, salt, err := hasher.Hash(entry.Password)
		if err != nil {
			return err
		}
		user := &User{
			UserID:       uuid.New().String(),
			Email:        NormalizeEmail(entry.Email),
			Name:         strings.TrimSpace(entry.Name),
			PasswordHash: hash,
			PasswordSalt: salt,
			IsAdmin:      entry.Admin,
		}
		if err := store.Create(ctx, user); err != nil && !errors.Is(err, ErrEmailTaken) {
			return err
		}
	}
	return nil
}
