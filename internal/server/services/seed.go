package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of a seed file:
//
//	users:
//	  - username: admin
//	    email: admin@example.com
//	    password: change-me
//	    role: Admin
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Seeder creates accounts listed in a seed file. Existing usernames and
// emails are skipped, so seeding is safe to repeat on every start.
type Seeder struct {
	users  *UserService
	logger logging.Logger
}

func NewSeeder(users *UserService, logger logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Seeder{users: users, logger: logger.With("module", "seed")}
}

// LoadSeedFile parses the YAML seed file at path.
func LoadSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f SeedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// SeedFromFile loads path and applies it. It returns how many accounts
// were created.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	f, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, f)
}

func (s *Seeder) Seed(ctx context.Context, f *SeedFile) (int, error) {
	created := 0
	for i, su := range f.Users {
		role := models.RoleUser
		if su.Role != "" {
			r, err := models.ParseRole(su.Role)
			if err != nil {
				return created, fmt.Errorf("seed user %d: %w", i, err)
			}
			role = r
		}

		_, err := s.users.create(ctx, Registration{Username: su.Username, Email: su.Email, Password: su.Password}, role)
		if errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Debug(ctx, "seed user exists, skipping", "username", su.Username)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed user %q: %w", su.Username, err)
		}
		created++
	}

	s.logger.Info(ctx, "seeding finished", "created", created, "listed", len(f.Users))
	return created, nil
}
