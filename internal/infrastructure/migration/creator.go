package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- {{.Description}}
-- Created: {{.Timestamp}}

`

const migrationDownTemplate = `-- Rollback: {{.Description}}
-- Created: {{.Timestamp}}

`

// versionWidth matches the zero-padded prefix of the shipped migrations (000001_...)
const versionWidth = 6

// MigrationFile describes a created up/down pair
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next numbered up/down pair into migrationsDir
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(existing) > 0 {
		next = existing[len(existing)-1].Version + 1
	}
	if description == "" {
		description = name
	}

	baseName := fmt.Sprintf("%0*d_%s", versionWidth, next, slug)
	mf := &MigrationFile{
		Version:     next,
		Name:        slug,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, baseName+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, baseName+".down.sql"),
	}

	if err := writeMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// sanitizeName lowercases name and joins its words with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			if s := b.String(); s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// MigrationInfo is one numbered migration found on disk or in an embedded FS
type MigrationInfo struct {
	Version uint
	Name    string
	HasDown bool
}

// ListMigrations returns the migrations in a directory ordered by version.
// A missing directory yields an empty list.
func ListMigrations(migrationsDir string) ([]MigrationInfo, error) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		return []MigrationInfo{}, nil
	}
	return ListMigrationsFS(os.DirFS(migrationsDir))
}

// ListMigrationsFS returns the migrations at the root of fsys ordered by version
func ListMigrationsFS(fsys fs.FS) ([]MigrationInfo, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint]*MigrationInfo)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}
		info, exists := byVersion[version]
		if !exists {
			info = &MigrationInfo{Version: version, Name: name}
			byVersion[version] = info
		}
		if direction == "down" {
			info.HasDown = true
		}
	}

	result := make([]MigrationInfo, 0, len(byVersion))
	for _, info := range byVersion {
		result = append(result, *info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// parseMigrationName splits "000003_create_payment_reminders.up.sql"
func parseMigrationName(file string) (version uint, name, direction string, ok bool) {
	var base string
	switch {
	case strings.HasSuffix(file, ".up.sql"):
		base, direction = strings.TrimSuffix(file, ".up.sql"), "up"
	case strings.HasSuffix(file, ".down.sql"):
		base, direction = strings.TrimSuffix(file, ".down.sql"), "down"
	default:
		return 0, "", "", false
	}

	prefix, rest, found := strings.Cut(base, "_")
	if !found || rest == "" {
		return 0, "", "", false
	}
	n, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	return uint(n), rest, direction, true
}
