package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ApplyMigrations ejecuta las migraciones embebidas en orden de nombre de archivo.
// Todo el DDL usa IF NOT EXISTS, por lo que repetirlas no tiene efecto.
func ApplyMigrations(ctx context.Context, q Querier, log zerolog.Logger) error {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("leer migraciones: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(migrations, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("leer migración %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("aplicando migración")
		if _, err := q.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("ejecutar migración %s: %w", name, err)
		}
		applied++
	}
	log.Info().Int("count", applied).Msg("migraciones aplicadas")
	return nil
}
