// Package appfs embeds the files shipped with the binaries: SQL migrations per database engine
// and the message template fixtures.
package appfs

import "embed"

// TemplateFixtures is the path of the template fixtures inside FS.
const TemplateFixtures = "fixtures/templates.yml"

//go:embed migrations fixtures
var FS embed.FS

// MigrationsDir returns the migrations directory of a database engine.
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
