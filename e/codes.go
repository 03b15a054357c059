package e

// Constants in here define error codes that are unique to a package/function.
// The first two characters define the package, within this repo, and the
// second two characters define the function within that package. Furthermore,
// when creating an error, the e.N func should be called, which will also
// take a two character unique id within the function.
//
// Valid values for the characters are: 0-9 and A-Z.

const (
	// package: config
	Code0101 = "0101" // package:config | config/config.go

	// package: sql
	Code0201 = "0201" // package:sql | sql/sql.go
	Code0202 = "0202" // package:sql | sql/row.go
	Code0203 = "0203" // package:sql | sql/rows.go
	Code0204 = "0204" // package:sql | sql/catalog.go
	Code0205 = "0205" // package:sql | sql/dump.go
	Code0206 = "0206" // package:sql | sql/upsert.go

	// package: migration
	Code0301 = "0301" // package:migration | migration/migration.go
	Code0302 = "0302" // package:migration | migration/preflight.go
	Code0303 = "0303" // package:migration | migration/steps.go

	// package: backup
	Code0401 = "0401" // package:backup | backup/snapshot.go

	// package: gateway
	Code0501 = "0501" // package:gateway | gateway/client.go
	Code0502 = "0502" // package:gateway | gateway/gateway.go

	// package: scaffold
	Code0701 = "0701" // package:scaffold | scaffold/scaffold.go
)
