// Package params collects the variables that string replacements read
// during conversion.
//
// Replacement rules in sfdx-project.json name environment variables, either
// as the replacement value (replaceWithEnv) or as a condition
// (replaceWhenEnv). By default those are read from the process environment.
// The CLI can shadow them per run:
//
//	sfmeta deploy force-app --env-file .env.uat --env API_HOST=uat.example.com
//
// Values given with --env win over --env-file entries, later files win over
// earlier ones, and everything given on the command line wins over the
// process environment.
package params
