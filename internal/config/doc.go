// Package config handles YAML configuration loading with environment variable
// substitution and FUTARCHY_* overrides.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. After the file is parsed, variables such as
// FUTARCHY_ENDPOINT_HTTP_URL or FUTARCHY_STORAGE_POSTGRES_DSN override the
// matching keys.
package config
