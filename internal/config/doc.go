// Package config loads per-project settings from codeatlas.yml.
//
// A missing file silently yields the defaults. A file that exists but cannot
// be read or parsed is a fatal startup error so a typo never silently indexes
// the wrong set of files.
package config
