// Package configs provides the embedded configuration template for docdex.
//
// The template is embedded at build time so 'docdex init' can write a
// commented starting config regardless of how the binary was installed.
package configs

import _ "embed"

// ConfigTemplate is written by 'docdex init' as docdex.yaml.
//
//go:embed docdex.example.yaml
var ConfigTemplate string
