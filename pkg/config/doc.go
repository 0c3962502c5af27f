// Package config loads the backend's YAML configuration: write-back
// pool sizing and watermarks, the MNS stable name/lifetime/ttl, and
// the default backend URI a CLI invocation connects to absent an
// explicit one.
//
// Grounded on the teacher's cmd/warren/apply.go, which reads a YAML
// file with gopkg.in/yaml.v3 into a tagged struct; generalized here
// from a one-off resource-apply payload into a persistent daemon
// configuration file loaded once at startup.
package config
