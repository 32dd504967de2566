// Package manual publishes reference files that are already tabular.
//
// A file from the manual directory is read with its delimiter detected from the
// header, its column types inferred, and handed to the same publish coordinator
// as the main pipeline under a caller-chosen table and alias name.
package manual
