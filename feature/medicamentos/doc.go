// Package medicamentos builds the unified medicine dataset.
//
// ANVISA registrations and CMED price lists are read from raw files, normalized
// into typed records and inner-joined on the 9-digit base identifier. The
// result is written as a semicolon separated UTF-8 exchange file with a BOM and
// handed to a Publisher, which replaces the production table and search alias.
//
// Rows that cannot be normalized are reported as degradations instead of
// failing the run. Missing required columns fail the run with a schema error.
package medicamentos
