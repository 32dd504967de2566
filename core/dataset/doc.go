// Package dataset defines the tabular value handed between the transform stage and
// the publish stage, and the delimited-text codec used to exchange it.
//
// A Table carries an ordered, typed column set, an optional primary key and rows of
// string, float64 or nil cells. The canonical exchange file is ';'-delimited UTF-8
// with a byte-order mark and a fixed header; raw source files may use another
// delimiter, a latin1 encoding and a preamble before the header.
package dataset
