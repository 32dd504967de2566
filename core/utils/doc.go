// Package utils provides small text and value helpers shared by the normalizers
// and the delimited-file codec: digit stripping, accent folding, header keys and
// locale-aware number parsing.
package utils
