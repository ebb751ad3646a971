// Package source provides RecordSource implementations.
//
// Slice is an in-memory source. ReadXLSX builds one from the record workbook
// and ReadCSV from a CSV export of it; in both the first row holds column
// names. Open picks the reader from the file extension.
package source
