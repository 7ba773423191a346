// Package dto holds the document types read from column definition files and
// their conversion into column configurations and feed streams.
package dto
