package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Spreadsheet MIME types produced by the backend export endpoints.
const (
	SpreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	LegacyExcelType = "application/vnd.ms-excel"
	CSVType         = "text/csv"
)

var extensions = map[string]string{
	SpreadsheetType: ".xlsx",
	LegacyExcelType: ".xls",
	CSVType:         ".csv",
}

// DetectContentType picks the MIME type of an object: the provided type if
// any, then the key's extension, then a sniff of the first 512 bytes of data,
// then application/octet-stream.
func DetectContentType(providedType, filename string, data io.Reader) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	if data != nil {
		buf := make([]byte, 512)
		n, err := io.ReadFull(data, buf)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return http.DetectContentType(buf[:n])
		}
	}

	return "application/octet-stream"
}

func baseType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}

// IsSpreadsheet reports whether contentType is one of the export formats.
func IsSpreadsheet(contentType string) bool {
	_, ok := extensions[baseType(contentType)]
	return ok
}

// ExtensionFor returns the file extension for a MIME type, ".bin" when unknown.
func ExtensionFor(contentType string) string {
	if ext, ok := extensions[baseType(contentType)]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
