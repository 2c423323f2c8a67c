package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/DukeRupert/tradedesk/internal/domain"
)

// maxExportSize bounds a spreadsheet download held in memory.
const maxExportSize = 50 * 1024 * 1024

// Export is a generated spreadsheet.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export asks the backend to build a spreadsheet of the records matching p,
// restricted to the named fields.
func (c *Client) Export(ctx context.Context, kind domain.EntityKind, p SearchParams, fields []string) (*Export, error) {
	query, err := p.Query()
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []string{}
	}

	resp, err := c.send(ctx, request{
		method:   http.MethodPost,
		path:     "/" + kind.APIPath + "/export/excel",
		rawQuery: query,
		body:     map[string][]string{"fields": fields},
		endpoint: kind.APIPath + "/export/excel",
		accept:   "application/octet-stream",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize+1))
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: c.baseURL + apiPrefix + "/" + kind.APIPath + "/export/excel", Err: err}
	}
	if len(body) > maxExportSize {
		return nil, fmt.Errorf("export exceeds %d bytes", maxExportSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return &Export{
		Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition"), kind.APIPath+".xlsx"),
		ContentType: contentType,
		Body:        body,
	}, nil
}

var plainFilename = regexp.MustCompile(`(?i)filename\s*=\s*"?([^";]+)"?`)

// FilenameFromDisposition extracts the download name from a Content-Disposition
// header. The RFC 5987 filename* form is decoded and preferred over
// a plain filename=; fallback is used when neither yields a usable name.
func FilenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}

	// ParseMediaType decodes filename* and reports it under "filename".
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := cleanFilename(params["filename"]); name != "" {
			return name
		}
	}

	if m := plainFilename.FindStringSubmatch(header); m != nil {
		if name := cleanFilename(m[1]); name != "" {
			return name
		}
	}
	return fallback
}

func cleanFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
