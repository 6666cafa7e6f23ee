// Package pdfreader extracts per-page text and document metadata from PDF
// files. It wraps github.com/dslipak/pdf, the teacher's own pure-Go PDF
// parser, behind the PdfReader contract from the specification: a page
// count of -1 signals a load failure, and the rest of the pipeline must
// tolerate whatever UTF-8 the underlying parser hands back.
package pdfreader

import (
	"strings"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
	"github.com/dslipak/pdf"
)

// Metadata holds the document-level fields the PDF info dictionary may
// carry. Any of the string fields may be empty when the PDF omits them.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	Keywords  string
	Creator   string
	Producer  string
	PageCount int
}

// Extracted is the result of reading one PDF: its metadata plus one text
// buffer per page, 1-indexed by position (Pages[0] is page 1).
type Extracted struct {
	Metadata Metadata
	Pages    []string
}

// Extract opens path, reads its info dictionary, and extracts text
// page-by-page. On failure to open or parse the file, Metadata.PageCount
// is -1 and err is non-nil.
func Extract(path string) (Extracted, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return Extracted{Metadata: Metadata{PageCount: -1}}, errs.Wrap(errs.ParseError, "open pdf", err)
	}

	numPages := r.NumPage()
	meta := readMetadata(r, numPages)

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, extractPage(r, i))
	}

	return Extracted{Metadata: meta, Pages: pages}, nil
}

// readMetadata pulls the standard Info dictionary keys out of the PDF
// trailer. Missing keys are left as zero values; the reader tolerates
// arbitrary non-ASCII bytes the parser may have stripped.
func readMetadata(r *pdf.Reader, numPages int) Metadata {
	meta := Metadata{PageCount: numPages}

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}

	meta.Title = infoString(info, "Title")
	meta.Author = infoString(info, "Author")
	meta.Subject = infoString(info, "Subject")
	meta.Keywords = infoString(info, "Keywords")
	meta.Creator = infoString(info, "Creator")
	meta.Producer = infoString(info, "Producer")

	return meta
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// extractPage returns the plain text of page num, or "" if extraction
// fails for that single page — a per-page failure must not abort the rest
// of the document.
func extractPage(r *pdf.Reader, num int) string {
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}

	return content
}
