package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatTXT  = "txt"

	DefaultMaxFileSize int64 = 10 << 20
)

// Extractor turns uploaded resume bytes into plain text. It is safe for concurrent use.
type Extractor struct {
	formats []string
	maxSize int64
}

func NewExtractor(cfg config.ExtractConfig) *Extractor {
	formats := make([]string, 0, len(cfg.AllowedFormats))
	for _, f := range cfg.AllowedFormats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" && !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []string{FormatPDF}
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Extractor{formats: formats, maxSize: maxSize}
}

// AllowedFormats returns the accepted extensions without dots.
func (e *Extractor) AllowedFormats() []string {
	return slices.Clone(e.formats)
}

// MaxFileSize returns the upload limit in bytes.
func (e *Extractor) MaxFileSize() int64 {
	return e.maxSize
}

// ValidateUpload checks the file name extension and size before any parsing.
func (e *Extractor) ValidateUpload(filename string, size int64) error {
	format := formatOf(filename)
	if !slices.Contains(e.formats, format) {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, e.unsupportedMessage(), nil).
			WithContext("filename", filename)
	}
	if size > e.maxSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File exceeds the %d byte limit", e.maxSize), nil).
			WithContext("filename", filename).
			WithContext("size", size)
	}
	return nil
}

func (e *Extractor) unsupportedMessage() string {
	names := make([]string, len(e.formats))
	for i, f := range e.formats {
		names[i] = strings.ToUpper(f)
	}
	return fmt.Sprintf("Only %s files are supported", strings.Join(names, ", "))
}

// Extract validates filename and returns the document text. Parser failures are
// extraction errors; a document without text yields "".
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	if err := e.ValidateUpload(filename, int64(len(data))); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch formatOf(filename) {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatTXT:
		text, err = extractTXT(data)
	}
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return "", appErr.WithContext("filename", filename)
		}
		return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument, "could not read document", err).
			WithContext("filename", filename)
	}
	return text, nil
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(filename))), ".")
}

func extractPDF(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.NewExtractionError(errors.ErrCodeCorruptDocument, "malformed PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument, "failed to read PDF", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument,
				fmt.Sprintf("failed to read PDF page %d", i), err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument, "failed to read DOCX", err)
	}
	defer doc.Close()

	return wordXMLText(doc.Editable().GetContent())
}

// wordXMLText collects the w:t runs of a WordprocessingML body, one line per paragraph.
func wordXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument, "malformed DOCX body", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.NewExtractionError(errors.ErrCodeCorruptDocument, "text file is not valid UTF-8", nil)
	}
	return string(data), nil
}
