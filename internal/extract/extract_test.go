package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	pdfOnly := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf"}, MaxFileSize: 100})
	mixed := NewExtractor(config.ExtractConfig{AllowedFormats: []string{".PDF", "docx", "pdf"}, MaxFileSize: 100})

	tests := []struct {
		name      string
		extractor *Extractor
		filename  string
		size      int64
		wantCode  string
		wantMsg   string
	}{
		{name: "pdf accepted", extractor: pdfOnly, filename: "resume.pdf", size: 10},
		{name: "extension is case-insensitive", extractor: pdfOnly, filename: "Resume.PDF", size: 10},
		{name: "docx rejected", extractor: pdfOnly, filename: "resume.docx", size: 10,
			wantCode: errors.ErrCodeInvalidFormat, wantMsg: "Only PDF files are supported"},
		{name: "no extension", extractor: pdfOnly, filename: "resume", size: 10,
			wantCode: errors.ErrCodeInvalidFormat, wantMsg: "Only PDF files are supported"},
		{name: "mixed list message", extractor: mixed, filename: "resume.txt", size: 10,
			wantCode: errors.ErrCodeInvalidFormat, wantMsg: "Only PDF, DOCX files are supported"},
		{name: "docx allowed when configured", extractor: mixed, filename: "cv.docx", size: 10},
		{name: "too large", extractor: pdfOnly, filename: "resume.pdf", size: 101,
			wantCode: errors.ErrCodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.extractor.ValidateUpload(tt.filename, tt.size)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.wantCode, appErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(config.ExtractConfig{})
	assert.Equal(t, []string{"pdf"}, e.AllowedFormats())
	assert.Equal(t, DefaultMaxFileSize, e.MaxFileSize())
}

func TestExtractCorruptPDF(t *testing.T) {
	e := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf"}})

	for name, data := range map[string][]byte{
		"garbage":   []byte("definitely not a pdf"),
		"truncated": []byte("%PDF-1.4\n1 0 obj\n<<"),
		"empty":     {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract("resume.pdf", data)
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeExtraction, appErr.Type)
			assert.Equal(t, "resume.pdf", appErr.Context["filename"])
		})
	}
}

func TestExtractPDF(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "resume.pdf"))
	require.NoError(t, err)

	e := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf"}})
	text, err := e.Extract("resume.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, "Python AWS engineer. Built SQL pipelines.", strings.TrimSpace(text))
}

func TestExtractRejectsBeforeParsing(t *testing.T) {
	e := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf"}})
	_, err := e.Extract("notes.txt", []byte("hello"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestExtractText(t *testing.T) {
	e := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"txt"}})

	text, err := e.Extract("resume.txt", []byte("Go engineer. Loves AWS."))
	require.NoError(t, err)
	assert.Equal(t, "Go engineer. Loves AWS.", text)

	_, err = e.Extract("resume.txt", []byte{0xff, 0xfe, 0xfd})
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body +
			`</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	e := NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf", "docx"}})

	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Built RAG </w:t></w:r><w:r><w:t>pipelines on AWS.</w:t></w:r></w:p>`)

	text, err := e.Extract("cv.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nBuilt RAG pipelines on AWS.", text)

	_, err = e.Extract("cv.docx", []byte("not a zip"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestWordXMLText(t *testing.T) {
	text, err := wordXMLText(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C</w:t></w:r></w:p></w:body></w:document>`)
	require.NoError(t, err)
	assert.Equal(t, "A\tB\nC", text)

	_, err = wordXMLText(`<w:p><w:t>unterminated`)
	assert.Error(t, err)
}
