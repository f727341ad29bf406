package resume

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Email:</w:t></w:r><w:r><w:tab/><w:t>jane.doe@example.com</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Phone: +1 555-123-4567</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Skills: Go &amp; React</w:t></w:r></w:p>` +
	`</w:body></w:document>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDOCX(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": relsXML,
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		want        Format
		wantErr     bool
	}{
		{name: "pdf mime", filename: "cv", contentType: "application/pdf", want: FormatPDF},
		{name: "docx mime", filename: "cv", contentType: mimeDOCX, want: FormatDOCX},
		{name: "mime with params", filename: "cv.bin", contentType: "application/pdf; charset=binary", want: FormatPDF},
		{name: "octet stream pdf extension", filename: "CV.PDF", contentType: "application/octet-stream", want: FormatPDF},
		{name: "no mime docx extension", filename: "cv.docx", want: FormatDOCX},
		{name: "plain text", filename: "cv.txt", contentType: "text/plain", wantErr: true},
		{name: "text extension without mime", filename: "cv.txt", wantErr: true},
		{name: "legacy doc", filename: "cv.doc", contentType: "application/msword", wantErr: true},
		{name: "mime wins over extension", filename: "cv.pdf", contentType: "image/png", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFormat(tc.filename, tc.contentType)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractTextDOCX(t *testing.T) {
	data := buildDOCX(t)

	text, err := ExtractText(FormatDOCX, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nEmail: jane.doe@example.com\nPhone: +1 555-123-4567\nSkills: Go & React", text)
}

func TestParseDOCX(t *testing.T) {
	data := buildDOCX(t)

	fields, err := Parse("resume.docx", "", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, Fields{Name: "Jane Doe", Email: "jane.doe@example.com", Phone: "+1 555-123-4567"}, fields)
}

func TestParseRejectsUnsupportedBeforeReading(t *testing.T) {
	_, err := Parse("notes.txt", "text/plain", bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractTextBrokenDocuments(t *testing.T) {
	garbage := []byte("this is not a document")

	_, err := ExtractText(FormatPDF, bytes.NewReader(garbage), int64(len(garbage)))
	assert.Error(t, err)

	_, err = ExtractText(FormatDOCX, bytes.NewReader(garbage), int64(len(garbage)))
	assert.Error(t, err)

	_, err = ExtractText(Format("rtf"), bytes.NewReader(garbage), int64(len(garbage)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDocxText(t *testing.T) {
	got := docxText(`<w:p><w:r><w:t>A&lt;B</w:t></w:r><w:br/><w:r><w:t>C</w:t></w:r></w:p><w:p/>`)
	assert.Equal(t, "A<B\nC\n", got)
}
