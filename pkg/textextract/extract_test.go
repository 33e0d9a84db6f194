package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		filename, mime, want string
	}{
		{"a.pdf", "", "pdf"},
		{"letter", "application/pdf", "pdf"},
		{"notes.bin", "text/plain; charset=utf-8", "txt"},
		{"README.md", "application/octet-stream", "md"},
		{"page.HTM", "", "html"},
		{"image.png", "image/png", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Detect(tc.filename, tc.mime), tc.filename)
	}
}

func TestExtract_PlainText(t *testing.T) {
	doc, err := Extract([]byte("  Летопис 1890  \n"), "chronicle.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "Летопис 1890", doc.Content)
	assert.Equal(t, "txt", doc.Format)
}

func TestExtract_HTML(t *testing.T) {
	doc, err := Extract([]byte("<html><body><h1>Hall</h1>\n<p>Icons  room</p></body></html>"), "page.html", "text/html")
	require.NoError(t, err)
	assert.Equal(t, "Hall Icons room", doc.Content)
}

func TestExtract_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Founders letter</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc, err := Extract(buf.Bytes(), "letter.docx", "")
	require.NoError(t, err)
	assert.Equal(t, "Founders letter", doc.Content)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := Extract([]byte{0x89, 'P', 'N', 'G'}, "map.png", "image/png")
	assert.ErrorIs(t, err, ErrUnsupported)
}
