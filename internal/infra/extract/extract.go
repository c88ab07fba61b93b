package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// maxPlainTextChars caps how much of a non-PDF file goes into the prompt pipeline.
const maxPlainTextChars = 50000

// Extractor turns uploaded bytes into prompt-ready text. PDFs go through
// pdfcpu content extraction; everything else is treated as UTF-8 text.
type Extractor struct {
	tempDir string
}

func NewExtractor() *Extractor {
	tempDir := filepath.Join(os.TempDir(), "dealdesk-extract")
	os.MkdirAll(tempDir, 0o755)
	return &Extractor{tempDir: tempDir}
}

// Extract implementasi analyses.TextExtractor
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	if IsPDF(fileName, contentType) {
		return e.extractPDF(data)
	}
	return Truncate(string(data), maxPlainTextChars), nil
}

// IsPDF decides by content type first, file suffix second
func IsPDF(fileName, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}

// Truncate cuts s to at most n bytes without splitting a rune
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// extractPDF writes the bytes to a temp file, extracts per-page content with
// pdfcpu, and concatenates the pages in order.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("doc-%s.pdf", uuid.New().String()))
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages-%s", uuid.New().String()))
	os.MkdirAll(outDir, 0o755)
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	// pdfcpu writes one content file per page; map them back by page number
	files, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	pageTexts := make(map[int]string, pageCount)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, f.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(f.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(f.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = string(content)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if pageNum > 1 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageTexts[pageNum])
	}
	return Truncate(b.String(), maxPlainTextChars), nil
}
