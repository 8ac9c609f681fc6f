package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
)

type pdfExtractor struct{}

// SetPDFLicense configures the unipdf metered license key.
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

func (pdfExtractor) ExtractPages(ctx context.Context, r io.Reader) ([]Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		if licenseErr := asLicenseError(err); licenseErr != nil {
			return nil, licenseErr
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	num, err := reader.GetNumPages()
	if err != nil {
		if licenseErr := asLicenseError(err); licenseErr != nil {
			return nil, licenseErr
		}
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}
	pages := make([]Page, 0, num)
	var lastErr error
	for i := 1; i <= num; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(reader, i)
		if err != nil {
			if licenseErr := asLicenseError(err); licenseErr != nil {
				return nil, licenseErr
			}
			// one unreadable page should not drop the rest of the document
			logutil.GetLogger(ctx).Warn("extract pdf page failed", zap.Int("page", i), zap.Error(err))
			lastErr = err
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	if len(pages) == 0 && lastErr != nil {
		return nil, fmt.Errorf("no readable pdf pages: %w", lastErr)
	}
	return nonBlank(pages), nil
}

// asLicenseError turns a unipdf licensing failure into an operator facing
// configuration error.
func asLicenseError(err error) error {
	if !strings.Contains(strings.ToLower(err.Error()), "license") {
		return nil
	}
	return fmt.Errorf("%w: pdf extraction needs a unipdf key, set pdf.license_key: %v", appErr.ErrNotConfigured, err)
}

func pageText(reader *model.PdfReader, num int) (string, error) {
	page, err := reader.GetPage(num)
	if err != nil {
		return "", err
	}
	ex, err := extractor.New(page)
	if err != nil {
		return "", err
	}
	return ex.ExtractText()
}

func init() {
	Register("pdf", pdfExtractor{}, ".pdf")
}
