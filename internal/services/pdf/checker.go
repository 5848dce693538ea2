// -----------------------------------------------------------------------
// PDF Checker - validates downloaded documents before they are sent to
// an extraction provider
// -----------------------------------------------------------------------

package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// maxDocumentBytes caps what gets attached to an extraction request.
// Provider request limits sit well below this; anything bigger is
// almost certainly not a sell sheet.
const maxDocumentBytes = 32 << 20

// DocumentInfo describes a validated PDF.
type DocumentInfo struct {
	Path      string
	PageCount int
	SizeBytes int64
}

// InvalidDocumentError indicates a file that is not a usable PDF.
type InvalidDocumentError struct {
	Path   string
	Reason string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid document %s: %s", e.Path, e.Reason)
}

// Checker validates PDFs with pdfcpu.
type Checker struct {
	config *model.Configuration
	logger arbor.ILogger
}

// NewChecker creates a PDF checker.
func NewChecker(logger arbor.ILogger) *Checker {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Checker{
		config: conf,
		logger: logger,
	}
}

// Check validates the file and returns its page count and size. Damaged
// downloads, empty files and non-PDF content all fail here instead of
// burning an extraction call.
func (c *Checker) Check(path string) (*DocumentInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, &InvalidDocumentError{Path: path, Reason: err.Error()}
	}
	if stat.Size() == 0 {
		return nil, &InvalidDocumentError{Path: path, Reason: "file is empty"}
	}
	if stat.Size() > maxDocumentBytes {
		return nil, &InvalidDocumentError{Path: path, Reason: fmt.Sprintf("file is %d bytes, over the %d byte limit", stat.Size(), maxDocumentBytes)}
	}

	if err := api.ValidateFile(path, c.config); err != nil {
		return nil, &InvalidDocumentError{Path: path, Reason: fmt.Sprintf("validation failed: %v", err)}
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, &InvalidDocumentError{Path: path, Reason: fmt.Sprintf("page count failed: %v", err)}
	}
	if pageCount == 0 {
		return nil, &InvalidDocumentError{Path: path, Reason: "document has no pages"}
	}

	c.logger.Debug().
		Str("path", path).
		Int("pages", pageCount).
		Int64("bytes", stat.Size()).
		Msg("Document validated")

	return &DocumentInfo{
		Path:      path,
		PageCount: pageCount,
		SizeBytes: stat.Size(),
	}, nil
}

// Read validates the file and returns its content for attachment to an
// extraction request.
func (c *Checker) Read(path string) ([]byte, *DocumentInfo, error) {
	info, err := c.Check(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &InvalidDocumentError{Path: path, Reason: err.Error()}
	}
	return data, info, nil
}
