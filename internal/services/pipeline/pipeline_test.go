package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
	"github.com/ternarybob/promoparse/internal/services/pdf"
	"github.com/ternarybob/promoparse/internal/services/state"
)

// --- collaborator fakes ---

type fakeScraper struct {
	page *interfaces.PresentationPage
	err  error
}

func (f *fakeScraper) FetchPresentation(_ context.Context, _ string) (*interfaces.PresentationPage, error) {
	return f.page, f.err
}

type fakeTransfer struct {
	dir       string
	failOn    map[string]error
	uploaded  []string
	uploadURL string
}

func (f *fakeTransfer) Download(_ context.Context, remote string) (string, error) {
	if err := f.failOn[remote]; err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, filepath.Base(remote))
	if err := os.WriteFile(path, []byte("doc:"+remote), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeTransfer) Upload(_ context.Context, localPath string) (string, error) {
	f.uploaded = append(f.uploaded, localPath)
	return f.uploadURL + filepath.Base(localPath), nil
}

type fakeChecker struct{}

func (fakeChecker) Read(path string) ([]byte, *pdf.DocumentInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, &pdf.DocumentInfo{Path: path, PageCount: 1, SizeBytes: int64(len(data))}, nil
}

type fakeExtractor struct {
	listing  *models.PresentationListing
	products map[string]*models.ESPProduct // keyed by document content
	sheetErr error
}

func (f *fakeExtractor) ExtractPresentation(_ context.Context, _ []byte) (*models.PresentationListing, error) {
	return f.listing, nil
}

func (f *fakeExtractor) ExtractSellSheet(_ context.Context, document []byte) (*models.ESPProduct, error) {
	if f.sheetErr != nil {
		return nil, f.sheetErr
	}
	if p, ok := f.products[string(document)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unexpected document")
}

type fakeSAGE struct {
	output    *models.SAGEOutput
	detailErr map[string]error
	enriched  []string
}

func (f *fakeSAGE) GetPresentation(_ context.Context, _ string) (*models.SAGEOutput, error) {
	return f.output, nil
}

func (f *fakeSAGE) GetProductDetail(_ context.Context, product *models.SAGEProduct) error {
	f.enriched = append(f.enriched, product.Name)
	if f.detailErr != nil {
		if err, ok := f.detailErr[product.Name]; ok {
			return err
		}
	}
	net := 6.90
	for i := range product.PriceBreaks {
		product.PriceBreaks[i].NetCost = &net
	}
	return nil
}

type fakeCRM struct {
	customerID string
	itemErr    map[string]error
	items      []string
	images     []string
	quoteLink  string
	fileLink   string
}

func (f *fakeCRM) SearchCustomer(_ context.Context, _ string) (string, error) {
	return f.customerID, nil
}

func (f *fakeCRM) DiscoverFields(_ context.Context) (map[string]string, error) {
	return map[string]string{"lead_time": "cf1"}, nil
}

func (f *fakeCRM) UpsertItem(_ context.Context, _ string, product *models.UnifiedProduct) (string, error) {
	if err := f.itemErr[product.Item.Name]; err != nil {
		return "", err
	}
	f.items = append(f.items, product.Item.Name)
	return "https://crm.example.com/items/item-" + product.Item.Name, nil
}

func (f *fakeCRM) UploadImage(_ context.Context, itemID, imageURL string) error {
	f.images = append(f.images, itemID+":"+imageURL)
	return nil
}

func (f *fakeCRM) CreateQuote(_ context.Context, _ string, _ *models.UnifiedOutput) (string, error) {
	return f.quoteLink, nil
}

func (f *fakeCRM) UploadFile(_ context.Context, _ string, _ string) (string, error) {
	return f.fileLink, nil
}

type fakeCalculator struct {
	path string
}

func (f *fakeCalculator) Generate(_ *models.UnifiedOutput) (string, error) {
	return f.path, nil
}

// --- helpers ---

func strP(s string) *string { return &s }
func fP(v float64) *float64 { return &v }
func intPt(v int) *int      { return &v }

func newTestService(t *testing.T, deps Dependencies) (*Service, string) {
	t.Helper()
	outDir := t.TempDir()
	svc, err := NewService(&common.PipelineConfig{}, outDir, deps, arbor.NewLogger())
	require.NoError(t, err)
	return svc, outDir
}

func newManager(t *testing.T, outDir, sourceURL string, features models.JobFeatures) *state.Manager {
	t.Helper()
	mgr, err := state.NewManager(state.ManagerConfig{
		JobID:     "job-test",
		OutputDir: outDir,
		Features:  features,
		SourceURL: sourceURL,
		Logger:    arbor.NewLogger(),
	})
	require.NoError(t, err)
	return mgr
}

func readOutput(t *testing.T, outDir string) *models.UnifiedOutput {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, "job-test", "output.json"))
	require.NoError(t, err)
	var output models.UnifiedOutput
	require.NoError(t, json.Unmarshal(data, &output))
	return &output
}

func sagePresentation() *models.SAGEOutput {
	return &models.SAGEOutput{
		Success: true,
		PresID:  strP("76543210"),
		Client:  models.SAGEClient{Company: strP("Reeves Logistics")},
		Products: []models.SAGEProduct{
			{
				Name: "Travel Mug",
				SPC:  strP("SPC-1"),
				PriceBreaks: []models.SAGEPriceBreak{
					{Quantity: 50, SellPrice: fP(12.99)},
				},
			},
			{
				Name: "Canvas Tote",
				SPC:  strP("SPC-2"),
				PriceBreaks: []models.SAGEPriceBreak{
					{Quantity: 100, SellPrice: fP(4.25)},
				},
			},
		},
	}
}

// --- tests ---

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url      string
		platform string
		wantErr  bool
	}{
		{"https://www.viewpresentation.com/66907679185", models.PlatformSAGE, false},
		{"https://sageconnect.sage.com/Presentation/AbC123", models.PlatformSAGE, false},
		{"https://portal.mypromooffice.com/presentations/500183020?accessCode=ab12", models.PlatformESP, false},
		{"https://example.com/presentations/5", "", true},
		{"not a url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			platform, err := DetectSource(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				var unknownErr *UnknownSourceURLError
				assert.ErrorAs(t, err, &unknownErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.platform, platform)
		})
	}
}

func TestRun_SAGEHappyPath(t *testing.T) {
	sageClient := &fakeSAGE{output: sagePresentation()}
	svc, outDir := newTestService(t, Dependencies{SAGE: sageClient})

	url := "https://www.viewpresentation.com/66907679185"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusCompleted, snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, models.PlatformSAGE, snapshot.Platform)
	assert.Empty(t, snapshot.Errors)
	assert.Equal(t, []string{"Travel Mug", "Canvas Tote"}, sageClient.enriched)

	output := readOutput(t, outDir)
	require.Len(t, output.Products, 2)
	assert.Equal(t, "sage", output.Products[0].Source)
	require.NotEmpty(t, output.Products[0].Pricing.Breaks)
	// Sell price from the presentation, net cost from the detail API
	assert.Equal(t, 12.99, *output.Products[0].Pricing.Breaks[0].UnitPrice)
	assert.Equal(t, 6.90, *output.Products[0].Pricing.Breaks[0].NetCost)

	require.NotNil(t, snapshot.ResultLinks.OutputJSON)
	assert.FileExists(t, *snapshot.ResultLinks.OutputJSON)
}

func TestRun_SAGEPartialSuccess(t *testing.T) {
	sageClient := &fakeSAGE{
		output:    sagePresentation(),
		detailErr: map[string]error{"Canvas Tote": fmt.Errorf("detail unavailable")},
	}
	svc, outDir := newTestService(t, Dependencies{SAGE: sageClient})

	url := "https://www.viewpresentation.com/66907679185"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusPartialSuccess, snapshot.Status)
	assert.Less(t, snapshot.Progress, 100)
	require.Len(t, snapshot.Errors, 1)
	assert.Equal(t, string(models.StatusSAGEEnrichingProducts), snapshot.Errors[0].Step)
	assert.True(t, snapshot.Errors[0].Recoverable)
	require.NotNil(t, snapshot.Errors[0].ProductID)
	assert.Equal(t, "SPC-2", *snapshot.Errors[0].ProductID)

	// Both products still present; only the failed one lacks net cost
	output := readOutput(t, outDir)
	require.Len(t, output.Products, 2)
	assert.Nil(t, output.Products[1].Pricing.Breaks[0].NetCost)
}

func TestRun_ESPHappyPath(t *testing.T) {
	page := &interfaces.PresentationPage{
		URL:   "https://portal.mypromooffice.com/presentations/500183020",
		Title: "Spring Campaign",
		PDFLinks: []string{
			"https://cdn.example.com/docs/presentation.pdf",
			"https://cdn.example.com/docs/TM-500.pdf",
		},
	}
	listing := &models.PresentationListing{
		Presentation: models.PresentationHeader{
			ClientCompany: strP("Reeves Logistics"),
			PresenterName: strP("Morgan Ellis"),
		},
		Products: []models.PresentationProduct{
			{
				Name: "Travel Mug",
				CPN:  strP("TM-500"),
				PriceBreaks: []models.ESPPriceBreak{
					{MinQty: intPt(50), CatalogPrice: fP(12.99)},
				},
			},
		},
	}
	sheetProduct := &models.ESPProduct{
		Item: models.ESPItem{Name: "Travel Mug 16oz"},
		Pricing: models.ESPPricing{Breaks: []models.ESPPriceBreak{
			{MinQty: intPt(50), NetCost: fP(7.80)},
		}},
	}

	transfer := &fakeTransfer{dir: t.TempDir(), uploadURL: "https://files.example.com/"}
	extractor := &fakeExtractor{
		listing: listing,
		products: map[string]*models.ESPProduct{
			"doc:https://cdn.example.com/docs/TM-500.pdf": sheetProduct,
		},
	}
	svc, outDir := newTestService(t, Dependencies{
		Scraper:   &fakeScraper{page: page},
		Transfer:  transfer,
		Extractor: extractor,
		Checker:   fakeChecker{},
	})

	url := "https://portal.mypromooffice.com/presentations/500183020?accessCode=ab12"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusCompleted, snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, models.PlatformESP, snapshot.Platform)
	assert.Empty(t, snapshot.Errors)

	require.NotNil(t, snapshot.ResultLinks.PresentationPDF)
	assert.Equal(t, "https://files.example.com/presentation.pdf", *snapshot.ResultLinks.PresentationPDF)

	output := readOutput(t, outDir)
	require.Len(t, output.Products, 1)
	assert.Equal(t, "esp", output.Products[0].Source)
	require.Len(t, output.Products[0].Pricing.Breaks, 1)
	// Presentation price wins, sheet net cost carried by quantity
	assert.Equal(t, 12.99, *output.Products[0].Pricing.Breaks[0].UnitPrice)
	assert.Equal(t, 7.80, *output.Products[0].Pricing.Breaks[0].NetCost)
}

func TestRun_ESPMissingSellSheet(t *testing.T) {
	page := &interfaces.PresentationPage{
		Title:    "Spring Campaign",
		PDFLinks: []string{"https://cdn.example.com/docs/presentation.pdf"},
	}
	listing := &models.PresentationListing{
		Products: []models.PresentationProduct{
			{
				Name: "Travel Mug",
				CPN:  strP("TM-500"),
				PriceBreaks: []models.ESPPriceBreak{
					{MinQty: intPt(50), CatalogPrice: fP(12.99)},
				},
			},
		},
	}

	svc, outDir := newTestService(t, Dependencies{
		Scraper:   &fakeScraper{page: page},
		Transfer:  &fakeTransfer{dir: t.TempDir(), uploadURL: "https://files.example.com/"},
		Extractor: &fakeExtractor{listing: listing},
		Checker:   fakeChecker{},
	})

	url := "https://portal.mypromooffice.com/presentations/500183020?accessCode=ab12"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusPartialSuccess, snapshot.Status)
	require.Len(t, snapshot.Errors, 1)
	assert.Equal(t, string(models.StatusESPLookingUpProducts), snapshot.Errors[0].Step)

	// Roster-only product still ships with its presentation pricing
	output := readOutput(t, outDir)
	require.Len(t, output.Products, 1)
	assert.Equal(t, 12.99, *output.Products[0].Pricing.Breaks[0].UnitPrice)
	assert.Nil(t, output.Products[0].Pricing.Breaks[0].NetCost)
}

func TestRun_StageFailureFreezesProgress(t *testing.T) {
	svc, outDir := newTestService(t, Dependencies{
		Scraper: &fakeScraper{err: fmt.Errorf("portal unreachable")},
	})

	url := "https://portal.mypromooffice.com/presentations/500183020?accessCode=ab12"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusError, snapshot.Status)
	assert.Less(t, snapshot.Progress, 100)
	require.Len(t, snapshot.Errors, 1)
	assert.Equal(t, string(models.StatusESPDownloadingPresentation), snapshot.Errors[0].Step)
	assert.False(t, snapshot.Errors[0].Recoverable)
	assert.Contains(t, snapshot.Errors[0].Message, "portal unreachable")
}

func TestRun_UnknownSourceFails(t *testing.T) {
	svc, outDir := newTestService(t, Dependencies{})

	url := "https://example.com/presentations/5"
	mgr := newManager(t, outDir, url, models.JobFeatures{})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusError, snapshot.Status)
	require.Len(t, snapshot.Errors, 1)
	assert.Equal(t, string(models.StatusDetectingSource), snapshot.Errors[0].Step)
}

func TestRun_CRMAndCalculatorExtensions(t *testing.T) {
	crm := &fakeCRM{
		customerID: "cust-9",
		quoteLink:  "https://crm.example.com/estimates/est-1",
		fileLink:   "https://crm.example.com/documents/doc-1",
	}
	calc := &fakeCalculator{path: "/tmp/calc.pdf"}
	svc, outDir := newTestService(t, Dependencies{
		SAGE:       &fakeSAGE{output: sagePresentation()},
		CRM:        crm,
		Calculator: calc,
	})

	url := "https://www.viewpresentation.com/66907679185"
	features := models.JobFeatures{CRMUpload: true, CRMQuote: true, Calculator: true}
	mgr := newManager(t, outDir, url, features)
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusCompleted, snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, []string{"Travel Mug", "Canvas Tote"}, crm.items)

	require.NotNil(t, snapshot.ResultLinks.CRMItem)
	assert.Contains(t, *snapshot.ResultLinks.CRMItem, "/items/")
	require.NotNil(t, snapshot.ResultLinks.CRMQuote)
	assert.Equal(t, crm.quoteLink, *snapshot.ResultLinks.CRMQuote)
	require.NotNil(t, snapshot.ResultLinks.Calculator)
	assert.Equal(t, crm.fileLink, *snapshot.ResultLinks.Calculator)
}

func TestRun_CRMItemFailureIsRecoverable(t *testing.T) {
	crm := &fakeCRM{
		customerID: "cust-9",
		itemErr:    map[string]error{"Canvas Tote": fmt.Errorf("rate limited")},
	}
	svc, outDir := newTestService(t, Dependencies{
		SAGE: &fakeSAGE{output: sagePresentation()},
		CRM:  crm,
	})

	url := "https://www.viewpresentation.com/66907679185"
	mgr := newManager(t, outDir, url, models.JobFeatures{CRMUpload: true})
	svc.Run(context.Background(), mgr, url)

	snapshot := mgr.Snapshot()
	assert.Equal(t, models.StatusPartialSuccess, snapshot.Status)
	assert.Equal(t, []string{"Travel Mug"}, crm.items)
	require.Len(t, snapshot.Errors, 1)
	assert.Equal(t, string(models.StatusCRMUploadingItems), snapshot.Errors[0].Step)
	assert.True(t, snapshot.Errors[0].Recoverable)
}

func TestSubmitRunsJob(t *testing.T) {
	svc, outDir := newTestService(t, Dependencies{SAGE: &fakeSAGE{output: sagePresentation()}})

	jobID, err := svc.Submit(context.Background(), "https://www.viewpresentation.com/66907679185", &models.JobFeatures{}, "tester@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)
	svc.Wait()

	data, err := os.ReadFile(filepath.Join(outDir, fmt.Sprintf("job_%s_state.json", jobID)))
	require.NoError(t, err)

	var jobState models.JobState
	require.NoError(t, json.Unmarshal(data, &jobState))
	assert.Equal(t, models.StatusCompleted, jobState.Status)
	assert.Equal(t, 100, jobState.Progress)
}
