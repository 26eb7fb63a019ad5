package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/jmwangi/tutorlink/configs"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
)

const statementTemplate = `<!DOCTYPE html>
<html>
<head><style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; }
h1 { font-size: 20px; }
table { width: 100%; border-collapse: collapse; margin-top: 20px; }
th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #ddd; font-size: 12px; }
.totals { margin-top: 24px; font-size: 14px; }
</style></head>
<body>
<h1>Earnings Statement — {{.TutorName}}</h1>
<p>Generated {{.GeneratedAt}}</p>
<table>
<tr><th>Date</th><th>Booking</th><th>State</th><th>Amount</th></tr>
{{range .Entries}}<tr><td>{{.Date}}</td><td>{{.BookingID}}</td><td>{{.State}}</td><td>£{{.Amount}}</td></tr>{{end}}
</table>
<div class="totals">
<p>In escrow: £{{.Pending}} · Available: £{{.Available}} · Withdrawn: £{{.Withdrawn}}</p>
</div>
</body>
</html>`

type statementRow struct {
	Date      string
	BookingID string
	State     string
	Amount    string
}

// GenerateStatement renders the tutor's ledger into a PDF earnings statement
// and uploads it, returning the hosted URL.
func GenerateStatement(tutorID uuid.UUID) (string, error) {
	var tutor models.Tutor
	if err := database.DB.Preload("User").First(&tutor, "user_id = ?", tutorID).Error; err != nil {
		return "", &NotFoundError{Entity: "tutor"}
	}

	var entries []models.LedgerEntry
	if err := database.DB.Where("tutor_id = ?", tutorID).Order("created_at asc").Find(&entries).Error; err != nil {
		return "", err
	}

	summary, err := Summarize(database.DB, tutorID)
	if err != nil {
		return "", err
	}

	htmlData, err := renderStatementHTML(tutor.User.FullName, entries, summary)
	if err != nil {
		return "", err
	}

	pdfBytes, err := renderPDFFromHTML(htmlData)
	if err != nil {
		return "", err
	}

	return uploadStatement(pdfBytes, tutorID.String())
}

func renderStatementHTML(tutorName string, entries []models.LedgerEntry, summary WalletSummary) (string, error) {
	tmpl, err := template.New("statement").Parse(statementTemplate)
	if err != nil {
		return "", err
	}

	rows := make([]statementRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, statementRow{
			Date:      entry.CreatedAt.Format("2006-01-02"),
			BookingID: entry.BookingID.String()[:8],
			State:     entry.State,
			Amount:    formatPence(entry.AmountPence),
		})
	}

	data := struct {
		TutorName   string
		GeneratedAt string
		Entries     []statementRow
		Pending     string
		Available   string
		Withdrawn   string
	}{
		TutorName:   tutorName,
		GeneratedAt: time.Now().Format("January 2, 2006"),
		Entries:     rows,
		Pending:     formatPence(summary.PendingPence),
		Available:   formatPence(summary.AvailablePence),
		Withdrawn:   formatPence(summary.WithdrawnPence),
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func formatPence(pence int64) string {
	return fmt.Sprintf("%d.%02d", pence/100, pence%100)
}

func renderPDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadStatement(fileBytes []byte, tutorID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("statements/%s_%s", tutorID, uuid.New().String()),
		Folder:       "tutorlink_statements",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}

// UploadEvidenceAttachment stores a dispute evidence document and returns
// the hosted URL.
func UploadEvidenceAttachment(fileBytes []byte, disputeID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("evidence/%s_%s", disputeID, uuid.New().String()),
		Folder:       "tutorlink_evidence",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
