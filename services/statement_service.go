package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/penurwill/agent_network/configs"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
)

// GeneratePayoutStatement renders a statement PDF for a paid payout and
// stores its URL on the row. Best-effort: failures are logged, never
// propagated to the payout transition.
func GeneratePayoutStatement(payoutID string) {
	var payout models.Payout
	err := database.DB.Preload("Agent").Preload("PayoutItems.Commission.Sale").
		First(&payout, "id = ?", payoutID).Error
	if err != nil {
		log.Printf("🔥 Failed to load payout %s for statement: %v", payoutID, err)
		return
	}

	htmlData, err := generateStatementHTML(&payout)
	if err != nil {
		log.Printf("🔥 Failed to generate statement HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate statement PDF: %v", err)
		return
	}

	uploadURL, err := uploadStatementToCloudinary(pdfBytes, payout.ID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload statement to Cloudinary: %v", err)
		return
	}

	if err := database.DB.Model(&payout).Update("statement_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to record statement URL for payout %s: %v", payout.ID, err)
		return
	}

	log.Printf("✅ Generated payout statement for payout %s.", payout.ID)
}

func generateStatementHTML(payout *models.Payout) (string, error) {
	tmpl, err := template.ParseFiles("templates/payout_statement.html")
	if err != nil {
		return "", err
	}

	paidAt := ""
	if payout.PaidAt != nil {
		paidAt = payout.PaidAt.Format("January 2, 2006")
	}

	agentName := ""
	if payout.Agent != nil {
		agentName = payout.Agent.Name()
	}

	data := struct {
		PayoutID  string
		AgentName string
		Amount    string
		PaidAt    string
		Items     []models.PayoutItem
	}{
		PayoutID:  payout.ID.String(),
		AgentName: agentName,
		Amount:    payout.Amount.StringFixed(2),
		PaidAt:    paidAt,
		Items:     payout.PayoutItems,
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
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

func uploadStatementToCloudinary(fileBytes []byte, payoutID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("statements/payout_%s", payoutID),
		Folder:       "agent_network_statements",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
