package email

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is the payment confirmation rendered into the PDF attachment.
type Receipt struct {
	OrderID     string
	PaymentID   string
	PatientName string
	DoctorName  string
	Appointment string
	Amount      int64
	Currency    string
	PaidAt      time.Time
}

func (r Receipt) FileName() string {
	return fmt.Sprintf("receipt-%s.pdf", r.OrderID)
}

// FormatAmount renders minor units as "INR 500.00".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, amount/100, amount%100)
}

func RenderReceipt(r Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 70, 140)
	pdf.CellFormat(0, 10, "Quick Clinic", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Payment Receipt", "1", 1, "C", false, 0, "")

	receiptRow(pdf, "Order", r.OrderID)
	receiptRow(pdf, "Payment", r.PaymentID)
	if r.PatientName != "" {
		receiptRow(pdf, "Patient", r.PatientName)
	}
	if r.DoctorName != "" {
		receiptRow(pdf, "Doctor", r.DoctorName)
	}
	if r.Appointment != "" {
		receiptRow(pdf, "Appointment", r.Appointment)
	}
	receiptRow(pdf, "Paid at", r.PaidAt.UTC().Format("2006-01-02 15:04 MST"))

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(45, 10, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 10, FormatAmount(r.Amount, r.Currency), "1", 1, "", false, 0, "")

	pdf.SetY(pdf.GetY() + 12)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func receiptRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(45, 10, label, "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 10, value, "1", 1, "", false, 0, "")
}
