package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"time"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var mailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const displayTimeFormat = "2006-01-02 15:04"

// Notifier renders and delivers the stage-specific customer emails.
//
// Send reports success or failure as a boolean and never escalates: message
// wording, retries, and user-facing reporting stay with the caller. On
// confirmed delivery the matching sent flag is set through a fresh
// field-level update by ID, not by writing back the in-memory snapshot.
type Notifier struct {
	repo   ports.PackageRepository
	sender ports.MailSender
}

func NewNotifier(repo ports.PackageRepository, sender ports.MailSender) *Notifier {
	return &Notifier{repo: repo, sender: sender}
}

func (n *Notifier) Send(ctx context.Context, pkg *domain.Package, kind domain.NotificationKind) bool {
	msg, err := renderMessage(pkg, kind)
	if err != nil {
		log.Printf("render %s email failed: package_id=%d err=%v", kind, pkg.ID, err)
		return false
	}

	if err := n.sender.Send(msg); err != nil {
		log.Printf("send %s email failed: package_id=%d to=%s err=%v", kind, pkg.ID, pkg.CustomerEmail, err)
		return false
	}

	// The email is out; a failed flag update only risks a duplicate later.
	if err := n.repo.MarkEmailSent(ctx, pkg.ID, kind, time.Now().UTC()); err != nil {
		log.Printf("mark %s email sent failed: package_id=%d err=%v", kind, pkg.ID, err)
	}
	return true
}

type mailData struct {
	CustomerName   string
	TrackingNumber string
	PickupCode     string
	ArrivalTime    string
	Deadline       string
}

func renderMessage(pkg *domain.Package, kind domain.NotificationKind) (ports.Message, error) {
	data := mailData{
		CustomerName:   pkg.CustomerName,
		TrackingNumber: pkg.TrackingNumber,
		PickupCode:     pkg.PickupCode,
	}

	var subject, tmpl string
	switch kind {
	case domain.NotifyWarehouseArrival:
		subject = fmt.Sprintf("您的包裹已到达仓库 - 快递单号: %s", pkg.TrackingNumber)
		tmpl = "warehouse_arrival.html"
		data.ArrivalTime = displayTime(pkg.WarehouseArrivalAt)
	case domain.NotifyCafeArrival:
		subject = fmt.Sprintf("您的包裹已到达咖啡馆 - 取件码: %s，请到咖啡馆取件", pkg.PickupCode)
		tmpl = "cafe_arrival.html"
		if pkg.CafeArrivalAt != nil {
			data.ArrivalTime = displayTime(*pkg.CafeArrivalAt)
		}
		if deadline := pkg.LatestPickupTime(); deadline != nil {
			data.Deadline = displayTime(*deadline)
		}
	default:
		return ports.Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	var body bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return ports.Message{}, fmt.Errorf("execute template %s: %w", tmpl, err)
	}

	return ports.Message{
		To:      pkg.CustomerEmail,
		Subject: subject,
		HTML:    body.String(),
	}, nil
}

func displayTime(t time.Time) string {
	return domain.ToDisplayTime(t).Format(displayTimeFormat)
}
