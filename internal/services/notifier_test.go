package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cafe-pickup-service/internal/adapters/mail"
	"cafe-pickup-service/internal/domain"
)

func cafePackage(repo *mockRepo) *domain.Package {
	arrived := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	pkg := &domain.Package{
		CustomerName:       "Li Wei",
		CustomerEmail:      "liwei@example.com",
		TrackingNumber:     "YT20001",
		PickupCode:         "654321",
		Status:             domain.StatusCafeArrived,
		WarehouseArrivalAt: arrived.Add(-48 * time.Hour),
		CafeArrivalAt:      &arrived,
		CreatedAt:          arrived,
		UpdatedAt:          arrived,
	}
	return repo.add(pkg)
}

func TestNotifierSendCafeArrival(t *testing.T) {
	repo := newMockRepo()
	sender := mail.NewMockSender()
	n := NewNotifier(repo, sender)
	pkg := cafePackage(repo)

	if !n.Send(context.Background(), pkg, domain.NotifyCafeArrival) {
		t.Fatal("Send returned false")
	}

	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	msg := sent[0]
	if msg.To != "liwei@example.com" {
		t.Fatalf("To = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, pkg.PickupCode) {
		t.Fatalf("subject %q does not carry the pickup code", msg.Subject)
	}
	if !strings.Contains(msg.HTML, pkg.PickupCode) || !strings.Contains(msg.HTML, pkg.CustomerName) {
		t.Fatal("body missing pickup code or customer name")
	}

	stored, _ := repo.GetByID(context.Background(), pkg.ID)
	if !stored.CafeEmailSent {
		t.Fatal("cafe sent flag not set after delivery")
	}
	if stored.WarehouseEmailSent {
		t.Fatal("warehouse sent flag must stay untouched")
	}
}

func TestNotifierSendWarehouseArrival(t *testing.T) {
	repo := newMockRepo()
	sender := mail.NewMockSender()
	n := NewNotifier(repo, sender)
	pkg := seedPackage(repo, domain.StatusWarehouseArrived)

	if !n.Send(context.Background(), pkg, domain.NotifyWarehouseArrival) {
		t.Fatal("Send returned false")
	}

	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Subject, pkg.TrackingNumber) {
		t.Fatalf("subject %q does not carry the tracking number", sent[0].Subject)
	}

	stored, _ := repo.GetByID(context.Background(), pkg.ID)
	if !stored.WarehouseEmailSent {
		t.Fatal("warehouse sent flag not set after delivery")
	}
}

func TestNotifierTransportFailure(t *testing.T) {
	repo := newMockRepo()
	sender := &mail.MockSender{Err: errors.New("smtp unreachable")}
	n := NewNotifier(repo, sender)
	pkg := cafePackage(repo)

	if n.Send(context.Background(), pkg, domain.NotifyCafeArrival) {
		t.Fatal("Send reported success on transport failure")
	}

	stored, _ := repo.GetByID(context.Background(), pkg.ID)
	if stored.CafeEmailSent {
		t.Fatal("sent flag must not be set when delivery failed")
	}
}

func TestNotifierMarkFailureStillSucceeds(t *testing.T) {
	repo := newMockRepo()
	repo.markErr = errors.New("store busy")
	sender := mail.NewMockSender()
	n := NewNotifier(repo, sender)
	pkg := cafePackage(repo)

	// the email went out, so the send counts even if the flag write failed
	if !n.Send(context.Background(), pkg, domain.NotifyCafeArrival) {
		t.Fatal("Send returned false after successful delivery")
	}
	if len(sender.Sent()) != 1 {
		t.Fatal("message was not delivered")
	}
}

func TestNotifierUnknownKind(t *testing.T) {
	repo := newMockRepo()
	sender := mail.NewMockSender()
	n := NewNotifier(repo, sender)
	pkg := cafePackage(repo)

	if n.Send(context.Background(), pkg, "sms") {
		t.Fatal("Send accepted an unknown kind")
	}
	if len(sender.Sent()) != 0 {
		t.Fatal("no message should be sent for an unknown kind")
	}
}
