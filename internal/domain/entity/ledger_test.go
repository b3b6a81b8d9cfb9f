package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedgerRecalculate(t *testing.T) {
	tests := []struct {
		name        string
		ledger      Ledger
		wantTotal   string
		wantBalance string
		wantStatus  PaymentStatus
	}{
		{
			name: "unpaid",
			ledger: Ledger{
				BillingCodes: BillingLineItems{{Code: "98941", Units: 1, UnitPrice: dec("65")}},
			},
			wantTotal:   "65",
			wantBalance: "65",
			wantStatus:  PaymentPending,
		},
		{
			name: "partial with units and discount",
			ledger: Ledger{
				BillingCodes: BillingLineItems{
					{Code: "97140", Units: 2, UnitPrice: dec("40")},
					{Code: "97110", UnitPrice: dec("35")},
				},
				Discounts:  Discounts{{Amount: dec("15")}},
				AmountPaid: dec("50"),
			},
			wantTotal:   "100",
			wantBalance: "50",
			wantStatus:  PaymentPartial,
		},
		{
			name: "discount larger than subtotal",
			ledger: Ledger{
				BillingCodes: BillingLineItems{{Code: "99212", Units: 1, UnitPrice: dec("20")}},
				Discounts:    Discounts{{Amount: dec("50")}},
			},
			wantTotal:   "0",
			wantBalance: "0",
			wantStatus:  PaymentPaid,
		},
		{
			name: "overpaid",
			ledger: Ledger{
				BillingCodes: BillingLineItems{{Code: "98941", Units: 1, UnitPrice: dec("65")}},
				AmountPaid:   dec("70"),
			},
			wantTotal:   "65",
			wantBalance: "-5",
			wantStatus:  PaymentPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.ledger
			l.Recalculate()

			if !l.TotalAmount.Equal(dec(tt.wantTotal)) {
				t.Errorf("TotalAmount = %s, want %s", l.TotalAmount, tt.wantTotal)
			}
			if !l.Balance.Equal(dec(tt.wantBalance)) {
				t.Errorf("Balance = %s, want %s", l.Balance, tt.wantBalance)
			}
			if l.PaymentStatus != tt.wantStatus {
				t.Errorf("PaymentStatus = %q, want %q", l.PaymentStatus, tt.wantStatus)
			}

			again := l
			again.Recalculate()
			if !again.TotalAmount.Equal(l.TotalAmount) || !again.Balance.Equal(l.Balance) {
				t.Error("Recalculate is not idempotent")
			}
		})
	}
}

func TestLedgerRecalculateDefaultsUnitsAndLineTotals(t *testing.T) {
	l := Ledger{BillingCodes: BillingLineItems{{Code: "97140", UnitPrice: dec("40"), TotalPrice: dec("9999")}}}
	l.Recalculate()

	item := l.BillingCodes[0]
	if item.Units != 1 {
		t.Errorf("Units = %d, want 1", item.Units)
	}
	if !item.TotalPrice.Equal(dec("40")) {
		t.Errorf("client-supplied TotalPrice must be replaced, got %s", item.TotalPrice)
	}
}

func TestLedgerInsuranceSplit(t *testing.T) {
	l := Ledger{
		BillingCodes: BillingLineItems{
			{Code: "98941", Units: 1, UnitPrice: dec("100"), CoveragePercent: dec("80")},
			{Code: "97110", Units: 1, UnitPrice: dec("50")},
		},
		Insurance: &InsuranceClaim{Provider: "Acme"},
	}
	l.Recalculate()

	if !l.Insurance.CoveredAmount.Equal(dec("80")) {
		t.Errorf("CoveredAmount = %s, want 80", l.Insurance.CoveredAmount)
	}
	if !l.Insurance.PatientResponsibility.Equal(dec("70")) {
		t.Errorf("PatientResponsibility = %s, want 70", l.Insurance.PatientResponsibility)
	}
	if !l.Balance.Equal(dec("150")) {
		t.Errorf("insurance must not change the balance, got %s", l.Balance)
	}
}

func TestLedgerVoid(t *testing.T) {
	actor := uuid.New()
	now := time.Now()
	l := Ledger{}
	l.Void(actor, "duplicate entry", now)

	if !l.IsVoided || l.VoidReason != "duplicate entry" || l.VoidedBy == nil || *l.VoidedBy != actor {
		t.Fatalf("void not recorded: %+v", l)
	}
}

func TestMirrorLedgerKeepsExistingSignature(t *testing.T) {
	appt := &Appointment{Signature: Signature{Data: "existing"}}
	l := &Ledger{TotalAmount: dec("65"), AmountPaid: dec("65")}

	appt.MirrorLedger(l)

	if appt.Signature.Data != "existing" {
		t.Errorf("empty ledger signature overwrote appointment signature")
	}
	if !appt.TotalAmount.Equal(dec("65")) || !appt.AmountPaid.Equal(dec("65")) {
		t.Errorf("amounts not mirrored: %+v", appt)
	}
}
