package services

import (
	"database/sql"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hopefoundation/backend/internal/models"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
)

// RemittanceService renders bank-transfer donations as ISO 20022
// pacs.008 credit transfer documents for bank reconciliation.
type RemittanceService struct {
	db *sql.DB
}

const creditorName = "Hope Foundation"

func NewRemittanceService(db *sql.DB) *RemittanceService {
	return &RemittanceService{db: db}
}

// ExportRemittance returns the pacs.008 XML for a bank-transfer donation
// @Summary Export donation as ISO 20022 remittance
// @Tags remittance
// @Produce xml
// @Param reference path string true "Donation reference code"
// @Success 200 {string} string "pacs.008 XML"
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /remittance/{reference} [get]
func (s *RemittanceService) ExportRemittance(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var d models.Donation
	err := s.db.QueryRow(`
		SELECT transaction_id, reference_code, donor_name, amount, currency, payment_method, created_at
		FROM donations
		WHERE reference_code = $1
	`, reference).Scan(&d.TransactionID, &d.ReferenceCode, &d.DonorName,
		&d.Amount, &d.Currency, &d.PaymentMethod, &d.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Donation not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[REMITTANCE] Failed to fetch donation %s: %v", reference, err)
			SendErrorResponse(w, "Failed to fetch donation", http.StatusInternalServerError, nil)
		}
		return
	}

	if d.PaymentMethod != "bank_transfer" {
		SendErrorResponse(w, "Only bank transfer donations can be exported", http.StatusUnprocessableEntity, nil)
		return
	}

	doc, err := s.CreatePacs008(&d)
	if err != nil {
		log.Printf("[REMITTANCE] Failed to build pacs.008 for %s: %v", reference, err)
		SendErrorResponse(w, "Failed to build remittance document", http.StatusInternalServerError, nil)
		return
	}

	xmlData, err := s.ConvertToXML(doc)
	if err != nil {
		log.Printf("[REMITTANCE] Failed to marshal pacs.008 for %s: %v", reference, err)
		SendErrorResponse(w, "Failed to render remittance document", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xmlData))
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message
// for a donation
func (s *RemittanceService) CreatePacs008(d *models.Donation) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := d.CreatedAt

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(d.Currency),
				Value: d.Amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG", // Clearing
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(d.TransactionID)}[0],
					EndToEndId: common.Max35Text(d.ReferenceCode),
					TxId:       &[]common.Max35Text{common.Max35Text(d.TransactionID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(d.Currency),
					Value: d.Amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(d.DonorName)}[0],
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(creditorName)}[0],
				},
			},
		},
	}

	return doc, nil
}

// ConvertToXML converts an ISO 20022 document to an XML string
func (s *RemittanceService) ConvertToXML(doc any) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
