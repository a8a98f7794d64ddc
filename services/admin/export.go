package admin

import (
	"context"
	"fmt"
	"time"

	"camionback/models"
	"camionback/services/workflow"

	"github.com/xuri/excelize/v2"
)

const exportDateLayout = "2006-01-02 15:04"

var requestHeaders = []string{
	"Référence", "Client", "Départ", "Arrivée", "Date", "Statut", "Coordination",
	"Catégorie", "Paiement", "Montant transporteur", "Commission", "Total client",
	"Transporteur", "Créée le",
}

var paymentHeaders = []string{
	"Référence", "Client", "Transporteur", "Paiement", "Montant transporteur",
	"Commission", "Total client", "Reçu", "Payée le", "Validée le",
}

// sheet writes a header row and data rows to a fresh workbook.
func sheet(name string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(name)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(name, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write %s workbook: %w", name, err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}

// parties resolves the display names of the clients and transporters of reqs.
func (s *DefaultAdminService) parties(ctx context.Context, reqs []models.TransportRequest) (map[string]models.User, error) {
	seen := map[string]bool{}
	var ids []string
	for _, r := range reqs {
		for _, id := range []string{r.ClientID, r.AssignedTransporterID} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := s.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func displayName(u models.User) string {
	if u.ClientID != "" {
		return u.ClientID + " " + u.Name
	}
	return u.Name
}

func (s *DefaultAdminService) ExportRequests(ctx context.Context, filter models.RequestFilter) ([]byte, error) {
	reqs, err := s.repos.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	users, err := s.parties(ctx, reqs)
	if err != nil {
		return nil, err
	}
	tags, err := s.repos.Catalog.ListCoordinationStatuses(ctx)
	if err != nil {
		return nil, err
	}
	tagCategory := make(map[string]workflow.Category, len(tags))
	for _, t := range tags {
		tagCategory[t.Value] = t.Category
	}

	rows := make([][]interface{}, 0, len(reqs))
	for _, r := range reqs {
		category := workflow.CategoryOf(r.CoordinationStatus, tagCategory[r.CoordinationTag])
		rows = append(rows, []interface{}{
			r.ReferenceID,
			displayName(users[r.ClientID]),
			r.FromCity,
			r.ToCity,
			r.DateTime.Format(exportDateLayout),
			string(r.Status),
			string(r.CoordinationStatus),
			categoryLabels[category],
			string(r.PaymentStatus),
			r.TransporterAmount,
			r.PlatformFee,
			r.ClientTotal,
			displayName(users[r.AssignedTransporterID]),
			r.CreatedAt.Format(exportDateLayout),
		})
	}
	return sheet("Commandes", requestHeaders, rows)
}

// ExportPayments lists every request that entered the payment chain.
func (s *DefaultAdminService) ExportPayments(ctx context.Context) ([]byte, error) {
	var statuses []workflow.PaymentStatus
	for _, p := range workflow.PaymentStatuses {
		if p != workflow.PaymentNone {
			statuses = append(statuses, p)
		}
	}
	reqs, err := s.repos.Requests.List(ctx, models.RequestFilter{PaymentStatuses: statuses})
	if err != nil {
		return nil, err
	}
	users, err := s.parties(ctx, reqs)
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []interface{}{
			r.ReferenceID,
			displayName(users[r.ClientID]),
			displayName(users[r.AssignedTransporterID]),
			string(r.PaymentStatus),
			r.TransporterAmount,
			r.PlatformFee,
			r.ClientTotal,
			r.PaymentReceipt,
			formatTime(r.PaymentDate),
			formatTime(r.PaymentValidatedAt),
		})
	}
	return sheet("Paiements", paymentHeaders, rows)
}
