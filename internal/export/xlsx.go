// Package export writes the administrative history as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"requisition-form-api-server/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetRequisitions = "Requisicoes"
	SheetWarehouse    = "Almoxarifado"

	dateLayout = "2006-01-02 15:04:05"
)

var requisitionHeader = []interface{}{
	"Número Solicitação", "Data Solicitação", "Nome do Solicitante", "Métier", "Tipo",
	"Produto Novo ou Backup", "Demanda Nova ou Prevista", "Linha de Projeto", "Tipo de Compra",
	"Itens", "Valor Total", "Status", "Riscos", "Comentários", "Orçamento",
}

var warehouseHeader = []interface{}{
	"Nome do Solicitante", "MABEC", "Descrição do Produto", "Quantidade", "Data Solicitação",
}

// Workbook builds a two-sheet workbook. The caller must Close it.
func Workbook(requisitions []models.Requisition, warehouse []models.WarehouseRequest) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetRequisitions); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetWarehouse); err != nil {
		f.Close()
		return nil, err
	}

	rows := make([][]interface{}, 0, len(requisitions)+1)
	rows = append(rows, requisitionHeader)
	for _, r := range requisitions {
		rows = append(rows, []interface{}{
			r.RequestNumber,
			r.CreatedAt.Format(dateLayout),
			r.RequesterName,
			r.Metier,
			r.Kind.Label(),
			r.ProductStatus.Label(),
			r.DemandStatus.Label(),
			r.ProjectLine,
			r.PurchaseType.Label(),
			describeItems(r.LineItems),
			r.TotalValue.Float64(),
			r.Status.Label(),
			r.Risks,
			r.Comments,
			r.AttachmentPath,
		})
	}
	if err := writeRows(f, SheetRequisitions, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = make([][]interface{}, 0, len(warehouse)+1)
	rows = append(rows, warehouseHeader)
	for _, w := range warehouse {
		rows = append(rows, []interface{}{
			w.RequesterName,
			w.MabecCode,
			w.ProductDescription,
			w.Quantity,
			w.CreatedAt.Format(dateLayout),
		})
	}
	if err := writeRows(f, SheetWarehouse, rows); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, requisitions []models.Requisition, warehouse []models.WarehouseRequest) error {
	f, err := Workbook(requisitions, warehouse)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func describeItems(items []models.LineItem) string {
	parts := make([]string, 0, len(items))
	for i, it := range items {
		parts = append(parts, fmt.Sprintf("%d. %s - %d x %s = %s", i+1, it.Description, it.Quantity, it.UnitValue, it.Subtotal))
	}
	return strings.Join(parts, "\n")
}
