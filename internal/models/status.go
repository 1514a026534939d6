package models

import (
	"strings"
)

// Status là trạng thái của một yêu cầu mua trong quy trình phê duyệt.
type Status string

const (
	StatusPendingPurchaseCommittee Status = "PENDING_PURCHASE_COMMITTEE"
	StatusRCCreated                Status = "RC_CREATED"
	StatusApprovedBySilva          Status = "APPROVED_BY_SILVA"
	StatusApprovedByMateos         Status = "APPROVED_BY_MATEOS"
	StatusPurchaseOrderCreated     Status = "PURCHASE_ORDER_CREATED"
	StatusAwaitingInvoice          Status = "AWAITING_INVOICE"
	StatusAwaitingDelivery         Status = "AWAITING_DELIVERY"
	StatusDelivered                Status = "DELIVERED"
	StatusServiceCompleted         Status = "SERVICE_COMPLETED"
	StatusPaid                     Status = "PAID"
	StatusRejected                 Status = "REJECTED"
	StatusCancelled                Status = "CANCELLED"
)

// InitialStatus is assigned to every new requisition.
const InitialStatus = StatusPendingPurchaseCommittee

var statusOrder = []Status{
	StatusPendingPurchaseCommittee,
	StatusRCCreated,
	StatusApprovedBySilva,
	StatusApprovedByMateos,
	StatusPurchaseOrderCreated,
	StatusAwaitingInvoice,
	StatusAwaitingDelivery,
	StatusDelivered,
	StatusServiceCompleted,
	StatusPaid,
	StatusRejected,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPendingPurchaseCommittee: "Aprovação Comitê de Compras",
	StatusRCCreated:                "Criação da RC",
	StatusApprovedBySilva:          "Aprovação Fabio Silva",
	StatusApprovedByMateos:         "Aprovação Federico Mateos",
	StatusPurchaseOrderCreated:     "Criação Pedido de Compra",
	StatusAwaitingInvoice:          "Aguardando Nota fiscal",
	StatusAwaitingDelivery:         "Aguardando entrega",
	StatusDelivered:                "Entregue",
	StatusServiceCompleted:         "Serviço realizado",
	StatusPaid:                     "Pago",
	StatusRejected:                 "Solicitação Recusada",
	StatusCancelled:                "Cancelado",
}

// Statuses returns every status in workflow order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// ParseStatus accepts a status code (any case) or its display label.
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for _, s := range statusOrder {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, statusLabels[s]) {
			return s, nil
		}
	}
	return "", &ValidationError{Code: ErrInvalidStatus.Code, Field: "status", Message: "unknown requisition status " + v}
}
