package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Service defines notification create/list/read operations.
type Service interface {
	NotifyPaymentOutcome(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, amount decimal.Decimal) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) NotifyPaymentOutcome(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, amount decimal.Decimal) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !notificationType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	title, message := renderPaymentOutcome(notificationType, amount)
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	})
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id required")
	}
	updated, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func renderPaymentOutcome(notificationType enums.NotificationType, amount decimal.Decimal) (string, string) {
	formatted := "R$ " + amount.StringFixed(2)
	switch notificationType {
	case enums.NotificationTypePaymentReceived:
		return "Pagamento recebido", fmt.Sprintf("Você recebeu %s na sua carteira.", formatted)
	case enums.NotificationTypePaymentFailed:
		return "Pagamento não aprovado", fmt.Sprintf("Um pagamento de %s não foi aprovado.", formatted)
	case enums.NotificationTypePaymentExpired:
		return "Cobrança expirada", fmt.Sprintf("Uma cobrança de %s expirou sem pagamento.", formatted)
	case enums.NotificationTypeInvoicePaid:
		return "Boleto pago", fmt.Sprintf("O boleto de %s foi pago.", formatted)
	default:
		return "Atualização de pagamento", fmt.Sprintf("Movimentação de %s na sua conta.", formatted)
	}
}
