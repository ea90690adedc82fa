package reconciliation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/internal/fees"
	"github.com/dimworks/dimpay-backend/internal/invoices"
	"github.com/dimworks/dimpay-backend/internal/notifications"
	"github.com/dimworks/dimpay-backend/internal/transactions"
	"github.com/dimworks/dimpay-backend/internal/wallets"
	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the engine's collaborators.
type ServiceParams struct {
	TransactionsRepo  transactions.Repository
	InvoicesRepo      invoices.Repository
	WalletsRepo       wallets.Repository
	ExceptionsRepo    ExceptionsRepository
	Notifications     notifications.Service
	FeePolicy         *fees.Policy
	TransactionRunner txRunner
	Logger            *logger.Logger

	// Matchers overrides the default strategy chain; mostly for tests.
	Matchers []Matcher

	HouseWalletName string
	DefaultCurrency string
}

// Service is the reconciliation engine. It correlates confirmed provider
// notices to internal records, drives their status machine and performs
// settlement exactly once per transaction.
type Service struct {
	transactions    transactions.Repository
	invoices        invoices.Repository
	wallets         wallets.Repository
	exceptions      ExceptionsRepository
	notifications   notifications.Service
	feePolicy       *fees.Policy
	txRunner        txRunner
	logg            *logger.Logger
	matchers        []Matcher
	houseWalletName string
	defaultCurrency string
}

// NewService validates and wires the reconciliation engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transactions repo required")
	}
	if params.InvoicesRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoices repo required")
	}
	if params.WalletsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallets repo required")
	}
	if params.ExceptionsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "exceptions repo required")
	}
	if params.FeePolicy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee policy required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.HouseWalletName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "house wallet name required")
	}

	matchers := params.Matchers
	if matchers == nil {
		matchers = DefaultMatchers(params.TransactionsRepo, params.InvoicesRepo)
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = "BRL"
	}

	return &Service{
		transactions:    params.TransactionsRepo,
		invoices:        params.InvoicesRepo,
		wallets:         params.WalletsRepo,
		exceptions:      params.ExceptionsRepo,
		notifications:   params.Notifications,
		feePolicy:       params.FeePolicy,
		txRunner:        params.TransactionRunner,
		logg:            params.Logger,
		matchers:        matchers,
		houseWalletName: params.HouseWalletName,
		defaultCurrency: currency,
	}, nil
}

// Reconcile resolves a notice to an internal record and advances it.
// An unmatched notice is not an error: providers routinely deliver events
// for charges owned by other systems on the same account.
func (s *Service) Reconcile(ctx context.Context, notice ProviderNotice) (Outcome, error) {
	if !notice.Acquirer.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown acquirer")
	}
	if notice.ExternalID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "provider payment id required")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"acquirer":    notice.Acquirer.String(),
			"external_id": notice.ExternalID,
			"status":      notice.Status,
		})
	}

	match, matcherName, err := s.lookup(ctx, notice)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match notice")
	}
	if match == nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "notice matched no transaction or invoice")
		}
		return OutcomeIgnored, nil
	}

	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "matcher", matcherName)
	}

	if match.Invoice != nil {
		return s.reconcileInvoice(ctx, match.Invoice, notice)
	}
	return s.reconcileTransaction(ctx, match.Transaction, notice)
}

func (s *Service) lookup(ctx context.Context, notice ProviderNotice) (*Match, string, error) {
	for _, matcher := range s.matchers {
		match, err := matcher.Match(ctx, notice)
		if err != nil {
			return nil, "", err
		}
		if match != nil {
			return match, matcher.Name(), nil
		}
	}
	return nil, "", nil
}

func (s *Service) reconcileTransaction(ctx context.Context, transaction *models.Transaction, notice ProviderNotice) (Outcome, error) {
	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, transaction.ID.String())
	}

	// Terminal statuses absorb every later delivery.
	if transaction.Status.IsTerminal() {
		return OutcomeNoChange, nil
	}

	target := MapProviderStatus(notice.Status)

	switch target {
	case enums.TransactionStatusCompleted:
		var endToEndID *string
		if notice.EndToEndID != "" {
			endToEndID = &notice.EndToEndID
		}
		applied, err := s.transactions.TransitionStatus(ctx, transaction.ID, target, endToEndID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transaction")
		}
		if !applied {
			// A concurrent delivery won the conditional update and owns
			// the settlement.
			return OutcomeNoChange, nil
		}
		s.settleTransaction(ctx, transaction, notice)
		return OutcomeSettled, nil

	case enums.TransactionStatusFailed, enums.TransactionStatusExpired:
		applied, err := s.transactions.TransitionStatus(ctx, transaction.ID, target, nil)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize transaction")
		}
		if !applied {
			return OutcomeNoChange, nil
		}
		s.notifyOutcome(ctx, transaction.UserID, failureNotificationType(target), transaction.Amount)
		return OutcomeStatusUpdated, nil

	default:
		if transaction.Status != enums.TransactionStatusPending {
			return OutcomeNoChange, nil
		}
		applied, err := s.transactions.TransitionStatus(ctx, transaction.ID, enums.TransactionStatusProcessing, nil)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance transaction")
		}
		if !applied {
			return OutcomeNoChange, nil
		}
		return OutcomeStatusUpdated, nil
	}
}

func (s *Service) reconcileInvoice(ctx context.Context, invoice *models.Invoice, notice ProviderNotice) (Outcome, error) {
	if notice.Status != ProviderStatusApproved {
		return OutcomeNoChange, nil
	}

	applied, err := s.invoices.MarkPaid(ctx, invoice.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
	}
	if !applied {
		return OutcomeNoChange, nil
	}

	s.payout(ctx, payoutParams{
		UserID:           invoice.UserID,
		CurrencyCode:     s.defaultCurrency,
		NetAmount:        invoice.NetAmount,
		FeeAmount:        invoice.FeeAmount,
		ReferenceType:    "invoice",
		ReferenceID:      invoice.ID,
		Raw:              notice.Raw,
		NotificationType: enums.NotificationTypeInvoicePaid,
	})
	return OutcomeInvoicePaid, nil
}

// ApplyManualStatus is the administrative status override. It honors the
// same monotonicity rules as the webhook path and reuses its settlement so
// crediting still happens at most once.
func (s *Service) ApplyManualStatus(ctx context.Context, transactionID uuid.UUID, status enums.TransactionStatus) (Outcome, error) {
	if !status.IsValid() || status == enums.TransactionStatusPending {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported target status")
	}

	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if transaction == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	if transaction.Status.IsTerminal() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already finalized")
	}

	applied, err := s.transactions.TransitionStatus(ctx, transaction.ID, status, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction status")
	}
	if !applied {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already finalized")
	}

	if status == enums.TransactionStatusCompleted {
		s.settleTransaction(ctx, transaction, ProviderNotice{
			Acquirer:   transaction.Acquirer,
			ExternalID: transaction.ExternalID,
			Status:     ProviderStatusApproved,
		})
		return OutcomeSettled, nil
	}
	return OutcomeStatusUpdated, nil
}

// settleTransaction runs the side effects of a first transition into
// completed. Faults here never bubble up to the webhook response: the
// status transition already happened and re-delivery cannot fix a missing
// wallet. Each fault lands in the exception queue instead.
func (s *Service) settleTransaction(ctx context.Context, transaction *models.Transaction, notice ProviderNotice) {
	fee := transaction.FeeAmount
	net := transaction.NetAmount
	if net.IsZero() && transaction.Amount.IsPositive() {
		quote, err := s.feePolicy.Quote(transaction.Amount, transaction.TransactionType, transaction.Acquirer)
		if err != nil {
			s.recordException(ctx, &transaction.ID, "fee_quote", err, notice.Raw)
			return
		}
		fee = quote.FeeAmount
		net = quote.NetAmount
	}

	s.payout(ctx, payoutParams{
		UserID:           transaction.UserID,
		CurrencyCode:     transaction.CurrencyCode,
		NetAmount:        net,
		FeeAmount:        fee,
		ReferenceType:    "pix_transaction",
		ReferenceID:      transaction.ID,
		Raw:              notice.Raw,
		NotificationType: enums.NotificationTypePaymentReceived,
	})
}

type payoutParams struct {
	UserID           uuid.UUID
	CurrencyCode     string
	NetAmount        decimal.Decimal
	FeeAmount        decimal.Decimal
	ReferenceType    string
	ReferenceID      uuid.UUID
	Raw              json.RawMessage
	NotificationType enums.NotificationType
}

// payout credits the receiver and the house wallet independently: a fault
// on either side never rolls back the other.
func (s *Service) payout(ctx context.Context, params payoutParams) {
	var faults error

	wallet, err := s.wallets.FindActiveByUser(ctx, params.UserID, params.CurrencyCode)
	switch {
	case err != nil:
		faults = multierr.Append(faults, err)
		s.recordException(ctx, &params.ReferenceID, "wallet_lookup", err, params.Raw)
	case wallet == nil:
		missing := pkgerrors.New(pkgerrors.CodeNotFound, "no active wallet for user")
		faults = multierr.Append(faults, missing)
		s.recordException(ctx, &params.ReferenceID, "wallet_lookup", missing, params.Raw)
	default:
		creditErr := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.wallets.WithTx(tx).Credit(ctx, wallets.MutationParams{
				WalletID:      wallet.ID,
				Amount:        params.NetAmount,
				Description:   "Crédito de pagamento confirmado",
				ReferenceType: params.ReferenceType,
				ReferenceID:   &params.ReferenceID,
			})
			return err
		})
		if creditErr != nil {
			faults = multierr.Append(faults, creditErr)
			s.recordException(ctx, &params.ReferenceID, "wallet_credit", creditErr, params.Raw)
		}
	}

	if params.FeeAmount.IsPositive() {
		house, err := s.wallets.FindHouseWallet(ctx, s.houseWalletName)
		switch {
		case err != nil:
			faults = multierr.Append(faults, err)
			s.recordException(ctx, &params.ReferenceID, "fee_credit", err, params.Raw)
		case house == nil:
			missing := pkgerrors.New(pkgerrors.CodeNotFound, "house wallet not found")
			faults = multierr.Append(faults, missing)
			s.recordException(ctx, &params.ReferenceID, "fee_credit", missing, params.Raw)
		default:
			feeErr := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := s.wallets.WithTx(tx).Credit(ctx, wallets.MutationParams{
					WalletID:      house.ID,
					Amount:        params.FeeAmount,
					Description:   "Tarifa de transação",
					ReferenceType: params.ReferenceType,
					ReferenceID:   &params.ReferenceID,
				})
				return err
			})
			if feeErr != nil {
				faults = multierr.Append(faults, feeErr)
				s.recordException(ctx, &params.ReferenceID, "fee_credit", feeErr, params.Raw)
			}
		}
	}

	s.notifyOutcome(ctx, params.UserID, params.NotificationType, params.NetAmount)

	if faults != nil && s.logg != nil {
		s.logg.Error(ctx, "settlement finished with faults", faults)
	}
}

func (s *Service) notifyOutcome(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, amount decimal.Decimal) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.NotifyPaymentOutcome(ctx, userID, notificationType, amount); err != nil && s.logg != nil {
		s.logg.Error(ctx, "emit notification", err)
	}
}

func (s *Service) recordException(ctx context.Context, transactionID *uuid.UUID, step string, cause error, raw json.RawMessage) {
	exception := &models.ReconciliationException{
		TransactionID: transactionID,
		Step:          step,
		Detail:        cause.Error(),
		Payload:       raw,
	}
	if err := s.exceptions.Create(ctx, exception); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "step", step)
		s.logg.Error(ctx, "write reconciliation exception", err)
	}
}

func failureNotificationType(status enums.TransactionStatus) enums.NotificationType {
	if status == enums.TransactionStatusExpired {
		return enums.NotificationTypePaymentExpired
	}
	return enums.NotificationTypePaymentFailed
}
