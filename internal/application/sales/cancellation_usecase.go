package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// Eligibility réponse de CanCancel.
type Eligibility struct {
	Allowed bool
	Reason  string
}

// CancelInput demande d'annulation.
type CancelInput struct {
	SaleID string
	Reason string
	Actor  entity.Actor
}

// CancellationResult trace d'annulation et soldes boutique rétablis.
type CancellationResult struct {
	Cancellation *entity.SaleCancellation
	Sale         *entity.Sale
	Changes      []inventory.LedgerChange
}

// CancellationUseCase annulation d'une vente validée: restitue le stock boutique, passe la vente à "annulee"
// et écrit une trace unique. Une vente déjà annulée est refusée, jamais restituée deux fois.
type CancellationUseCase struct {
	tx       inventory.TxRunner
	repos    repository.Repos
	ledger   *inventory.Ledger
	recorder *inventory.MovementRecorder
	cache    inventory.StockCache
	policy   CancellationPolicy
	log      *logger.Logger
	now      func() time.Time
}

// NewCancellationUseCase construit le cas d'usage.
func NewCancellationUseCase(tx inventory.TxRunner, repos repository.Repos, ledger *inventory.Ledger, recorder *inventory.MovementRecorder, cache inventory.StockCache, policy CancellationPolicy, log *logger.Logger) *CancellationUseCase {
	if policy.Window <= 0 {
		policy.Window = 7 * 24 * time.Hour
	}
	if policy.MinReasonLength <= 0 {
		policy.MinReasonLength = 10
	}
	return &CancellationUseCase{
		tx: tx, repos: repos, ledger: ledger, recorder: recorder, cache: cache,
		policy: policy, log: log, now: time.Now,
	}
}

// check renvoie une NotEligibleError dès la première règle non respectée.
func (uc *CancellationUseCase) check(actor entity.Actor, sale *entity.Sale, reason string) error {
	if !actor.IsElevated() {
		return &domain.NotEligibleError{Reason: "privilège gérant ou administrateur requis"}
	}
	if sale == nil {
		return &domain.NotEligibleError{Reason: "vente introuvable"}
	}
	if sale.Status != entity.SaleValidated {
		return &domain.NotEligibleError{Reason: fmt.Sprintf("vente au statut %q", sale.Status)}
	}
	if sale.Age(uc.now()) > uc.policy.Window {
		days := int(uc.policy.Window.Hours() / 24)
		return &domain.NotEligibleError{Reason: fmt.Sprintf("vente de plus de %d jours", days)}
	}
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < uc.policy.MinReasonLength {
		return &domain.NotEligibleError{Reason: fmt.Sprintf("motif d'au moins %d caractères requis", uc.policy.MinReasonLength)}
	}
	return nil
}

// CanCancel évalue les règles sans rien modifier.
func (uc *CancellationUseCase) CanCancel(ctx context.Context, actor entity.Actor, saleID, reason string) (*Eligibility, error) {
	sale, err := uc.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := uc.check(actor, sale, reason); err != nil {
		var ne *domain.NotEligibleError
		if errors.As(err, &ne) {
			return &Eligibility{Allowed: false, Reason: ne.Reason}, nil
		}
		return nil, err
	}
	return &Eligibility{Allowed: true}, nil
}

// Cancel annule la vente dans une transaction, ligne de vente verrouillée.
func (uc *CancellationUseCase) Cancel(ctx context.Context, in CancelInput) (*CancellationResult, error) {
	var res *CancellationResult
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		res, err = uc.cancelInTx(ctx, r, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	inventory.InvalidateCache(ctx, uc.cache, uc.log)
	uc.log.Info().
		Str("sale_id", res.Sale.ID).
		Str("ticket", res.Sale.TicketNumber).
		Str("amount", res.Cancellation.Amount.String()).
		Str("cancelled_by", in.Actor.ID).
		Msg("vente annulée")
	return res, nil
}

func (uc *CancellationUseCase) cancelInTx(ctx context.Context, r repository.Repos, in CancelInput) (*CancellationResult, error) {
	sale, err := r.Sales.GetByIDForUpdate(ctx, in.SaleID)
	if err != nil {
		return nil, err
	}
	if err := uc.check(in.Actor, sale, in.Reason); err != nil {
		return nil, err
	}

	changes := make([]inventory.LedgerChange, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		change, err := uc.ledger.Apply(ctx, r, l.ProductID, entity.PoolShop, entity.StockDelta{
			Available: l.Quantity,
			Sold:      l.Quantity.Neg(),
		})
		if err != nil {
			return nil, err
		}
		uc.recorder.RecordChange(ctx, r.Movements, change, entity.MovementAnnulationVente, l.Quantity, in.Actor.ID, sale.TicketNumber, strings.TrimSpace(in.Reason))
		changes = append(changes, *change)
	}

	if err := r.Sales.UpdateStatus(ctx, sale.ID, entity.SaleValidated, entity.SaleCancelled); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.NotEligibleError{Reason: "vente déjà annulée"}
		}
		return nil, err
	}
	now := uc.now()
	c := &entity.SaleCancellation{
		ID:           uuid.New().String(),
		SaleID:       sale.ID,
		TicketNumber: sale.TicketNumber,
		Amount:       sale.Total,
		Reason:       strings.TrimSpace(in.Reason),
		CancelledBy:  in.Actor.ID,
		CancelledAt:  now,
	}
	if err := r.Cancellations.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, &domain.NotEligibleError{Reason: "vente déjà annulée"}
		}
		return nil, err
	}
	sale.Status = entity.SaleCancelled
	sale.UpdatedAt = now
	return &CancellationResult{Cancellation: c, Sale: sale, Changes: changes}, nil
}

// GetCancellation trace d'annulation d'une vente.
func (uc *CancellationUseCase) GetCancellation(ctx context.Context, saleID string) (*entity.SaleCancellation, error) {
	c, err := uc.repos.Cancellations.GetBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: aucune annulation pour la vente %s", domain.ErrNotFound, saleID)
	}
	return c, nil
}
