// Package checkout converts a user's cart into a completed order. Either the
// products are sold, the order exists and the cart is empty, or none of those
// effects remain.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/wichananm65/ecofinds-backend/internal/cart"
	"github.com/wichananm65/ecofinds-backend/internal/events"
	"github.com/wichananm65/ecofinds-backend/internal/logger"
	"github.com/wichananm65/ecofinds-backend/internal/metrics"
	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
	"golang.org/x/sync/errgroup"
)

const (
	maxIdempotencyKeyLength = 255
	publishTimeout          = 5 * time.Second
)

// Request is one checkout invocation.
type Request struct {
	UserID int
	// IdempotencyKey makes repeated invocations return the first order.
	IdempotencyKey string
}

// Validate rejects a missing user id and over-long idempotency keys.
func (r Request) Validate() error {
	if r.UserID <= 0 {
		return ErrInvalidRequest
	}
	if len(r.IdempotencyKey) > maxIdempotencyKeyLength {
		return ErrInvalidRequest
	}
	return nil
}

// Result is the order produced (or replayed) by a checkout.
type Result struct {
	Order    order.Order
	Replayed bool
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	// Tx runs the mutation phase in one database transaction. When nil the
	// service undoes partial work with compensating writes instead.
	Tx        TxRunner
	Publisher events.Publisher
	Metrics   *metrics.Checkout
	Logger    *slog.Logger
	// PurchaseRetries bounds the retries of post-order writes on the
	// compensation path.
	PurchaseRetries int
	RetryDelay      time.Duration
	// Concurrency bounds parallel product lookups.
	Concurrency int
}

// Service turns a user's cart into a completed order.
type Service struct {
	stores      Stores
	tx          TxRunner
	publisher   events.Publisher
	metrics     *metrics.Checkout
	log         *slog.Logger
	retries     int
	retryDelay  time.Duration
	concurrency int
}

// NewService builds a checkout over stores. Without opts.Tx it compensates
// failed writes instead of rolling back.
func NewService(stores Stores, opts Options) *Service {
	s := &Service{
		stores:      stores,
		tx:          opts.Tx,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		retries:     opts.PurchaseRetries,
		retryDelay:  opts.RetryDelay,
		concurrency: opts.Concurrency,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.retries <= 0 {
		s.retries = 3
	}
	if s.retryDelay <= 0 {
		s.retryDelay = 50 * time.Millisecond
	}
	if s.concurrency <= 0 {
		s.concurrency = 8
	}
	return s
}

// Checkout runs the whole workflow for req.UserID.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	res, err := s.checkout(ctx, req)
	s.metrics.Observe(outcome(res, err), time.Since(start))

	log := s.log.With("user_id", req.UserID)
	switch {
	case err == nil && res.Replayed:
		log.Info("checkout replayed", "order_id", res.Order.ID)
	case err == nil:
		log.Info("checkout completed", "order_id", res.Order.ID, "total_amount", res.Order.TotalAmount.String())
		s.publish(ctx, res.Order)
	case errors.Is(err, ErrReconciliationRequired):
		var re *ReconciliationError
		errors.As(err, &re)
		log.Error("checkout requires reconciliation", "order_id", re.OrderID, "product_ids", re.ProductIDs, "op", re.Op, "error", err)
	case errors.Is(err, ErrStorage):
		log.Error("checkout failed", "error", err)
	default:
		log.Warn("checkout rejected", "error", err)
	}
	return res, err
}

func (s *Service) checkout(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if req.IdempotencyKey != "" {
		if res, ok, err := s.replay(ctx, req); ok || err != nil {
			return res, err
		}
	}

	c, err := s.stores.Carts.GetCart(ctx, req.UserID)
	if err != nil {
		return Result{}, &StorageError{Op: "load cart", Err: err, RolledBack: true}
	}
	lines := mergeLines(c.Lines)
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	products, err := s.resolve(ctx, lines)
	if err != nil {
		return Result{}, err
	}

	items := make([]order.Item, 0, len(lines))
	for i, l := range lines {
		items = append(items, order.Item{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: products[i].Price,
		})
	}
	draft := order.Order{
		UserID:         req.UserID,
		Items:          items,
		TotalAmount:    order.Total(items),
		Status:         order.StatusCompleted,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := draft.Validate(); err != nil {
		return Result{}, err
	}

	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	// a fixed lock order keeps overlapping checkouts from deadlocking
	sort.Ints(ids)

	if s.tx != nil {
		return s.commitTx(ctx, req, draft, ids)
	}
	return s.commitCompensating(ctx, req, draft, ids)
}

// replay returns the order already created for the request's idempotency key.
func (s *Service) replay(ctx context.Context, req Request) (Result, bool, error) {
	ord, err := s.stores.Orders.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
	switch {
	case err == nil:
		return Result{Order: ord, Replayed: true}, true, nil
	case errors.Is(err, order.ErrNotFound):
		return Result{}, false, nil
	default:
		return Result{}, false, &StorageError{Op: "lookup idempotency key", Err: err, RolledBack: true}
	}
}

// resolve reads every product in parallel and checks availability. Errors are
// reported for the first failing line in cart order so the outcome does not
// depend on scheduling.
func (s *Service) resolve(ctx context.Context, lines []cart.Line) ([]product.Product, error) {
	products := make([]product.Product, len(lines))
	errs := make([]error, len(lines))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range lines {
		g.Go(func() error {
			products[i], errs[i] = s.stores.Products.GetByID(ctx, lines[i].ProductID)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		id := lines[i].ProductID
		switch {
		case errors.Is(err, product.ErrNotFound):
			return nil, &ProductNotFoundError{ProductID: id}
		case err != nil:
			return nil, &StorageError{Op: "load product", Err: err, RolledBack: true}
		case products[i].Status != product.StatusAvailable:
			return nil, &ProductUnavailableError{ProductID: id, Title: products[i].Title}
		}
	}
	return products, nil
}

func (s *Service) commitTx(ctx context.Context, req Request, draft order.Order, ids []int) (Result, error) {
	var (
		created order.Order
		failed  string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
		for _, id := range ids {
			if _, err := st.Products.MarkSold(ctx, id); err != nil {
				failed = "mark sold"
				return markSoldError(id, err)
			}
		}
		ord, err := st.Orders.Create(ctx, draft)
		if err != nil {
			failed = "create order"
			return err
		}
		if err := st.Purchases.AppendPurchase(ctx, req.UserID, ord.ID); err != nil {
			failed = "append purchase"
			return err
		}
		if _, err := st.Carts.ModifyLines(ctx, req.UserID, removeCheckedOut(draft.Items)); err != nil {
			failed = "clear cart"
			return err
		}
		created = ord
		return nil
	})
	if err == nil {
		return Result{Order: created}, nil
	}

	if errors.Is(err, order.ErrDuplicateKey) {
		return s.replayAfterDuplicate(ctx, req)
	}
	if isDomainError(err) {
		return Result{}, err
	}
	if failed == "" {
		failed = "commit"
	}
	return Result{}, &StorageError{Op: failed, Err: err, RolledBack: true}
}

func (s *Service) commitCompensating(ctx context.Context, req Request, draft order.Order, ids []int) (Result, error) {
	st := s.stores

	marked := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, err := st.Products.MarkSold(ctx, id); err != nil {
			return Result{}, s.abort(ctx, req, marked, "mark sold", markSoldError(id, err))
		}
		marked = append(marked, id)
	}

	ord, err := st.Orders.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, order.ErrDuplicateKey) {
			if abortErr := s.abort(ctx, req, marked, "create order", err); errors.Is(abortErr, ErrReconciliationRequired) {
				return Result{}, abortErr
			}
			return s.replayAfterDuplicate(ctx, req)
		}
		return Result{}, s.abort(ctx, req, marked, "create order", err)
	}

	// The order exists. From here the checkout only moves forward, on a
	// context that outlives the request.
	fctx := context.WithoutCancel(ctx)
	if err := s.retry(fctx, func(ctx context.Context) error {
		return st.Purchases.AppendPurchase(ctx, req.UserID, ord.ID)
	}); err != nil {
		return Result{}, &ReconciliationError{OrderID: ord.ID, Op: "append purchase", Err: err}
	}
	if err := s.retry(fctx, func(ctx context.Context) error {
		_, err := st.Carts.ModifyLines(ctx, req.UserID, removeCheckedOut(draft.Items))
		return err
	}); err != nil {
		return Result{}, &ReconciliationError{OrderID: ord.ID, Op: "clear cart", Err: err}
	}
	return Result{Order: ord}, nil
}

// abort restores the products marked by this checkout, newest first, and
// returns the error to report. When a restore fails the products stay sold
// without an order and the error requires reconciliation.
func (s *Service) abort(ctx context.Context, req Request, marked []int, op string, cause error) error {
	if len(marked) > 0 {
		rctx := context.WithoutCancel(ctx)
		var (
			stuck []int
			errs  []error
		)
		for i := len(marked) - 1; i >= 0; i-- {
			id := marked[i]
			if _, err := s.stores.Products.RestoreAvailable(rctx, id); err != nil {
				stuck = append(stuck, id)
				errs = append(errs, err)
				s.log.Error("restore product failed", "user_id", req.UserID, "product_id", id, "error", err)
			}
		}
		s.metrics.Compensated(len(stuck) == 0)
		if len(stuck) > 0 {
			return &ReconciliationError{
				ProductIDs: stuck,
				Op:         "restore available",
				Err:        errors.Join(append([]error{cause}, errs...)...),
			}
		}
		s.log.Warn("checkout compensated", "user_id", req.UserID, "product_ids", marked, "op", op)
	}

	if isDomainError(cause) || errors.Is(cause, order.ErrDuplicateKey) {
		return cause
	}
	return &StorageError{Op: op, Err: cause, RolledBack: true}
}

// replayAfterDuplicate handles a concurrent checkout that committed the same
// idempotency key first.
func (s *Service) replayAfterDuplicate(ctx context.Context, req Request) (Result, error) {
	res, ok, err := s.replay(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, &StorageError{Op: "create order", Err: order.ErrDuplicateKey, RolledBack: true}
	}
	return res, nil
}

func (s *Service) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * s.retryDelay)
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}

func (s *Service) publish(ctx context.Context, ord order.Order) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderCompleted(pctx, ord); err != nil {
		s.metrics.PublishFailed()
		s.log.Warn("publish order.completed failed", "order_id", ord.ID, "error", err)
	}
}

// markSoldError translates a failed status transition. A product that left
// the available state after validation was taken by a concurrent checkout.
func markSoldError(id int, err error) error {
	switch {
	case errors.Is(err, product.ErrAlreadySold), errors.Is(err, product.ErrNotAvailable):
		return &ConflictError{ProductID: id}
	case errors.Is(err, product.ErrNotFound):
		return &ProductNotFoundError{ProductID: id}
	default:
		return err
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrConcurrentSale) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductUnavailable) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, order.ErrNoItems) ||
		errors.Is(err, order.ErrInvalidTotal)
}

// removeCheckedOut takes the ordered quantities out of the cart and leaves
// lines added while the checkout ran.
func removeCheckedOut(items []order.Item) func([]cart.Line) ([]cart.Line, error) {
	taken := make([]cart.Line, 0, len(items))
	for _, it := range items {
		taken = append(taken, cart.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return func(lines []cart.Line) ([]cart.Line, error) {
		return cart.Subtract(lines, taken), nil
	}
}

// mergeLines folds duplicate product lines together and drops lines without
// a positive quantity, keeping first-seen order.
func mergeLines(lines []cart.Line) []cart.Line {
	out := make([]cart.Line, 0, len(lines))
	index := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func outcome(res Result, err error) string {
	switch {
	case err == nil && res.Replayed:
		return metrics.OutcomeReplay
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidRequest):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.Is(err, ErrProductNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrProductUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, ErrConcurrentSale):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrReconciliationRequired):
		return metrics.OutcomeReconciliation
	default:
		return metrics.OutcomeStorageError
	}
}
