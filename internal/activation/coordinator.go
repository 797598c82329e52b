package activation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cybersms/numstore/internal/models"
	"github.com/cybersms/numstore/internal/provider"
	"github.com/cybersms/numstore/internal/session"
	internalsettings "github.com/cybersms/numstore/internal/settings"
	"github.com/cybersms/numstore/internal/store"

	"github.com/google/uuid"
)

var (
	ErrAuthenticationRequired = errors.New("activation: authentication required")
	ErrInsufficientFunds      = errors.New("activation: insufficient funds")
	ErrInvalidPrice           = errors.New("activation: quoted price must be positive")
	ErrCancelRefused          = errors.New("activation: provider refused cancellation")
)

// RemoteAPI is the slice of the provisioning client the coordinator drives.
type RemoteAPI interface {
	CreateActivation(ctx context.Context, req provider.ActivationRequest) (*provider.ActivationCreated, error)
	ActivationStatus(ctx context.Context, activationID int64) (*provider.ActivationStatus, error)
	CancelActivation(ctx context.Context, activationID int64) (bool, error)
}

// Notifier receives a copy of an activation right after its code arrives.
type Notifier func(activation models.Activation)

// Coordinator owns the lifecycle of every live activation: purchase, status
// polling, reservation countdown and the terminal transitions. A single mutex
// guards the tracked set, so the first terminal transition wins and later ones
// are dropped.
type Coordinator struct {
	remote   RemoteAPI
	store    *store.ActivationStore
	sessions *session.Manager

	mu      sync.Mutex
	tracked map[string]*models.Activation // local id -> live record
	polling map[int64]string              // remote id -> local id
	cancel  context.CancelFunc

	notifier Notifier
	wg       sync.WaitGroup
}

// NewCoordinator constructs the activation coordinator.
func NewCoordinator(remote RemoteAPI, activations *store.ActivationStore, sessions *session.Manager) *Coordinator {
	if remote == nil || activations == nil {
		return nil
	}
	return &Coordinator{
		remote:   remote,
		store:    activations,
		sessions: sessions,
		tracked:  map[string]*models.Activation{},
		polling:  map[int64]string{},
	}
}

// SetNotifier installs the completion callback. Call before Start.
func (c *Coordinator) SetNotifier(notifier Notifier) {
	if c == nil {
		return
	}
	c.notifier = notifier
}

// Start launches the polling and countdown loops. Safe to call once; repeat
// calls while running are ignored.
func (c *Coordinator) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(2)
	go c.pollLoop(runCtx)
	go c.sweepLoop(runCtx)
	log.Infof("activation coordinator started (poll=%ds sweep=%ds)",
		internalsettings.IntValue(internalsettings.PollIntervalSecondsKey, internalsettings.DefaultPollIntervalSeconds),
		internalsettings.IntValue(internalsettings.ExpirySweepSecondsKey, internalsettings.DefaultExpirySweepSeconds))
}

// Stop halts both loops and waits for them to exit. Idempotent.
func (c *Coordinator) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
}

// Purchase reserves a number for the customer at the price quoted on the
// catalog page. The cached balance is checked against that quote before any
// remote call; at most one remote reservation is attempted, and no local
// record is written when it fails.
func (c *Coordinator) Purchase(ctx context.Context, sess *session.Session, countryID, serviceID int64, price float64) (*models.Activation, error) {
	if c == nil {
		return nil, errors.New("activation: coordinator not initialized")
	}
	if sess == nil {
		return nil, ErrAuthenticationRequired
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if sess.Balance() < price {
		return nil, ErrInsufficientFunds
	}
	if ctx == nil {
		ctx = context.Background()
	}

	created, errCreate := c.remote.CreateActivation(ctx, provider.ActivationRequest{
		CountryID:  countryID,
		ServiceID:  serviceID,
		CustomerID: sess.CustomerID,
	})
	if errCreate != nil {
		return nil, errCreate
	}

	remoteID := created.ActivationID
	minutes := internalsettings.IntValue(internalsettings.ReservationMinutesKey, internalsettings.DefaultReservationMinutes)
	record := &models.Activation{
		ID:          uuid.NewString(),
		CustomerID:  sess.CustomerID,
		ServiceID:   serviceID,
		RemoteID:    &remoteID,
		PhoneNumber: created.PhoneNumber,
		Status:      models.StatusWaiting,
		MinutesLeft: minutes,
		PricePaid:   price,
		CreatedAt:   time.Now().UTC(),
	}

	// The remote reservation exists regardless of the insert outcome, so the
	// record stays tracked even when persistence fails.
	if errPersist := c.store.Create(ctx, record); errPersist != nil {
		log.WithError(errPersist).Warnf("activation: persist purchase failed (activation=%s)", record.ID)
	}
	c.register(record)

	if c.sessions != nil {
		if errRefresh := c.sessions.RefreshBalance(ctx, sess); errRefresh != nil {
			log.WithError(errRefresh).Warnf("activation: balance refresh after purchase failed (customer=%d)", sess.CustomerID)
		}
	}

	snapshot := *record
	return &snapshot, nil
}

// Cancel asks the provider to cancel a waiting activation and, only on a
// confirmed success, marks the local record cancelled. Cancelling an already
// terminal activation is a no-op that returns the record unchanged.
func (c *Coordinator) Cancel(ctx context.Context, customerID int64, activationID string) (*models.Activation, error) {
	if c == nil {
		return nil, errors.New("activation: coordinator not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	record, ok := c.tracked[activationID]
	if ok && record.CustomerID != customerID {
		c.mu.Unlock()
		return nil, store.ErrNotFound
	}
	if ok {
		snapshot := *record
		c.mu.Unlock()
		if snapshot.IsTerminal() {
			return &snapshot, nil
		}
		if snapshot.RemoteID == nil {
			return &snapshot, nil
		}
		return c.cancelRemote(ctx, activationID, *snapshot.RemoteID)
	}
	c.mu.Unlock()

	row, errFind := c.store.GetByID(ctx, activationID)
	if errFind != nil {
		return nil, errFind
	}
	if row.CustomerID != customerID {
		return nil, store.ErrNotFound
	}
	if row.IsTerminal() || row.RemoteID == nil {
		return row, nil
	}
	c.register(row)
	return c.cancelRemote(ctx, activationID, *row.RemoteID)
}

func (c *Coordinator) cancelRemote(ctx context.Context, activationID string, remoteID int64) (*models.Activation, error) {
	success, errCancel := c.remote.CancelActivation(ctx, remoteID)
	if errCancel != nil {
		return nil, errCancel
	}
	if !success {
		return nil, ErrCancelRefused
	}
	if record := c.markCancelled(ctx, activationID); record != nil {
		return record, nil
	}
	// Another transition landed and evicted the record first.
	return c.store.GetByID(ctx, activationID)
}

// Resume re-registers persisted waiting activations after a restart. Each
// record enters the polling set exactly once.
func (c *Coordinator) Resume(ctx context.Context) error {
	if c == nil {
		return errors.New("activation: coordinator not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, errList := c.store.ListResumable(ctx)
	if errList != nil {
		return errList
	}
	resumed := 0
	for i := range rows {
		row := rows[i]
		if c.register(&row) {
			resumed++
		}
	}
	if resumed > 0 {
		log.Infof("activation: resumed %d waiting activation(s)", resumed)
	}
	return nil
}

// Tracked returns a copy of the live in-memory record, when present.
func (c *Coordinator) Tracked(activationID string) (*models.Activation, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.tracked[activationID]
	if !ok {
		return nil, false
	}
	snapshot := *record
	return &snapshot, true
}

// register adds a record to the tracked and polling sets. Reports whether the
// record was newly registered.
func (c *Coordinator) register(record *models.Activation) bool {
	if record == nil || record.ID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tracked[record.ID]; exists {
		return false
	}
	clone := *record
	c.tracked[record.ID] = &clone
	if clone.RemoteID != nil && !clone.IsTerminal() {
		c.polling[*clone.RemoteID] = clone.ID
	}
	return true
}

func (c *Coordinator) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		c.pollOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		seconds := internalsettings.IntValue(internalsettings.PollIntervalSecondsKey, internalsettings.DefaultPollIntervalSeconds)
		timer := time.NewTimer(time.Duration(seconds) * time.Second)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (c *Coordinator) sweepLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		seconds := internalsettings.IntValue(internalsettings.ExpirySweepSecondsKey, internalsettings.DefaultExpirySweepSeconds)
		timer := time.NewTimer(time.Duration(seconds) * time.Second)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
		c.sweepOnce(ctx)
	}
}

type pollTarget struct {
	remoteID int64
	localID  string
}

// pollOnce queries the remote status of every registered activation. The
// registration set is snapshotted before iterating, and one failed query never
// stops the rest of the pass.
func (c *Coordinator) pollOnce(ctx context.Context) {
	c.mu.Lock()
	targets := make([]pollTarget, 0, len(c.polling))
	for remoteID, localID := range c.polling {
		targets = append(targets, pollTarget{remoteID: remoteID, localID: localID})
	}
	c.mu.Unlock()

	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}
		status, errStatus := c.remote.ActivationStatus(ctx, target.remoteID)
		if errStatus != nil {
			log.WithError(errStatus).Warnf("activation: status poll failed (activation=%s remote=%d)", target.localID, target.remoteID)
			continue
		}
		switch status.Status {
		case provider.StatusCompleted:
			// The provider reports completed before the code body is readable
			// on some routes. Keep polling until the code is actually there.
			if status.SMSCode == nil || strings.TrimSpace(*status.SMSCode) == "" {
				continue
			}
			c.markCompleted(ctx, target.localID, status)
		case provider.StatusCancelled:
			c.markCancelled(ctx, target.localID)
		}
	}
}

// sweepOnce decrements the reservation countdown of every waiting activation
// and expires the ones that reach zero in the same pass. The provider is not
// told about local expiry.
func (c *Coordinator) sweepOnce(ctx context.Context) {
	type countdown struct {
		id      string
		minutes int
		expired bool
	}

	c.mu.Lock()
	updates := make([]countdown, 0, len(c.tracked))
	for _, record := range c.tracked {
		if record.Status != models.StatusWaiting {
			continue
		}
		record.MinutesLeft--
		if record.MinutesLeft <= 0 {
			record.MinutesLeft = 0
			record.Status = models.StatusExpired
			if record.RemoteID != nil {
				delete(c.polling, *record.RemoteID)
			}
			updates = append(updates, countdown{id: record.ID, expired: true})
			continue
		}
		updates = append(updates, countdown{id: record.ID, minutes: record.MinutesLeft})
	}
	c.mu.Unlock()

	for _, update := range updates {
		var errPersist error
		if update.expired {
			errPersist = c.store.MarkExpired(ctx, update.id)
		} else {
			errPersist = c.store.UpdateMinutesLeft(ctx, update.id, update.minutes)
		}
		if errPersist != nil {
			log.WithError(errPersist).Warnf("activation: persist countdown failed (activation=%s)", update.id)
			continue
		}
		if update.expired {
			c.evict(update.id)
		}
	}
}

// markCompleted applies the completed transition when the record is still
// live. Already terminal records are left untouched.
func (c *Coordinator) markCompleted(ctx context.Context, activationID string, status *provider.ActivationStatus) {
	completedAt := time.Now().UTC()
	if status.CompletedAt != nil {
		completedAt = status.CompletedAt.UTC()
	}

	c.mu.Lock()
	record, ok := c.tracked[activationID]
	if !ok || record.IsTerminal() {
		c.mu.Unlock()
		return
	}
	record.Status = models.StatusCompleted
	record.SMSCode = status.SMSCode
	record.SMSText = status.SMSText
	record.CompletedAt = &completedAt
	if record.RemoteID != nil {
		delete(c.polling, *record.RemoteID)
	}
	snapshot := *record
	c.mu.Unlock()

	// The tracked set only holds live records; once the terminal row is
	// written, reads fall through to the store.
	if errPersist := c.store.MarkCompleted(ctx, activationID, status.SMSCode, status.SMSText, &completedAt); errPersist != nil {
		log.WithError(errPersist).Warnf("activation: persist completion failed (activation=%s)", activationID)
	} else {
		c.evict(activationID)
	}
	if c.notifier != nil {
		c.notifier(snapshot)
	}
}

// evict drops a record from the tracked set once its terminal state has been
// persisted.
func (c *Coordinator) evict(activationID string) {
	c.mu.Lock()
	delete(c.tracked, activationID)
	c.mu.Unlock()
}

// markCancelled applies the cancelled transition when the record is still
// live, returning a copy of the resulting record.
func (c *Coordinator) markCancelled(ctx context.Context, activationID string) *models.Activation {
	c.mu.Lock()
	record, ok := c.tracked[activationID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if record.IsTerminal() {
		snapshot := *record
		c.mu.Unlock()
		return &snapshot
	}
	record.Status = models.StatusCancelled
	if record.RemoteID != nil {
		delete(c.polling, *record.RemoteID)
	}
	snapshot := *record
	c.mu.Unlock()

	if errPersist := c.store.MarkCancelled(ctx, activationID); errPersist != nil {
		log.WithError(errPersist).Warnf("activation: persist cancellation failed (activation=%s)", activationID)
	} else {
		c.evict(activationID)
	}
	return &snapshot
}
