package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/bank-sync/internal/aggregator"
	"github.com/dvloznov/bank-sync/internal/blobstore"
	"github.com/dvloznov/bank-sync/internal/config"
	"github.com/dvloznov/bank-sync/internal/logger"
)

// ErrNoValidSession means no live session exists and the run mode does not
// permit interactive authentication.
var ErrNoValidSession = errors.New("session: no valid session and interactive authentication is disabled")

// ErrAuthCodeMissing means no authorization code could be extracted from
// the operator-supplied consent input.
var ErrAuthCodeMissing = errors.New("session: could not extract authorization code from input")

// InputProvider supplies the out-of-band completion of a consent flow:
// the operator opens authURL, authorizes, and pastes back either the full
// redirect URL or the bare authorization code.
type InputProvider interface {
	ReadAuthInput(ctx context.Context, authURL string) (string, error)
}

// API is the slice of the aggregator client the manager depends on.
type API interface {
	ProbeSession(ctx context.Context, sessionID string) error
	GetApplication(ctx context.Context) (*aggregator.Application, error)
	StartAuthorization(ctx context.Context, req aggregator.AuthorizationRequest) (string, error)
	CreateSession(ctx context.Context, code string) (*aggregator.Session, error)
}

// Manager resolves a usable session per institution: it validates persisted
// sessions against the remote service and, when permitted, drives the
// interactive consent exchange to mint and persist a new one.
type Manager struct {
	api         API
	store       blobstore.Store
	input       InputProvider
	interactive bool
	now         func() time.Time
}

// NewManager creates a session manager. input may be nil when interactive
// is false.
func NewManager(api API, store blobstore.Store, input InputProvider, interactive bool) *Manager {
	return &Manager{
		api:         api,
		store:       store,
		input:       input,
		interactive: interactive,
		now:         time.Now,
	}
}

// BlobKey returns the storage key of the persisted session for an institution.
func BlobKey(institutionName string) string {
	slug := strings.ReplaceAll(strings.ToLower(institutionName), " ", "_")
	return fmt.Sprintf("enable-banking/%s/session_store.json", slug)
}

// Obtain returns a live session for the institution. A persisted session is
// probed against the remote service, which is authoritative for expiry; on
// probe failure a new session is created through the consent flow and
// persisted before being returned.
func (m *Manager) Obtain(ctx context.Context, inst config.Institution, persisted *aggregator.Session) (*aggregator.Session, error) {
	log := logger.FromContext(ctx)

	if persisted != nil && persisted.SessionID != "" {
		log.Info().Str("session_id", persisted.SessionID).Msg("Checking validity of stored session")
		err := m.api.ProbeSession(ctx, persisted.SessionID)
		if err == nil {
			log.Info().Msg("Session is valid")
			return persisted, nil
		}
		log.Warn().Err(err).Msg("Stored session is invalid")
	}

	if !m.interactive || m.input == nil {
		return nil, ErrNoValidSession
	}
	return m.authenticate(ctx, inst)
}

// authenticate runs the one-time consent exchange for the institution.
func (m *Manager) authenticate(ctx context.Context, inst config.Institution) (*aggregator.Session, error) {
	log := logger.FromContext(ctx)

	app, err := m.api.GetApplication(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: %w", inst.Name, err)
	}
	if len(app.RedirectURLs) == 0 {
		return nil, fmt.Errorf("authenticate %q: application has no registered redirect URLs", inst.Name)
	}

	log.Info().Str("institution", inst.Name).Msg("Starting new authentication flow")
	validUntil := m.now().UTC().Add(time.Duration(inst.ConsentValiditySeconds) * time.Second)
	authURL, err := m.api.StartAuthorization(ctx, aggregator.AuthorizationRequest{
		Access:      aggregator.AccessScope{ValidUntil: validUntil.Format(time.RFC3339)},
		ASPSP:       aggregator.ASPSP{Name: inst.Name, Country: inst.Country},
		State:       uuid.NewString(),
		RedirectURL: app.RedirectURLs[0],
		PSUType:     "personal",
	})
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: %w", inst.Name, err)
	}

	input, err := m.input.ReadAuthInput(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: reading consent input: %w", inst.Name, err)
	}
	code := extractAuthCode(input)
	if code == "" {
		return nil, ErrAuthCodeMissing
	}

	session, err := m.api.CreateSession(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: %w", inst.Name, err)
	}
	log.Info().Str("session_id", session.SessionID).Msg("New session created")

	// Persist before returning so a crash after creation still leaves the
	// session durably recorded.
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: marshal session: %w", inst.Name, err)
	}
	if err := m.store.Put(ctx, BlobKey(inst.Name), data); err != nil {
		return nil, fmt.Errorf("authenticate %q: persist session: %w", inst.Name, err)
	}

	return session, nil
}

// extractAuthCode pulls the authorization code out of the consent input:
// the code query parameter when a redirect URL was pasted, otherwise the
// whole input is taken as the code.
func extractAuthCode(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "code=") {
		return input
	}
	u, err := url.Parse(input)
	if err != nil {
		return ""
	}
	return u.Query().Get("code")
}
