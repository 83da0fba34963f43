// Package backend talks to the remote spreadsheet-backed endpoint. The
// endpoint is an opaque collaborator: a single URL accepting action GETs and
// operation POSTs, answering JSON envelopes with a status field.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taxilog/taxilog/internal/models"
)

// ErrBackend is returned when the endpoint answered but reported an
// application-level error in the response body.
var ErrBackend = errors.New("backend reported error")

// CockpitUser is the account the owner's overview endpoint is keyed to.
const CockpitUser = "chef"

// Client is an HTTP client for the remote endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Entry
}

// New creates a backend client for the given endpoint URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "backend"),
	}
}

// envelope is the JSON shape every endpoint response follows. Only the
// fields relevant to the requested action are populated.
type envelope struct {
	Status        string                `json:"status"`
	Message       string                `json:"message"`
	LoggedIn      bool                  `json:"loggedIn"`
	Trips         []models.Trip         `json:"trips"`
	Expenses      []models.Expense      `json:"expenses"`
	AssignedTrips []models.AssignedTrip `json:"assignedTrips"`
	Drivers       []string              `json:"drivers"`
	Plates        []string              `json:"plates"`
	Rentals       []models.CarRental    `json:"rentals"`
}

// UserData is everything the endpoint returns for one driver account.
type UserData struct {
	Trips         []models.Trip
	Expenses      []models.Expense
	AssignedTrips []models.AssignedTrip
	Plates        []string
}

// CockpitData is the owner's overview across all drivers.
type CockpitData struct {
	Drivers  []string
	Trips    []models.Trip
	Expenses []models.Expense
	Rentals  []models.CarRental
	Plates   []string
}

func (c *Client) get(ctx context.Context, params url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend status %d", resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Status == "error" {
		if env.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrBackend, env.Message)
		}
		return nil, ErrBackend
	}
	return &env, nil
}

// Login checks the credentials against the endpoint. The boolean is false
// with a nil error when the endpoint answered but rejected the credentials;
// a non-nil error means the check could not be performed.
func (c *Client) Login(ctx context.Context, user, pass string) (bool, error) {
	env, err := c.get(ctx, url.Values{
		"action": {"login"},
		"user":   {user},
		"pass":   {pass},
	})
	if errors.Is(err, ErrBackend) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return env.LoggedIn, nil
}

// GetData fetches the authoritative lists for one driver.
func (c *Client) GetData(ctx context.Context, user string) (*UserData, error) {
	env, err := c.get(ctx, url.Values{
		"action": {"getData"},
		"user":   {user},
	})
	if err != nil {
		return nil, err
	}
	return &UserData{
		Trips:         env.Trips,
		Expenses:      env.Expenses,
		AssignedTrips: env.AssignedTrips,
		Plates:        env.Plates,
	}, nil
}

// GetCockpitData fetches the owner's overview across all drivers.
func (c *Client) GetCockpitData(ctx context.Context) (*CockpitData, error) {
	env, err := c.get(ctx, url.Values{
		"action": {"getCockpitData"},
		"user":   {CockpitUser},
	})
	if err != nil {
		return nil, err
	}
	return &CockpitData{
		Drivers:  env.Drivers,
		Trips:    env.Trips,
		Expenses: env.Expenses,
		Rentals:  env.Rentals,
		Plates:   env.Plates,
	}, nil
}

// GetCarRentals fetches all rental records.
func (c *Client) GetCarRentals(ctx context.Context) ([]models.CarRental, error) {
	env, err := c.get(ctx, url.Values{"action": {"getCarRentals"}})
	if err != nil {
		return nil, err
	}
	return env.Rentals, nil
}

// SubmitOp delivers one queued write operation. Any transport failure,
// non-2xx status or status=error body is a failed delivery and the caller
// keeps the operation queued.
func (c *Client) SubmitOp(ctx context.Context, op models.SyncOp) error {
	body, err := op.Body()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// The deployed script only parses plain-text POST bodies.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit %s %s: %w", op.Type, op.ID, err)
	}
	defer resp.Body.Close()
	if _, err := decodeEnvelope(resp); err != nil {
		return fmt.Errorf("submit %s %s: %w", op.Type, op.ID, err)
	}
	c.log.WithFields(log.Fields{"type": op.Type, "id": op.ID}).Debug("Delivered operation")
	return nil
}

// Probe reports whether the endpoint is reachable at all. Any HTTP answer
// counts as reachable; only transport failures count as offline.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	resp.Body.Close()
	return nil
}
