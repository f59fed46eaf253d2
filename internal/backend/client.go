package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rebuy/internal/models"
)

// Collection names in the hosted data API.
const (
	collGroups        = "groups"
	collGroupSettings = "groupSettings"
	collGames         = "games"
	collGroupMembers  = "groupMembers"
	collUsers         = "users"
)

// APIError is returned for non-2xx backend responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the hosted entity API. Every operation is one of the
// backend's generic collection calls: list all items, filter by equality
// predicates, get by id, or update by id with a partial field set.
type Client struct {
	baseURL string
	appID   string
	apiKey  string
	http    *http.Client
}

func New(baseURL, appID, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-App-ID", c.appID)
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// list fetches a collection's items, optionally filtered by equality
// predicates encoded on the query string.
func (c *Client) list(ctx context.Context, collection string, filter url.Values, out any) error {
	var resp struct {
		Items json.RawMessage `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/items/"+collection, filter, nil, &resp); err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Items, out)
}

func (c *Client) get(ctx context.Context, collection, id string, out any) error {
	return c.do(ctx, http.MethodGet, "/v1/items/"+collection+"/"+url.PathEscape(id), nil, nil, out)
}

func (c *Client) update(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/v1/items/"+collection+"/"+url.PathEscape(id), nil, fields, nil)
}

// ListGroupSettings returns every group's scheduling configuration.
func (c *Client) ListGroupSettings(ctx context.Context) ([]models.GroupSettings, error) {
	var out []models.GroupSettings
	if err := c.list(ctx, collGroupSettings, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGroups returns all groups.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	if err := c.list(ctx, collGroups, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGroup fetches one group by id.
func (c *Client) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var out models.Group
	if err := c.get(ctx, collGroups, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GamesByGroup returns all of a group's games.
func (c *Client) GamesByGroup(ctx context.Context, groupID string) ([]models.Game, error) {
	var out []models.Game
	filter := url.Values{"groupId": {groupID}}
	if err := c.list(ctx, collGames, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenGames returns games whose registration is currently open, across all
// groups. The filter contract is equality-only, so "notification not yet
// sent" is the caller's job.
func (c *Client) OpenGames(ctx context.Context) ([]models.Game, error) {
	var out []models.Game
	filter := url.Values{"registrationOpen": {"true"}}
	if err := c.list(ctx, collGames, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGame patches a game with a partial field set.
func (c *Client) UpdateGame(ctx context.Context, id string, fields map[string]any) error {
	return c.update(ctx, collGames, id, fields)
}

// ActiveMembers returns a group's active memberships.
func (c *Client) ActiveMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	var out []models.GroupMember
	filter := url.Values{"groupId": {groupID}, "isActive": {"true"}}
	if err := c.list(ctx, collGroupMembers, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers returns the whole user directory.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.list(ctx, collUsers, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
