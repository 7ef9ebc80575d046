// Package client is a Go client for the Vibely REST API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vibely/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotLoggedIn = errors.New("client: not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      SessionStore
}

// New builds a client for baseURL. A nil store keeps the session in memory.
func New(baseURL string, store SessionStore, timeout time.Duration) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Store:      store,
	}
}

// Session returns the stored session.
func (c *Client) Session() (*Session, error) {
	return c.Store.Load()
}

// Token returns the stored bearer token, or "" when logged out.
func (c *Client) Token() string {
	s, err := c.Store.Load()
	if err != nil {
		return ""
	}
	return s.Token
}

// WebSocketURL derives the realtime endpoint from BaseURL.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, reader, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

func (c *Client) currentUserID() (string, error) {
	s, err := c.Store.Load()
	if err != nil {
		return "", err
	}
	if !s.LoggedIn() {
		return "", ErrNotLoggedIn
	}
	return s.UserID, nil
}

// Auth

func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &resp); err != nil {
		return nil, err
	}
	if err := c.saveLogin(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	req := &models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", req, &resp); err != nil {
		return nil, err
	}
	if err := c.saveLogin(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) saveLogin(resp *models.LoginResponse) error {
	user := resp.User
	return c.Store.Save(&Session{Token: resp.Token, UserID: user.ID, User: &user})
}

// Logout forgets the stored token and user.
func (c *Client) Logout() error {
	return c.Store.Clear()
}

// Users

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the logged-in user and refreshes the stored copy.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	id, err := c.currentUserID()
	if err != nil {
		return nil, err
	}
	user, err := c.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if s, err := c.Store.Load(); err == nil && s.LoggedIn() {
		s.User = user
		c.Store.Save(s)
	}
	return user, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	var users []*models.User
	path := "/api/users/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.User, error) {
	id, err := c.currentUserID()
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar sends an image as the multipart field "file".
func (c *Client) UploadAvatar(ctx context.Context, filename, contentType string, r io.Reader) (*models.User, error) {
	id, err := c.currentUserID()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	var user models.User
	path := "/api/users/" + url.PathEscape(id) + "/avatar"
	if err := c.send(ctx, http.MethodPost, path, form.FormDataContentType(), &buf, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) JoinedEvents(ctx context.Context) ([]*models.Event, error) {
	id, err := c.currentUserID()
	if err != nil {
		return nil, err
	}
	var events []*models.Event
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id)+"/joined-events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) LeaveEvent(ctx context.Context, eventID string) error {
	id, err := c.currentUserID()
	if err != nil {
		return err
	}
	path := "/api/users/" + url.PathEscape(id) + "/leave-event"
	return c.do(ctx, http.MethodPatch, path, &models.LeaveEventRequest{EventID: eventID}, nil)
}

func (c *Client) Friends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	var friends []models.UserSummary
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/friends", nil, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) RemoveFriend(ctx context.Context, friendID string) error {
	id, err := c.currentUserID()
	if err != nil {
		return err
	}
	path := "/api/users/" + url.PathEscape(id) + "/friends/" + url.PathEscape(friendID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Friend requests

func (c *Client) SendFriendRequest(ctx context.Context, userID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := c.do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/friend-request", nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) FriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	if err := c.do(ctx, http.MethodGet, "/api/friend-requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	return c.respondFriendRequest(ctx, requestID, "accept")
}

func (c *Client) DeclineFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	return c.respondFriendRequest(ctx, requestID, "decline")
}

func (c *Client) respondFriendRequest(ctx context.Context, requestID, action string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	path := "/api/friend-requests/" + url.PathEscape(requestID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Events

func (c *Client) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) CreateEvent(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) JoinEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPost, "/api/events/"+url.PathEscape(id)+"/join", nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil)
}

// Notifications

func (c *Client) Notifications(ctx context.Context) ([]*models.Notification, error) {
	id, err := c.currentUserID()
	if err != nil {
		return nil, err
	}
	var notifications []*models.Notification
	if err := c.do(ctx, http.MethodGet, "/api/notifications/"+url.PathEscape(id), nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil, nil)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// Chatrooms

func (c *Client) Chatrooms(ctx context.Context) ([]*models.Chatroom, error) {
	var rooms []*models.Chatroom
	if err := c.do(ctx, http.MethodGet, "/api/chatrooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) PublicChatrooms(ctx context.Context) ([]*models.Chatroom, error) {
	var rooms []*models.Chatroom
	if err := c.do(ctx, http.MethodGet, "/api/chatrooms/public", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreatePrivateChatroom returns the private room with participantID, creating it if needed.
func (c *Client) CreatePrivateChatroom(ctx context.Context, participantID string) (*models.Chatroom, error) {
	var room models.Chatroom
	req := &models.CreateChatroomRequest{ParticipantID: participantID}
	if err := c.do(ctx, http.MethodPost, "/api/chatrooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreatePublicChatroom(ctx context.Context, name string) (*models.Chatroom, error) {
	var room models.Chatroom
	req := &models.CreateChatroomRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/chatrooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindPrivateChatroom looks up the private room with userID; a missing room is an APIError with IsNotFound.
func (c *Client) FindPrivateChatroom(ctx context.Context, userID string) (*models.Chatroom, error) {
	var room models.Chatroom
	if err := c.do(ctx, http.MethodGet, "/api/chatrooms/searchPri/"+url.PathEscape(userID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// History returns up to limit messages, oldest first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, chatroomID string, limit int) ([]*models.Message, error) {
	path := "/api/chatrooms/history/" + url.PathEscape(chatroomID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var messages []*models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) PostMessage(ctx context.Context, chatroomID, content string) (*models.Message, error) {
	var msg models.Message
	path := "/api/chatrooms/messages/" + url.PathEscape(chatroomID)
	if err := c.do(ctx, http.MethodPost, path, &models.SendMessageRequest{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) Participants(ctx context.Context, chatroomID string) ([]models.UserSummary, error) {
	var participants []models.UserSummary
	if err := c.do(ctx, http.MethodGet, "/api/chatrooms/participants/"+url.PathEscape(chatroomID), nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (c *Client) OnlineUsers(ctx context.Context, chatroomID string) ([]string, error) {
	var resp struct {
		OnlineUsers []string `json:"online_users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chatrooms/online/"+url.PathEscape(chatroomID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.OnlineUsers, nil
}

func (c *Client) MarkChatroomRead(ctx context.Context, chatroomID string) error {
	return c.do(ctx, http.MethodPost, "/api/chatrooms/read/"+url.PathEscape(chatroomID), nil, nil)
}

func (c *Client) DeleteChatroom(ctx context.Context, chatroomID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chatrooms/"+url.PathEscape(chatroomID), nil, nil)
}
