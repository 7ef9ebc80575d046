package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"vibely/internal/models"
	"vibely/pkg/logger"

	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteDB is the single-node store used for local development and tests.
type SQLiteDB struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NewSQLiteDB opens (creating if needed) the database file at path and applies the schema.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Info("Opened sqlite database at %s", path)
	return &SQLiteDB{sqlDB: sqlDB}, nil
}

func (db *SQLiteDB) Close() error {
	if db == nil || db.sqlDB == nil {
		return nil
	}
	return db.sqlDB.Close()
}

func sqliteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return sqliteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// User Repository Implementation

const sqliteUserColumns = `id, name, username, email, phone, profile_picture, bio, location, status, interests, password_hash, created_at`

func scanSQLiteUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var interests string
	var createdAt int64
	err := row.Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.Phone, &user.ProfilePicture,
		&user.Bio, &user.Location, &user.Status, &interests, &user.PasswordHash, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	user.Interests = decodeInterests(interests)
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func (db *SQLiteDB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + sqliteUserColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.sqlDB.ExecContext(ctx, query,
		user.ID, user.Name, user.Username, user.Email, user.Phone, user.ProfilePicture,
		user.Bio, user.Location, string(user.Status), encodeInterests(user.Interests), user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", sqliteError(err))
	}
	return nil
}

func (db *SQLiteDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE lower(email) = lower(?)`, email)
	user, err := scanSQLiteUser(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	return user, nil
}

func (db *SQLiteDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id)
	user, err := scanSQLiteUser(row)
	if err != nil {
		return nil, sqliteError(err)
	}

	if user.Friends, err = db.stringColumn(ctx, `SELECT friend_id FROM friendships WHERE user_id = ? ORDER BY created_at`, id); err != nil {
		return nil, err
	}
	if user.FriendRequests, err = db.ListPendingFriendRequests(ctx, id); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (db *SQLiteDB) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (db *SQLiteDB) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT `+sqliteUserColumns+`
FROM users
WHERE lower(name) LIKE ? ESCAPE '\' OR lower(username) LIKE ? ESCAPE '\'
ORDER BY username
LIMIT ?`, likePattern(query), likePattern(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *SQLiteDB) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := db.sqlDB.ExecContext(ctx, `
UPDATE users SET name = ?, username = ?, phone = ?, profile_picture = ?, bio = ?, location = ?, status = ?, interests = ?
WHERE id = ?`,
		user.Name, user.Username, user.Phone, user.ProfilePicture, user.Bio, user.Location,
		string(user.Status), encodeInterests(user.Interests), user.ID)
	return expectAffected(res, err)
}

func (db *SQLiteDB) ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT u.id, u.name, u.username, u.profile_picture
FROM friendships f
JOIN users u ON f.friend_id = u.id
WHERE f.user_id = ?
ORDER BY u.username`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.ProfilePicture); err != nil {
			return nil, err
		}
		friends = append(friends, s)
	}
	return friends, rows.Err()
}

func (db *SQLiteDB) AddFriendship(ctx context.Context, userID, friendID string) error {
	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := toMillis(time.Now())
	query := `INSERT OR IGNORE INTO friendships (user_id, friend_id, created_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, userID, friendID, now); err != nil {
		return sqliteError(err)
	}
	if _, err := tx.ExecContext(ctx, query, friendID, userID, now); err != nil {
		return sqliteError(err)
	}
	return tx.Commit()
}

func (db *SQLiteDB) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	res, err := db.sqlDB.ExecContext(ctx,
		`DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID)
	return expectAffected(res, err)
}

// Friend Request Repository Implementation

func scanSQLiteFriendRequest(row scanner, extra ...any) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	var createdAt int64
	dest := append([]any{&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	req.CreatedAt = fromMillis(createdAt)
	return req, nil
}

func (db *SQLiteDB) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	_, err := db.sqlDB.ExecContext(ctx,
		`INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.SenderID, req.ReceiverID, string(req.Status), toMillis(req.CreatedAt))
	return sqliteError(err)
}

func (db *SQLiteDB) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	row := db.sqlDB.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, status, created_at FROM friend_requests WHERE id = ?`, id)
	req, err := scanSQLiteFriendRequest(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	return req, nil
}

func (db *SQLiteDB) FindPendingFriendRequest(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	row := db.sqlDB.QueryRowContext(ctx, `
SELECT id, sender_id, receiver_id, status, created_at
FROM friend_requests
WHERE status = 'pending'
	AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
LIMIT 1`, userA, userB, userB, userA)
	req, err := scanSQLiteFriendRequest(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	return req, nil
}

func (db *SQLiteDB) ListPendingFriendRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at, u.id, u.name, u.username, u.profile_picture
FROM friend_requests r
JOIN users u ON r.sender_id = u.id
WHERE r.receiver_id = ? AND r.status = 'pending'
ORDER BY r.created_at DESC`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var sender models.UserSummary
		req, err := scanSQLiteFriendRequest(rows, &sender.ID, &sender.Name, &sender.Username, &sender.ProfilePicture)
		if err != nil {
			return nil, err
		}
		req.Sender = &sender
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (db *SQLiteDB) UpdateFriendRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error {
	res, err := db.sqlDB.ExecContext(ctx, `UPDATE friend_requests SET status = ? WHERE id = ?`, string(status), id)
	return expectAffected(res, err)
}

// Event Repository Implementation

const sqliteEventColumns = `e.id, e.title, e.type, e.date, e.time, e.location, e.description, e.author_id, e.image, e.created_at`

func scanSQLiteEvent(row scanner) (*models.Event, error) {
	event := &models.Event{}
	var date, createdAt int64
	err := row.Scan(&event.ID, &event.Title, &event.Type, &date, &event.Time, &event.Location,
		&event.Description, &event.AuthorID, &event.Image, &createdAt)
	if err != nil {
		return nil, err
	}
	event.Date = fromMillis(date)
	event.CreatedAt = fromMillis(createdAt)
	return event, nil
}

func (db *SQLiteDB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := db.sqlDB.ExecContext(ctx, `
INSERT INTO events (id, title, type, date, time, location, description, author_id, image, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.Type, toMillis(event.Date), event.Time, event.Location,
		event.Description, event.AuthorID, event.Image, toMillis(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create event: %w", sqliteError(err))
	}
	return nil
}

func (db *SQLiteDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+sqliteEventColumns+` FROM events e WHERE e.id = ?`, id)
	event, err := scanSQLiteEvent(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	if event.JoinedUsers, err = db.eventParticipants(ctx, id); err != nil {
		return nil, err
	}
	return event, nil
}

func (db *SQLiteDB) eventParticipants(ctx context.Context, eventID string) ([]string, error) {
	return db.stringColumn(ctx, `SELECT user_id FROM event_participants WHERE event_id = ? ORDER BY joined_at, rowid`, eventID)
}

func (db *SQLiteDB) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanSQLiteEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		if event.JoinedUsers, err = db.eventParticipants(ctx, event.ID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (db *SQLiteDB) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return db.queryEvents(ctx, `SELECT `+sqliteEventColumns+` FROM events e ORDER BY e.date ASC, e.created_at ASC`)
}

func (db *SQLiteDB) ListJoinedEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	return db.queryEvents(ctx, `
SELECT `+sqliteEventColumns+`
FROM events e
JOIN event_participants p ON p.event_id = e.id
WHERE p.user_id = ?
ORDER BY e.date ASC, e.created_at ASC`, userID)
}

func (db *SQLiteDB) DeleteEvent(ctx context.Context, id string) error {
	res, err := db.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return expectAffected(res, err)
}

func (db *SQLiteDB) AddEventParticipant(ctx context.Context, eventID, userID string) error {
	_, err := db.sqlDB.ExecContext(ctx,
		`INSERT INTO event_participants (event_id, user_id, joined_at) VALUES (?, ?, ?)`,
		eventID, userID, toMillis(time.Now()))
	return sqliteError(err)
}

func (db *SQLiteDB) RemoveEventParticipant(ctx context.Context, eventID, userID string) error {
	res, err := db.sqlDB.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, userID)
	return expectAffected(res, err)
}

// Chatroom Repository Implementation

const sqliteChatroomColumns = `c.id, c.name, c.is_private, c.owner_id, c.last_message, c.last_message_at, c.created_at`

func scanSQLiteChatroom(row scanner) (*models.Chatroom, error) {
	room := &models.Chatroom{}
	var lastAt sql.NullInt64
	var createdAt int64
	err := row.Scan(&room.ID, &room.Name, &room.IsPrivate, &room.OwnerID, &room.LastMessage, &lastAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if lastAt.Valid {
		t := fromMillis(lastAt.Int64)
		room.LastMessageAt = &t
	}
	room.CreatedAt = fromMillis(createdAt)
	return room, nil
}

func (db *SQLiteDB) CreateChatroom(ctx context.Context, room *models.Chatroom, participantIDs []string) error {
	var key any
	if room.IsPrivate {
		if len(participantIDs) != 2 {
			return fmt.Errorf("private chatroom needs exactly 2 participants, got %d", len(participantIDs))
		}
		key = pairKey(participantIDs[0], participantIDs[1])
	}

	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO chatrooms (id, name, is_private, owner_id, pair_key, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, boolToInt(room.IsPrivate), room.OwnerID, key, toMillis(room.CreatedAt)); err != nil {
		return sqliteError(err)
	}
	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chatroom_participants (chatroom_id, user_id) VALUES (?, ?)`,
			room.ID, userID); err != nil {
			return sqliteError(err)
		}
	}
	return tx.Commit()
}

func (db *SQLiteDB) hydrateChatroom(ctx context.Context, room *models.Chatroom, viewerID string) error {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT u.id, u.name, u.username, u.profile_picture, p.unread_count
FROM chatroom_participants p
JOIN users u ON p.user_id = u.id
WHERE p.chatroom_id = ?
ORDER BY u.username`, room.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	room.Participants = []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		var unread int
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.ProfilePicture, &unread); err != nil {
			return err
		}
		if s.ID == viewerID {
			room.UnreadCount = unread
		}
		room.Participants = append(room.Participants, s)
	}
	return rows.Err()
}

func (db *SQLiteDB) queryChatrooms(ctx context.Context, viewerID, query string, args ...any) ([]*models.Chatroom, error) {
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rooms := []*models.Chatroom{}
	for rows.Next() {
		room, err := scanSQLiteChatroom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, room)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, room := range rooms {
		if err := db.hydrateChatroom(ctx, room, viewerID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (db *SQLiteDB) GetChatroom(ctx context.Context, id, viewerID string) (*models.Chatroom, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+sqliteChatroomColumns+` FROM chatrooms c WHERE c.id = ?`, id)
	room, err := scanSQLiteChatroom(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	if err := db.hydrateChatroom(ctx, room, viewerID); err != nil {
		return nil, err
	}
	return room, nil
}

func (db *SQLiteDB) FindPrivateChatroom(ctx context.Context, userA, userB string) (*models.Chatroom, error) {
	row := db.sqlDB.QueryRowContext(ctx,
		`SELECT `+sqliteChatroomColumns+` FROM chatrooms c WHERE c.pair_key = ?`, pairKey(userA, userB))
	room, err := scanSQLiteChatroom(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	if err := db.hydrateChatroom(ctx, room, userA); err != nil {
		return nil, err
	}
	return room, nil
}

func (db *SQLiteDB) ListUserChatrooms(ctx context.Context, userID string) ([]*models.Chatroom, error) {
	return db.queryChatrooms(ctx, userID, `
SELECT `+sqliteChatroomColumns+`
FROM chatrooms c
JOIN chatroom_participants p ON p.chatroom_id = c.id
WHERE p.user_id = ?
ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`, userID)
}

func (db *SQLiteDB) ListPublicChatrooms(ctx context.Context) ([]*models.Chatroom, error) {
	return db.queryChatrooms(ctx, "", `SELECT `+sqliteChatroomColumns+` FROM chatrooms c WHERE c.is_private = 0 ORDER BY c.name`)
}

func (db *SQLiteDB) AddParticipant(ctx context.Context, roomID, userID string) error {
	_, err := db.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO chatroom_participants (chatroom_id, user_id) VALUES (?, ?)`, roomID, userID)
	return sqliteError(err)
}

func (db *SQLiteDB) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	err := db.sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chatroom_participants WHERE chatroom_id = ? AND user_id = ?)`,
		roomID, userID).Scan(&exists)
	return exists, err
}

func (db *SQLiteDB) ResetUnread(ctx context.Context, roomID, userID string) error {
	res, err := db.sqlDB.ExecContext(ctx,
		`UPDATE chatroom_participants SET unread_count = 0 WHERE chatroom_id = ? AND user_id = ?`, roomID, userID)
	return expectAffected(res, err)
}

func (db *SQLiteDB) DeleteChatroom(ctx context.Context, id string) error {
	res, err := db.sqlDB.ExecContext(ctx, `DELETE FROM chatrooms WHERE id = ?`, id)
	return expectAffected(res, err)
}

// Message Repository Implementation

func (db *SQLiteDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	created := toMillis(msg.CreatedAt)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chatroom_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatroomID, msg.Sender.ID, msg.Content, created); err != nil {
		return sqliteError(err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chatrooms SET last_message = ?, last_message_at = ? WHERE id = ?`,
		msg.Content, created, msg.ChatroomID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chatroom_participants SET unread_count = unread_count + 1 WHERE chatroom_id = ? AND user_id <> ?`,
		msg.ChatroomID, msg.Sender.ID); err != nil {
		return err
	}
	return tx.Commit()
}

const sqliteMessageSelect = `
SELECT m.id, m.chatroom_id, m.content, m.created_at, u.id, u.name, u.username, u.profile_picture
FROM messages m
JOIN users u ON m.sender_id = u.id`

func scanSQLiteMessage(row scanner) (*models.Message, error) {
	msg := &models.Message{}
	var createdAt int64
	if err := row.Scan(&msg.ID, &msg.ChatroomID, &msg.Content, &createdAt,
		&msg.Sender.ID, &msg.Sender.Name, &msg.Sender.Username, &msg.Sender.ProfilePicture); err != nil {
		return nil, err
	}
	msg.CreatedAt = fromMillis(createdAt)
	return msg, nil
}

func (db *SQLiteDB) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	msg, err := scanSQLiteMessage(db.sqlDB.QueryRowContext(ctx, sqliteMessageSelect+` WHERE m.id = ?`, id))
	if err != nil {
		return nil, sqliteError(err)
	}
	return msg, nil
}

func (db *SQLiteDB) LoadRecentMessages(ctx context.Context, roomID string, limit int) ([]*models.Message, error) {
	rows, err := db.sqlDB.QueryContext(ctx, sqliteMessageSelect+`
WHERE m.chatroom_id = ?
ORDER BY m.created_at DESC, m.id DESC
LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}

// Notification Repository Implementation

const sqliteNotificationSelect = `
SELECT n.id, n.user_id, n.type, n.content, n.reference_id, n.unread, n.created_at,
	u.id, u.name, u.username, u.profile_picture
FROM notifications n
JOIN users u ON n.sender_id = u.id`

func scanSQLiteNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{}
	var createdAt int64
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.ReferenceID, &n.Unread, &createdAt,
		&n.Sender.ID, &n.Sender.Name, &n.Sender.Username, &n.Sender.ProfilePicture)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = fromMillis(createdAt)
	return n, nil
}

func (db *SQLiteDB) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := db.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, type, content, sender_id, reference_id, unread, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), n.Content, n.Sender.ID, n.ReferenceID, boolToInt(n.Unread), toMillis(n.CreatedAt))
	return sqliteError(err)
}

func (db *SQLiteDB) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanSQLiteNotification(db.sqlDB.QueryRowContext(ctx, sqliteNotificationSelect+` WHERE n.id = ?`, id))
	if err != nil {
		return nil, sqliteError(err)
	}
	return n, nil
}

func (db *SQLiteDB) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := db.sqlDB.QueryContext(ctx, sqliteNotificationSelect+` WHERE n.user_id = ? ORDER BY n.created_at DESC, n.rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		n, err := scanSQLiteNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (db *SQLiteDB) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := db.sqlDB.ExecContext(ctx, `UPDATE notifications SET unread = 0 WHERE id = ?`, id)
	return expectAffected(res, err)
}

func (db *SQLiteDB) DeleteNotification(ctx context.Context, id string) error {
	res, err := db.sqlDB.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return expectAffected(res, err)
}

func (db *SQLiteDB) DeleteNotificationsByReference(ctx context.Context, userID, referenceID string) error {
	_, err := db.sqlDB.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ? AND reference_id = ?`, userID, referenceID)
	return err
}
